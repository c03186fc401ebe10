package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/config"
	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/events"
	"github.com/spec-kit/clinic-admin/internal/query"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newServices(t *testing.T, handler http.HandlerFunc) (*Services, *query.Cache) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cache := query.NewCache(0, nil)
	client := apiclient.New(config.APIConfig{BaseURL: server.URL, TimeoutSeconds: 5}, nil, nil)
	return NewRegistry(cache, nil).For(client), cache
}

func seed(t *testing.T, cache *query.Cache, keys ...query.Key) {
	t.Helper()
	for _, k := range keys {
		_, err := query.Fetch(context.Background(), cache, k, func(ctx context.Context) (int, error) { return 1, nil })
		require.NoError(t, err)
	}
}

func stale(cache *query.Cache, k query.Key) bool {
	_, s := cache.State(k)
	return s
}

func TestAppointments_AcceptInvalidatesRelatedReads(t *testing.T) {
	svc, cache := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/appointments/A1/accept", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"id": "A1", "doctorId": "D1", "patientId": "P1", "status": "ACCEPTED",
		}})
	})

	listKey := withParams(AdminAppointmentsKey(), apiclient.Params{"page": 1})
	untouched := []query.Key{DoctorAppointmentsKey("D2"), PatientProfileKey("P1"), OrdersKey()}
	seed(t, cache, AppointmentKey("A1"), DoctorAppointmentsKey("D1"), PatientAppointmentsKey("P1"), listKey, DashboardStatsKey())
	seed(t, cache, untouched...)

	appt, err := svc.Appointments.Accept(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentAccepted, appt.Status)

	for _, k := range []query.Key{AppointmentKey("A1"), DoctorAppointmentsKey("D1"), PatientAppointmentsKey("P1"), listKey, DashboardStatsKey()} {
		assert.True(t, stale(cache, k), "%s should be stale", k)
	}
	for _, k := range untouched {
		assert.False(t, stale(cache, k), "%s should be fresh", k)
	}
}

func TestAppointments_FailedWriteInvalidatesNothing(t *testing.T) {
	svc, cache := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "already accepted"})
	})
	seed(t, cache, AppointmentKey("A1"), DashboardStatsKey())

	_, err := svc.Appointments.Accept(context.Background(), "A1")

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "already accepted", apiErr.Message)
	assert.False(t, stale(cache, AppointmentKey("A1")))
	assert.False(t, stale(cache, DashboardStatsKey()))
}

func TestAppointments_UnknownStatusRejectedLocally(t *testing.T) {
	svc, _ := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call %s", r.URL.Path)
	})
	_, err := svc.Appointments.SetStatus(context.Background(), "A1", domain.AppointmentPending, "")
	assert.Error(t, err)
}

func TestDoctors_ConcurrentProfileReadsShareOneCall(t *testing.T) {
	var calls int32
	svc, _ := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "D1", "fullName": "Dr. Ada"}})
	})

	var wg sync.WaitGroup
	names := make([]string, 2)
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := svc.Doctors.Get(context.Background(), "D1")
			assert.NoError(t, err)
			names[i] = doc.FullName
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"Dr. Ada", "Dr. Ada"}, names)
}

func TestDoctors_ListPassesParams(t *testing.T) {
	var rawQuery string
	svc, _ := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"items": []map[string]any{{"id": "D1"}}, "total": 1, "page": 2, "pageSize": 10,
		}})
	})

	page, err := svc.Doctors.List(context.Background(), apiclient.Params{"page": 2, "search": ""})
	require.NoError(t, err)
	assert.Equal(t, "page=2", rawQuery)
	assert.Len(t, page.Items, 1)
}

func TestOrders_SetStatusValidates(t *testing.T) {
	svc, cache := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "O1", "status": "SHIPPED"}})
	})
	seed(t, cache, OrderKey("O1"), withParams(OrdersKey(), apiclient.Params{"status": "PENDING"}))

	_, err := svc.Orders.SetStatus(context.Background(), "O1", domain.OrderStatus("LOST"))
	assert.Error(t, err)
	assert.False(t, stale(cache, OrderKey("O1")))

	order, err := svc.Orders.SetStatus(context.Background(), "O1", domain.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderShipped, order.Status)
	assert.True(t, stale(cache, OrderKey("O1")))
	assert.True(t, stale(cache, withParams(OrdersKey(), apiclient.Params{"status": "PENDING"})))
}

func TestPharmacies_DeleteToleratesAnyPayload(t *testing.T) {
	svc, cache := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": "Pharmacy deleted"})
	})
	seed(t, cache, PharmaciesKey())

	require.NoError(t, svc.Pharmacies.Delete(context.Background(), "PH1"))
	assert.True(t, stale(cache, PharmaciesKey()))
}

func TestChat_SendRejectsEmptyMessage(t *testing.T) {
	svc, _ := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call %s", r.URL.Path)
	})
	_, err := svc.Chat.Send(context.Background(), "C1", "  ", nil)
	assert.Error(t, err)
}

func TestSubscriptions_SavePlanRoutesByID(t *testing.T) {
	var methods []string
	svc, _ := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "S1", "name": "Gold"}})
	})

	_, err := svc.Subscriptions.SavePlan(context.Background(), domain.SubscriptionPlan{Name: "Gold", Price: 10, DurationDays: 30})
	require.NoError(t, err)
	_, err = svc.Subscriptions.SavePlan(context.Background(), domain.SubscriptionPlan{ID: "S1", Name: "Gold", Price: 12, DurationDays: 30})
	require.NoError(t, err)
	_, err = svc.Subscriptions.SavePlan(context.Background(), domain.SubscriptionPlan{Name: "", DurationDays: 30})
	assert.Error(t, err)

	assert.Equal(t, []string{"POST /subscriptions/plans", "PUT /subscriptions/plans/S1"}, methods)
}

func TestAuditService_LogsSessionEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	NewAuditService(dispatcher, zap.New(core)).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		ID:        "e1",
		Type:      events.EventAccessDenied,
		SessionID: "s1",
		Actor:     events.Actor{UserID: "u1", Email: "doc@clinic.test", Role: domain.RoleDoctor},
		Payload:   events.AccessDeniedPayload{Email: "doc@clinic.test", Role: domain.RoleDoctor},
	}))

	entries := logs.FilterMessage(string(events.EventAccessDenied)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
}
