package service

import (
	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/query"
)

// Cache key names. Lists append their query params so that every filter
// combination is cached on its own while the bare name invalidates them all.
const (
	keyAppointment         = "appointment"
	keyAdminAppointments   = "admin-appointments"
	keyDoctorAppointments  = "doctor-appointments"
	keyPatientAppointments = "patient-appointments"
	keyDashboardStats      = "dashboard-stats"
	keyDoctors             = "doctors"
	keyDoctorProfile       = "doctor-profile"
	keyDoctorAvailability  = "doctor-availability"
	keyPatients            = "patients"
	keyPatientProfile      = "patient-profile"
	keyPharmacies          = "pharmacies"
	keyPharmacy            = "pharmacy"
	keyPharmacyProducts    = "pharmacy-products"
	keyOrders              = "orders"
	keyOrder               = "order"
	keySubscriptionPlans   = "subscription-plans"
	keySubscriptions       = "subscriptions"
	keyConversations       = "conversations"
	keyMessages            = "conversation-messages"
	keyUsers               = "users"
	keyUser                = "user"
)

// Key constructors. Invalidating a constructor called with fewer arguments
// (e.g. DoctorsKey()) marks every list variant stale.
func AppointmentKey(id string) query.Key { return query.Key{keyAppointment, id} }
func AdminAppointmentsKey() query.Key { return query.Key{keyAdminAppointments} }
func DoctorAppointmentsKey(id string) query.Key { return query.Key{keyDoctorAppointments, id} }
func PatientAppointmentsKey(id string) query.Key { return query.Key{keyPatientAppointments, id} }
func DashboardStatsKey() query.Key { return query.Key{keyDashboardStats} }
func DoctorsKey() query.Key { return query.Key{keyDoctors} }
func DoctorProfileKey(id string) query.Key { return query.Key{keyDoctorProfile, id} }
func DoctorAvailabilityKey(id string) query.Key { return query.Key{keyDoctorAvailability, id} }
func PatientsKey() query.Key { return query.Key{keyPatients} }
func PatientProfileKey(id string) query.Key { return query.Key{keyPatientProfile, id} }
func PharmaciesKey() query.Key { return query.Key{keyPharmacies} }
func PharmacyKey(id string) query.Key { return query.Key{keyPharmacy, id} }
func PharmacyProductsKey(id string) query.Key { return query.Key{keyPharmacyProducts, id} }
func OrdersKey() query.Key { return query.Key{keyOrders} }
func OrderKey(id string) query.Key { return query.Key{keyOrder, id} }
func SubscriptionPlansKey() query.Key { return query.Key{keySubscriptionPlans} }
func SubscriptionsKey() query.Key { return query.Key{keySubscriptions} }
func ConversationsKey() query.Key { return query.Key{keyConversations} }
func MessagesKey(id string) query.Key { return query.Key{keyMessages, id} }
func UsersKey() query.Key { return query.Key{keyUsers} }
func UserKey(id string) query.Key { return query.Key{keyUser, id} }

// withParams extends a list key with its filter params.
func withParams(key query.Key, params apiclient.Params) query.Key {
	if len(params) == 0 {
		return key
	}
	return append(append(query.Key{}, key...), params.Encode())
}
