package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/events"
)

// AuditService writes session lifecycle events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(a.handleInfo, events.EventLoggedIn, events.EventLoggedOut, events.EventRegistered)
	a.dispatcher.Subscribe(a.handleDebug, events.EventLocked, events.EventUnlocked)
	a.dispatcher.Subscribe(a.handleWarn, events.EventForcedLogout, events.EventAccessDenied)
}

func (a *AuditService) handleInfo(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleDebug(ctx context.Context, event events.Event) error {
	a.logger.Debug(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleWarn(ctx context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type), fields(event)...)
	return nil
}

func fields(event events.Event) []zap.Field {
	out := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("session_id", event.SessionID),
		zap.Time("at", event.Timestamp),
	}
	if event.Actor.UserID != "" {
		out = append(out, zap.String("user_id", event.Actor.UserID), zap.String("role", string(event.Actor.Role)))
	}
	if event.Actor.Email != "" {
		out = append(out, zap.String("email", event.Actor.Email))
	}
	if event.Payload != nil {
		out = append(out, zap.Any("payload", event.Payload))
	}
	return out
}
