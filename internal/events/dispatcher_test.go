package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_FanOutSurvivesFailingHandlers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var got []Event
	d.Subscribe(func(context.Context, Event) error { return errors.New("sink down") }, EventLoggedIn)
	d.Subscribe(func(context.Context, Event) error { panic("boom") }, EventLoggedIn)
	d.Subscribe(func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	}, EventLoggedIn, EventLoggedOut)

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventLoggedIn, SessionID: "s-1"}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventLoggedOut, SessionID: "s-1"}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventLocked, SessionID: "s-1"}))

	if assert.Len(t, got, 2) {
		assert.Equal(t, EventLoggedIn, got[0].Type)
		assert.NotEmpty(t, got[0].ID)
		assert.False(t, got[0].Timestamp.IsZero())
		assert.Equal(t, EventLoggedOut, got[1].Type)
	}
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}
