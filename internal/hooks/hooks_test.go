package hooks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soyeahso/warmline/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func TestManager_On_And_Emit(t *testing.T) {
	m := testManager()

	var called bool
	m.On(EventGatewayStart, "test", func(_ context.Context, p Payload) error {
		called = true
		assert.Equal(t, EventGatewayStart, p.Event)
		return nil
	})

	m.Emit(context.Background(), Payload{Event: EventGatewayStart})
	assert.True(t, called)
}

func TestManager_Emit_MultipleHandlers(t *testing.T) {
	m := testManager()

	var order []string
	m.On(EventCallStarted, "first", func(_ context.Context, _ Payload) error {
		order = append(order, "first")
		return nil
	})
	m.On(EventCallStarted, "second", func(_ context.Context, _ Payload) error {
		order = append(order, "second")
		return nil
	})

	m.Emit(context.Background(), Payload{Event: EventCallStarted})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestManager_Emit_StampsTime(t *testing.T) {
	m := testManager()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	var got Payload
	m.On(EventHandoffRequested, "test", func(_ context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), Payload{
		Event:      EventHandoffRequested,
		Conference: "CA123",
		AICallID:   "RTC1",
	})

	assert.Equal(t, "CA123", got.Conference)
	assert.Equal(t, "RTC1", got.AICallID)
	assert.Equal(t, fixed, got.At)

	explicit := fixed.Add(-time.Hour)
	m.Emit(context.Background(), Payload{Event: EventHandoffRequested, At: explicit})
	assert.Equal(t, explicit, got.At)
}

func TestManager_Emit_HandlerError(t *testing.T) {
	m := testManager()

	var secondCalled bool
	m.On(EventGatewayStart, "failing", func(_ context.Context, _ Payload) error {
		return errors.New("handler broke")
	})
	m.On(EventGatewayStart, "second", func(_ context.Context, _ Payload) error {
		secondCalled = true
		return nil
	})

	m.Emit(context.Background(), Payload{Event: EventGatewayStart})
	assert.True(t, secondCalled)
}

func TestManager_Emit_NoHandlers(t *testing.T) {
	m := testManager()
	m.Emit(context.Background(), Payload{Event: EventGatewayStop})
}

func TestManager_EmitAsync(t *testing.T) {
	m := testManager()

	var count atomic.Int32
	m.On(EventCallEnded, "async1", func(_ context.Context, _ Payload) error {
		count.Add(1)
		return nil
	})
	m.On(EventCallEnded, "async2", func(_ context.Context, _ Payload) error {
		count.Add(1)
		return nil
	})

	m.EmitAsync(context.Background(), Payload{Event: EventCallEnded, Conference: "CA1"})

	done := make(chan struct{})
	go func() { m.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handlers did not complete in time")
	}

	assert.Equal(t, int32(2), count.Load())
}

func TestManager_EmitAsync_SurvivesCancel(t *testing.T) {
	m := testManager()

	ctx, cancel := context.WithCancel(context.Background())
	var sawErr atomic.Value
	m.On(EventHumanJoined, "journal", func(ctx context.Context, _ Payload) error {
		sawErr.Store(ctx.Err() == nil)
		return nil
	})

	m.EmitAsync(ctx, Payload{Event: EventHumanJoined})
	cancel()
	m.Wait()
	assert.Equal(t, true, sawErr.Load())
}

func TestCallEvents(t *testing.T) {
	require.Len(t, CallEvents, 6)
	assert.Contains(t, CallEvents, EventCallStarted)
	assert.Contains(t, CallEvents, EventCallEnded)
	assert.NotContains(t, CallEvents, EventGatewayStart)
}
