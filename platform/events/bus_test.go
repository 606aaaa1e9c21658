package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"inmova_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

type otherEvent struct {
	BaseEvent
}

func (otherEvent) EventName() string { return "test.other" }

func TestInMemoryBusPublishRunsHandlersAfterCancel(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	var calls atomic.Int32
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, _ Event) error {
		if ctx.Err() != nil {
			t.Errorf("handler context should not inherit cancellation: %v", ctx.Err())
		}
		calls.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestInMemoryBusPublishSwallowsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		return errors.New("boom")
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		panic("kaboom")
	}))

	done := make(chan struct{})
	go func() {
		bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
		bus.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish did not complete")
	}
}

func TestInMemoryBusPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	errA := errors.New("a")
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return errA }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return nil }))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, errA) {
		t.Fatalf("expected joined error to contain errA, got %v", err)
	}

	if err := bus.PublishSync(context.Background(), otherEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
