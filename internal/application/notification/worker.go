package notification

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	workerService    = "notification-worker"
	useCaseDelivered = "notification.worker.requested"
)

// Worker consumes notification.requested events and delivers them.
type Worker struct {
	subscriber domoutbox.Subscriber
	dispatcher domain.Notifier
	in         application.Instruments
}

func NewWorker(subscriber domoutbox.Subscriber, dispatcher domain.Notifier, tel observability.Observability) *Worker {
	return &Worker{
		subscriber: subscriber,
		dispatcher: dispatcher,
		in:         application.NewInstruments(tel, workerService),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.dispatcher == nil {
		return
	}
	w.subscriber.Subscribe(domain.RequestedEvent{}.EventName(), w.handleRequested)
}

func (w *Worker) handleRequested(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domain.RequestedEvent)
	if !ok {
		return nil
	}

	ctx, run := w.in.Track(ctx, useCaseDelivered, "DeliverNotification",
		attribute.String("event", e.EventName()),
		attribute.String("notification.channel", string(evt.Channel)),
	)
	defer func() { run.Done(ctx, err) }()
	run.Field("notification_id", evt.ID)

	delivered, err := w.dispatcher.Send(ctx, evt.Channel, evt.Recipient, evt.Message)
	if err != nil {
		run.Fail("DELIVERY_FAILED")
		return fmt.Errorf("notification worker: deliver %s: %w", evt.ID, err)
	}
	if !delivered {
		run.Status("NOT_DELIVERED")
	}
	return nil
}
