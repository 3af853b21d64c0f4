package notification

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

const (
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Queue hands messages to the event bus; the Worker delivers them later.
// Send returning true means enqueued, not delivered.
type Queue struct {
	publisher domoutbox.Publisher
	idGen     application.IDGenerator

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

var _ domain.Notifier = (*Queue)(nil)

func NewQueue(publisher domoutbox.Publisher, idGen application.IDGenerator, tel observability.Observability) *Queue {
	m := observability.Or(tel).Metrics()
	return &Queue{
		publisher:    publisher,
		idGen:        idGen,
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (q *Queue) Send(ctx context.Context, channel domain.Channel, recipient, message string) (bool, error) {
	if err := validate(recipient, message); err != nil {
		return false, err
	}
	if _, err := domain.ParseChannel(string(channel)); err != nil {
		return false, err
	}

	evt := domain.NewRequestedEvent(q.idGen.NewID(), channel, recipient, message)
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	err := q.publisher.Publish(pubCtx, evt)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	q.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", evt.EventName()),
		observability.L("outcome", outcome),
	)
	q.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", evt.EventName()),
	)
	if err != nil {
		return false, err
	}
	return true, nil
}
