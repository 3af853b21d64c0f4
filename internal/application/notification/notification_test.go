package notification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appnotification "github.com/Zhima-Mochi/minishop-commerce/internal/application/notification"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/id"
	notifsenders "github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/testkit"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSender struct{}

func (failingSender) Channel() domain.Channel { return domain.ChannelSMS }

func (failingSender) Send(context.Context, string, string) error { return errors.New("carrier rejected") }

func TestDispatcher(t *testing.T) {
	rec := testkit.New()
	d := appnotification.NewDispatcher(rec.Tel,
		notifsenders.NewLogSender(domain.ChannelEmail, rec.Tel.Logger()),
		failingSender{},
	)
	ctx := context.Background()

	ok, err := d.Send(ctx, domain.ChannelEmail, "a@b.c", "hello")
	require.NoError(t, err)
	assert.True(t, ok)
	sent := rec.Messages("notification_sent")
	require.Len(t, sent, 1)
	assert.Equal(t, "a@b.c", sent[0].ContextMap()["recipient"])

	ok, err = d.Send(ctx, domain.ChannelSMS, "+55", "hello")
	assert.Error(t, err)
	assert.False(t, ok)

	_, err = d.Send(ctx, domain.ChannelPush, "dev", "hello")
	assert.ErrorIs(t, err, domain.ErrUnsupportedChannel)

	_, err = d.Send(ctx, domain.ChannelEmail, " ", "hello")
	assert.ErrorIs(t, err, domain.ErrRecipientRequired)
	_, err = d.Send(ctx, domain.ChannelEmail, "a@b.c", "")
	assert.ErrorIs(t, err, domain.ErrMessageRequired)

	assert.Equal(t, 1.0, rec.CounterValue("notifications_sent_total", map[string]string{"channel": "email", "outcome": "success"}))
	assert.Equal(t, 1.0, rec.CounterValue("notifications_sent_total", map[string]string{"channel": "sms", "outcome": "error"}))
}

func TestSendNotificationUseCase(t *testing.T) {
	rec := testkit.New()
	d := appnotification.NewDispatcher(rec.Tel, notifsenders.LogSenders(rec.Tel.Logger())...)
	uc := appnotification.NewSendNotificationUseCase(d, rec.Tel)
	ctx := context.Background()

	ok, err := uc.Execute(ctx, appnotification.SendNotificationInput{Channel: "SMS", Recipient: "+5511", Message: "code 1234"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = uc.Execute(ctx, appnotification.SendNotificationInput{Channel: "fax", Recipient: "x", Message: "y"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedChannel)

	_, err = uc.Execute(ctx, appnotification.SendNotificationInput{Channel: "email", Message: "y"})
	assert.ErrorIs(t, err, application.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrRecipientRequired)

	_, err = uc.Execute(ctx, appnotification.SendNotificationInput{Channel: "email", Recipient: "a@b.c", Message: "  "})
	assert.ErrorIs(t, err, application.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrMessageRequired)
}

func TestQueueAndWorkerDeliverThroughBus(t *testing.T) {
	rec := testkit.New()
	bus := outbox.NewBus(rec.Tel)
	d := appnotification.NewDispatcher(rec.Tel, notifsenders.LogSenders(rec.Tel.Logger())...)
	appnotification.NewWorker(bus, d, rec.Tel).Start()
	bus.Start(context.Background())

	q := appnotification.NewQueue(bus, id.NewUUID(), rec.Tel)
	ok, err := q.Send(context.Background(), domain.ChannelPush, "device-1", "your order shipped")
	require.NoError(t, err)
	assert.True(t, ok)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bus.Stop(stopCtx)

	sent := rec.Messages("notification_sent")
	require.Len(t, sent, 1)
	assert.Equal(t, "push", sent[0].ContextMap()["channel"])
	assert.Equal(t, 1.0, rec.CounterValue("events_published_total", map[string]string{"event": "notification.requested", "outcome": "success"}))
	assert.Contains(t, rec.SpanNames(), "UC.DeliverNotification")

	_, err = q.Send(context.Background(), domain.ChannelPush, "device-1", "late")
	assert.ErrorIs(t, err, outbox.ErrStopped)
}

func TestQueue_ValidatesBeforePublishing(t *testing.T) {
	rec := testkit.New()
	bus := outbox.NewBus(rec.Tel)
	q := appnotification.NewQueue(bus, id.NewUUID(), rec.Tel)

	_, err := q.Send(context.Background(), domain.Channel("fax"), "x", "y")
	assert.ErrorIs(t, err, domain.ErrUnsupportedChannel)
	_, err = q.Send(context.Background(), domain.ChannelEmail, "", "y")
	assert.ErrorIs(t, err, domain.ErrRecipientRequired)
	assert.Zero(t, rec.CounterValue("events_published_total", nil))
}
