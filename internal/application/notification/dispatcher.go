package notification

import (
	"context"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"
)

const componentDispatcher = "notification_dispatcher"

// Dispatcher delivers synchronously through the sender registered for the
// channel.
type Dispatcher struct {
	senders map[domain.Channel]domain.Sender
	sent    observability.Counter // notifications_sent_total{channel,outcome}
	log     observability.Logger
}

var _ domain.Notifier = (*Dispatcher)(nil)

func NewDispatcher(tel observability.Observability, senders ...domain.Sender) *Dispatcher {
	tel = observability.Or(tel)
	d := &Dispatcher{
		senders: make(map[domain.Channel]domain.Sender, len(senders)),
		sent:    tel.Metrics().Counter(observability.MNotificationsSent),
		log:     tel.Logger().With(observability.F("component", componentDispatcher)),
	}
	for _, s := range senders {
		d.senders[s.Channel()] = s
	}
	return d
}

// Send reports true when the sender accepted the message. Validation and
// unknown channels are errors; a failing sender yields false and its error.
func (d *Dispatcher) Send(ctx context.Context, channel domain.Channel, recipient, message string) (bool, error) {
	if err := validate(recipient, message); err != nil {
		return false, err
	}
	s, ok := d.senders[channel]
	if !ok {
		d.sent.Add(1, observability.L("channel", string(channel)), observability.L("outcome", "unsupported"))
		return false, &domain.UnsupportedChannelError{Channel: string(channel)}
	}

	if err := s.Send(ctx, recipient, message); err != nil {
		d.sent.Add(1, observability.L("channel", string(channel)), observability.L("outcome", "error"))
		logctx.FromOr(ctx, d.log).Warn("notification_send_failed",
			observability.F("channel", string(channel)),
			observability.F("error", err.Error()),
		)
		return false, err
	}
	d.sent.Add(1, observability.L("channel", string(channel)), observability.L("outcome", "success"))
	return true, nil
}

func validate(recipient, message string) error {
	if strings.TrimSpace(recipient) == "" {
		return domain.ErrRecipientRequired
	}
	if strings.TrimSpace(message) == "" {
		return domain.ErrMessageRequired
	}
	return nil
}
