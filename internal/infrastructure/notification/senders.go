package notification

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"
)

// LogSender "delivers" by writing a structured log line. It stands in for
// an email, SMS or push gateway.
type LogSender struct {
	channel domain.Channel
	log     observability.Logger
}

func NewLogSender(channel domain.Channel, logger observability.Logger) *LogSender {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogSender{
		channel: channel,
		log:     logger.With(observability.F("component", "notification_sender")),
	}
}

// LogSenders returns one sender per known channel.
func LogSenders(logger observability.Logger) []domain.Sender {
	return []domain.Sender{
		NewLogSender(domain.ChannelEmail, logger),
		NewLogSender(domain.ChannelSMS, logger),
		NewLogSender(domain.ChannelPush, logger),
	}
}

func (s *LogSender) Channel() domain.Channel { return s.channel }

func (s *LogSender) Send(ctx context.Context, recipient, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logctx.FromOr(ctx, s.log).Info("notification_sent",
		observability.F("channel", string(s.channel)),
		observability.F("recipient", recipient),
		observability.F("message", message),
	)
	return nil
}
