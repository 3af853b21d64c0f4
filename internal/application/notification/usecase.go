package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	notificationService = "notification-service"
	useCaseSend         = "notification.send"
)

type SendNotificationInput struct {
	Channel   string
	Recipient string
	Message   string
}

// SendNotificationUseCase sends one message through the named channel.
type SendNotificationUseCase struct {
	notifier domain.Notifier
	in       application.Instruments
}

func NewSendNotificationUseCase(notifier domain.Notifier, tel observability.Observability) *SendNotificationUseCase {
	return &SendNotificationUseCase{notifier: notifier, in: application.NewInstruments(tel, notificationService)}
}

func (uc *SendNotificationUseCase) Execute(ctx context.Context, cmd SendNotificationInput) (_ bool, err error) {
	ctx, run := uc.in.Track(ctx, useCaseSend, "SendNotification",
		attribute.String("notification.channel", cmd.Channel),
	)
	defer func() { run.Done(ctx, err) }()

	channel, err := domain.ParseChannel(cmd.Channel)
	if err != nil {
		run.Fail("UNSUPPORTED_CHANNEL")
		return false, err
	}
	ok, err := uc.notifier.Send(ctx, channel, cmd.Recipient, cmd.Message)
	switch {
	case errors.Is(err, domain.ErrRecipientRequired), errors.Is(err, domain.ErrMessageRequired):
		run.Fail("VALIDATION_FAILED")
		return false, fmt.Errorf("%w: %w", application.ErrValidation, err)
	case err != nil:
		run.Fail("SEND_FAILED")
		return false, err
	case !ok:
		run.Status("NOT_SENT")
	}
	return ok, nil
}
