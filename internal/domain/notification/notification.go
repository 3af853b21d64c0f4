package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnsupportedChannel = errors.New("notification: unsupported channel")
	ErrRecipientRequired  = errors.New("notification: recipient is required")
	ErrMessageRequired    = errors.New("notification: message is required")
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

type UnsupportedChannelError struct {
	Channel string
}

func (e *UnsupportedChannelError) Error() string {
	return fmt.Sprintf("notification: channel %q is not supported", e.Channel)
}

func (e *UnsupportedChannelError) Is(target error) bool {
	return target == ErrUnsupportedChannel
}

func ParseChannel(name string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(name))); c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return c, nil
	}
	return "", &UnsupportedChannelError{Channel: name}
}

// Sender delivers a message over one channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, recipient, message string) error
}

// Notifier is the dispatch capability consumed by the order workflow. The
// bool reports whether the message was accepted for delivery.
type Notifier interface {
	Send(ctx context.Context, channel Channel, recipient, message string) (bool, error)
}

// RequestedEvent asks the notification worker to deliver a message.
type RequestedEvent struct {
	ID         string
	Channel    Channel
	Recipient  string
	Message    string
	OccurredAt time.Time
}

func (RequestedEvent) EventName() string { return "notification.requested" }

func NewRequestedEvent(id string, channel Channel, recipient, message string) RequestedEvent {
	return RequestedEvent{
		ID:         id,
		Channel:    channel,
		Recipient:  recipient,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
}

func (e RequestedEvent) EventID() string { return e.ID }
