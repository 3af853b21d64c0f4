package notification_test

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	for in, want := range map[string]notification.Channel{
		"email": notification.ChannelEmail,
		"SMS":   notification.ChannelSMS,
		" Push": notification.ChannelPush,
	} {
		got, err := notification.ParseChannel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := notification.ParseChannel("fax")
	assert.ErrorIs(t, err, notification.ErrUnsupportedChannel)
}

func TestRequestedEvent(t *testing.T) {
	e := notification.NewRequestedEvent("n1", notification.ChannelEmail, "a@b.c", "hi")
	assert.Equal(t, "notification.requested", e.EventName())
	assert.Equal(t, "n1", e.EventID())
	assert.False(t, e.OccurredAt.IsZero())
}
