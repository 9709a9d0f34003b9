package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/alert-mesh-relay/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	rec := domain.DispatchRecord{
		AlertType:    "missiles",
		Localities:   []string{"שדרות", "אשקלון"},
		Zones:        []int{6},
		Channels:     []int{6},
		Message:      "🚨missiles - \"היכנסו למרחב המוגן\"",
		DispatchedAt: now,
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("missiles"), msg.Key)
	assert.Contains(t, string(msg.Value), `"alert_type":"missiles"`)
	assert.Contains(t, string(msg.Value), `"zones":[6]`)
	assert.Contains(t, string(msg.Value), `"suppressed":false`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "alert_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("missiles"), msg.Headers[0].Value)
	assert.Equal(t, "dispatched_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_OmitsEmptyFields(t *testing.T) {
	rec := domain.DispatchRecord{
		AlertType:    "missiles",
		Suppressed:   true,
		Reason:       "no_zones",
		DispatchedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	body := string(msg.Value)
	assert.Contains(t, body, `"reason":"no_zones"`)
	assert.NotContains(t, body, "failed_channels")
	assert.NotContains(t, body, `"message"`)
	assert.NotContains(t, body, `"channels"`)
}
