package nats

import (
	"testing"
	"time"

	"formchat-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	ev := events.FormSubmitted("r1", "leave", "u1", "s1", at)

	data, err := Encode(ev)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, events.TypeFormSubmitted, got.EventType())
	assert.True(t, at.Equal(got.Timestamp()))
	assert.Equal(t, "r1", got.Payload()["response_id"])
	assert.NotContains(t, got.Payload(), "event_type")
}

func TestDecode_RequiresEventType(t *testing.T) {
	_, err := Decode([]byte(`{"response_id":"r1"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "forms.FORM_SUBMITTED", Subject(events.TypeFormSubmitted))
}
