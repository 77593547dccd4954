package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/metacoord/pkg/event"
)

func TestEventConversion(t *testing.T) {
	ev := event.New("/nodes/compute/worker_id/instance-1", "5", event.Updated)

	got, err := ToEvent(FromEvent(ev))
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestToEventRejectsMalformed(t *testing.T) {
	_, err := ToEvent(NewKeyValue("", "x"))
	assert.Error(t, err)

	s := NewKeyValue("/a", "x")
	s.Fields[FieldType] = structpb.NewStringValue("RENAMED")
	_, err = ToEvent(s)
	assert.Error(t, err)
}

func TestKeyValue(t *testing.T) {
	key, value := KeyValue(NewKeyValue("/props", "a: b"))
	assert.Equal(t, "/props", key)
	assert.Equal(t, "a: b", value)

	key, value = KeyValue(nil)
	assert.Empty(t, key)
	assert.Empty(t, value)
}
