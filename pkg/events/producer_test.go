package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestRecorderKeepsOrder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.PublishEvent(context.Background(), "orders", "a", 1))
	require.NoError(t, r.PublishEvent(context.Background(), "carts", "b", 2))

	got := r.Events()
	require.Len(t, got, 2)
	assert.Equal(t, Recorded{Topic: "orders", Key: "a", Event: 1}, got[0])
	assert.Equal(t, "carts", got[1].Topic)

	got[0].Key = "changed"
	assert.Equal(t, "a", r.Events()[0].Key)
}
