package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOut(t *testing.T) {
	b := New()
	_, a, cancelA := b.Subscribe()
	_, c, cancelC := b.Subscribe()
	defer cancelA()
	defer cancelC()

	b.Changed(ReasonCaptured, "abc")

	for _, ch := range []<-chan Event{a, c} {
		ev := <-ch
		assert.Equal(t, ReasonCaptured, ev.Reason)
		assert.Equal(t, "abc", ev.ID)
		assert.False(t, ev.At.IsZero())
	}
}

func TestCancelClosesAndUnregisters(t *testing.T) {
	b := New()
	id, ch, cancel := b.Subscribe()
	require.NotEmpty(t, id)
	assert.Equal(t, 1, b.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers())
	_, open := <-ch
	assert.False(t, open)

	b.Changed(ReasonDeleted, "x")
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New()
	_, ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		b.Changed(ReasonUpdated, "")
	}
	assert.Len(t, ch, subscriberBuffer)
}
