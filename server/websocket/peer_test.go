package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeer_Send(t *testing.T) {
	p := newPeer()

	require.NoError(t, p.Send([]byte("one")))
	require.NoError(t, p.Send([]byte("two")))

	assert.Equal(t, []byte("one"), <-p.tx)
	assert.Equal(t, []byte("two"), <-p.tx)
}

func TestPeer_Backpressure(t *testing.T) {
	p := newPeer()

	for i := 0; i < defaultSendQueueSize; i++ {
		require.NoError(t, p.Send([]byte("x")))
	}
	assert.ErrorIs(t, p.Send([]byte("overflow")), ErrBackpressure)

	// draining one slot makes room again
	<-p.tx
	assert.NoError(t, p.Send([]byte("x")))
}

func TestPeer_Close(t *testing.T) {
	p := newPeer()
	require.NoError(t, p.Send([]byte("x")))

	p.close()
	p.close() // idempotent

	assert.ErrorIs(t, p.Send([]byte("after close")), ErrClosed)

	// queued frame still drains, then the channel reports closed
	b, ok := <-p.tx
	assert.True(t, ok)
	assert.Equal(t, []byte("x"), b)
	_, ok = <-p.tx
	assert.False(t, ok)
}
