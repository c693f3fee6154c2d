package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peermesh/signaling/model"
)

func TestConnections_AddFind(t *testing.T) {
	cs := NewConnections()
	conn := model.NewConnection("c1", nil)

	require.NoError(t, cs.Add(conn))

	got, err := cs.Find("c1")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	_, err = cs.Find("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnections_DuplicateID(t *testing.T) {
	cs := NewConnections()
	require.NoError(t, cs.Add(model.NewConnection("c1", nil)))

	err := cs.Add(model.NewConnection("c1", nil))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, cs.Len())
}

func TestConnections_RemoveIdempotent(t *testing.T) {
	cs := NewConnections()
	conn := model.NewConnection("c1", nil)
	require.NoError(t, cs.Add(conn))

	assert.True(t, cs.Remove(conn))
	assert.False(t, cs.Remove(conn))
	assert.Equal(t, 0, cs.Len())

	_, err := cs.Find("c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnections_All(t *testing.T) {
	cs := NewConnections()
	require.NoError(t, cs.Add(model.NewConnection("c1", nil)))
	require.NoError(t, cs.Add(model.NewConnection("c2", nil)))
	require.NoError(t, cs.Add(model.NewConnection("c3", nil)))

	ids := make(map[string]bool)
	for _, conn := range cs.All() {
		ids[conn.ID()] = true
	}
	assert.Equal(t, map[string]bool{"c1": true, "c2": true, "c3": true}, ids)
}
