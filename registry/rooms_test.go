package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peermesh/signaling/model"
)

func memberIDs(members []*model.Connection) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID())
	}
	return ids
}

func TestRooms_JoinReturnsPreviousMembers(t *testing.T) {
	rs := NewRooms()
	a := model.NewConnection("a", nil)
	b := model.NewConnection("b", nil)
	c := model.NewConnection("c", nil)

	prev, err := rs.Join("r1", a)
	require.NoError(t, err)
	assert.Empty(t, prev)

	prev, err = rs.Join("r1", b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, memberIDs(prev))

	prev, err = rs.Join("r1", c)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, memberIDs(prev))

	assert.Equal(t, []string{"a", "b", "c"}, memberIDs(rs.Members("r1")))
	assert.Equal(t, "r1", a.Room())
	assert.Equal(t, "r1", c.Room())
}

func TestRooms_JoinTwiceRejected(t *testing.T) {
	rs := NewRooms()
	a := model.NewConnection("a", nil)

	_, err := rs.Join("r1", a)
	require.NoError(t, err)

	_, err = rs.Join("r2", a)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	// still only a member of the first room
	assert.Equal(t, "r1", a.Room())
	assert.Nil(t, rs.Members("r2"))
	assert.Equal(t, 1, rs.Len())
}

func TestRooms_LeaveReturnsRemaining(t *testing.T) {
	rs := NewRooms()
	a := model.NewConnection("a", nil)
	b := model.NewConnection("b", nil)
	c := model.NewConnection("c", nil)
	for _, conn := range []*model.Connection{a, b, c} {
		_, err := rs.Join("r1", conn)
		require.NoError(t, err)
	}

	remaining := rs.Leave(b)
	assert.Equal(t, []string{"a", "c"}, memberIDs(remaining))
	assert.Empty(t, b.Room())
	assert.Equal(t, []string{"a", "c"}, memberIDs(rs.Members("r1")))

	// second leave of the same connection is a no-op
	assert.Nil(t, rs.Leave(b))
	assert.Equal(t, []string{"a", "c"}, memberIDs(rs.Members("r1")))
}

func TestRooms_ExistsOnlyWhileOccupied(t *testing.T) {
	rs := NewRooms()
	a := model.NewConnection("a", nil)
	b := model.NewConnection("b", nil)

	assert.Empty(t, rs.Names())

	_, err := rs.Join("r1", a)
	require.NoError(t, err)
	_, err = rs.Join("r1", b)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, rs.Names())

	rs.Leave(a)
	assert.Equal(t, []string{"r1"}, rs.Names())

	remaining := rs.Leave(b)
	assert.Nil(t, remaining)
	assert.Empty(t, rs.Names())
	assert.Nil(t, rs.Members("r1"))
}

func TestRooms_SingleRoomInvariant(t *testing.T) {
	rs := NewRooms()
	conns := make([]*model.Connection, 0, 6)
	for i := 0; i < 6; i++ {
		conns = append(conns, model.NewConnection(fmt.Sprintf("c%d", i), nil))
	}
	for i, conn := range conns {
		_, err := rs.Join(fmt.Sprintf("r%d", i%2), conn)
		require.NoError(t, err)
	}

	// every connection's room lists it exactly once, and only that room does
	for _, conn := range conns {
		require.NotEmpty(t, conn.Room())
		seen := 0
		for _, name := range rs.Names() {
			for _, m := range rs.Members(name) {
				if m.ID() == conn.ID() {
					seen++
					assert.Equal(t, conn.Room(), name)
				}
			}
		}
		assert.Equal(t, 1, seen, "connection %s", conn.ID())
	}
}

func TestRooms_ConcurrentJoins(t *testing.T) {
	const n = 64

	rs := NewRooms()
	wg := &sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := rs.Join("r1", model.NewConnection(fmt.Sprintf("c%d", i), nil))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	members := rs.Members("r1")
	require.Len(t, members, n)

	unique := make(map[string]bool)
	for _, m := range members {
		unique[m.ID()] = true
	}
	assert.Len(t, unique, n)
}
