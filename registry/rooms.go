package registry

import (
	"errors"
	"sync"

	"github.com/peermesh/signaling/model"
)

var ErrAlreadyInRoom = errors.New("connection already belongs to a room")

// Rooms maps room names to their member lists, ordered by join time.
// A room exists iff it has at least one member: rooms are created lazily
// on first join and deleted the moment the last member leaves.
type Rooms struct {
	mx *sync.Mutex
	db map[string][]*model.Connection
}

func NewRooms() *Rooms {
	return &Rooms{
		mx: &sync.Mutex{},
		db: make(map[string][]*model.Connection),
	}
}

// Join appends conn to the named room, creating it if absent, and returns
// a snapshot of the members present before the join. A connection may
// join once for its lifetime; a second join is refused with
// ErrAlreadyInRoom rather than silently re-homed.
func (rs *Rooms) Join(room string, conn *model.Connection) ([]*model.Connection, error) {
	rs.mx.Lock()
	defer rs.mx.Unlock()

	if conn.Room() != "" {
		return nil, ErrAlreadyInRoom
	}
	members := rs.db[room]
	prev := make([]*model.Connection, len(members))
	copy(prev, members)

	rs.db[room] = append(members, conn)
	conn.SetRoom(room)
	return prev, nil
}

// Leave removes conn from its room and returns a snapshot of the members
// that remain. If conn has no room this is a no-op returning nil. The
// room entry is dropped as soon as its member list becomes empty.
func (rs *Rooms) Leave(conn *model.Connection) []*model.Connection {
	rs.mx.Lock()
	defer rs.mx.Unlock()

	room := conn.Room()
	if room == "" {
		return nil
	}
	members := rs.db[room]
	for i, m := range members {
		if m.ID() == conn.ID() {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	conn.SetRoom("")
	if len(members) == 0 {
		delete(rs.db, room)
		return nil
	}
	rs.db[room] = members

	remaining := make([]*model.Connection, len(members))
	copy(remaining, members)
	return remaining
}

// Members returns a snapshot of the named room's member list in join
// order, or nil if the room does not exist.
func (rs *Rooms) Members(room string) []*model.Connection {
	rs.mx.Lock()
	defer rs.mx.Unlock()

	members, ok := rs.db[room]
	if !ok {
		return nil
	}
	snap := make([]*model.Connection, len(members))
	copy(snap, members)
	return snap
}

// Names returns the names of all rooms existing at call time.
func (rs *Rooms) Names() []string {
	rs.mx.Lock()
	defer rs.mx.Unlock()

	names := make([]string, 0, len(rs.db))
	for name := range rs.db {
		names = append(names, name)
	}
	return names
}

func (rs *Rooms) Len() int {
	rs.mx.Lock()
	defer rs.mx.Unlock()
	return len(rs.db)
}
