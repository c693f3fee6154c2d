package registry

import (
	"errors"
	"sync"

	"github.com/peermesh/signaling/model"
)

var (
	ErrDuplicateID = errors.New("connection id already registered")
	ErrNotFound    = errors.New("connection is not found")
)

// Connections tracks every live connection by id. It owns connection
// lifetime; room membership lists only borrow references.
type Connections struct {
	mx *sync.Mutex
	db map[string]*model.Connection
}

func NewConnections() *Connections {
	return &Connections{
		mx: &sync.Mutex{},
		db: make(map[string]*model.Connection),
	}
}

// Add registers a connection. A duplicate id means identifier generation
// is broken, so the insert is refused rather than overwritten.
func (cs *Connections) Add(conn *model.Connection) error {
	cs.mx.Lock()
	defer cs.mx.Unlock()

	if _, ok := cs.db[conn.ID()]; ok {
		return ErrDuplicateID
	}
	cs.db[conn.ID()] = conn
	return nil
}

// Remove deletes a connection and reports whether it was present.
// Removing an absent connection is a no-op so disconnect cleanup stays
// idempotent.
func (cs *Connections) Remove(conn *model.Connection) bool {
	cs.mx.Lock()
	defer cs.mx.Unlock()

	if _, ok := cs.db[conn.ID()]; !ok {
		return false
	}
	delete(cs.db, conn.ID())
	return true
}

func (cs *Connections) Find(id string) (*model.Connection, error) {
	cs.mx.Lock()
	defer cs.mx.Unlock()

	conn, ok := cs.db[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conn, nil
}

// All returns a snapshot of every live connection, in no particular order.
func (cs *Connections) All() []*model.Connection {
	cs.mx.Lock()
	defer cs.mx.Unlock()

	conns := make([]*model.Connection, 0, len(cs.db))
	for _, conn := range cs.db {
		conns = append(conns, conn)
	}
	return conns
}

func (cs *Connections) Len() int {
	cs.mx.Lock()
	defer cs.mx.Unlock()
	return len(cs.db)
}
