package model

import (
	"encoding/json"
	"sync"
)

// DefaultRoom is used when a join request does not name a room.
const DefaultRoom = "__default"

// Inbound event names. Clients prefix requests with a double underscore.
const (
	EventJoin         = "__join"
	EventICECandidate = "__ice_candidate"
	EventOffer        = "__offer"
	EventAnswer       = "__answer"
)

// Outbound event names. Server-originated messages carry a single
// underscore prefix so clients can tell them apart from their own.
const (
	EventPeers        = "_peers"
	EventNewPeer      = "_new_peer"
	EventFwdCandidate = "_ice_candidate"
	EventFwdOffer     = "_offer"
	EventFwdAnswer    = "_answer"
	EventRemovePeer   = "_remove_peer"
)

// Envelope is the single message unit exchanged over the transport.
// Data shape is keyed by EventName.
type Envelope struct {
	EventName string          `json:"eventName"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type JoinData struct {
	Room string `json:"room,omitempty"`
}

type CandidateData struct {
	SocketID  string          `json:"socketId"`
	Label     json.RawMessage `json:"label,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// SessionData carries an SDP offer or answer. The relay never parses SDP.
type SessionData struct {
	SocketID string          `json:"socketId"`
	SDP      json.RawMessage `json:"sdp,omitempty"`
}

type PeersData struct {
	Connections []string `json:"connections"`
	You         string   `json:"you"`
}

type PeerData struct {
	SocketID string `json:"socketId"`
}

// Sender is the transport handle attached to a connection. Implementations
// must not block: a send that cannot proceed returns an error instead.
type Sender interface {
	Send(payload []byte) error
}

// Connection binds one transport session to its assigned identifier and,
// after a join, its room. It is owned by the connection registry; room
// membership lists hold non-owning references.
type Connection struct {
	id   string
	peer Sender

	mu   sync.Mutex
	room string
}

func NewConnection(id string, peer Sender) *Connection {
	return &Connection{id: id, peer: peer}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Connection) SetRoom(room string) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

func (c *Connection) Send(payload []byte) error {
	return c.peer.Send(payload)
}

// NewEnvelope marshals data and wraps it with the given event name.
func NewEnvelope(eventName string, data any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{EventName: eventName, Data: b})
}
