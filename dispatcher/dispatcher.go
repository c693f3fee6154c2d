package dispatcher

import (
	"encoding/json"
	"errors"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/peermesh/signaling/model"
	"github.com/peermesh/signaling/registry"
)

var (
	ErrBadPayload = errors.New("malformed event payload")
	ErrRejected   = errors.New("connection rejected")
)

// Notifier receives internal events emitted alongside signaling traffic.
// Implementations must not block: notifications fire from the message
// handling path. Unhandled is the extension point for event names outside
// the built-in signaling set.
type Notifier interface {
	NewConnect(id string)
	NewPeer(id, room string)
	ICECandidate(from, to string)
	Offer(from, to string)
	Answer(from, to string)
	RemovePeer(id string)
	Unhandled(id string, env model.Envelope)
	Error(id string, err error)
}

// Dispatcher routes signaling envelopes between connections. It holds no
// per-message state; everything lives in the two registries. Registry
// mutation happens under the registries' locks, outbound sends happen
// after the locks are released.
type Dispatcher struct {
	logger    zerolog.Logger
	conns     *registry.Connections
	rooms     *registry.Rooms
	observers []Notifier
}

type Config struct {
	Logger      *zerolog.Logger
	Connections *registry.Connections
	Rooms       *registry.Rooms
}

func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		logger: cfg.Logger.With().Str("component", "dispatcher").Logger(),
		conns:  cfg.Connections,
		rooms:  cfg.Rooms,
	}
}

// Subscribe registers an observer. Not safe to call once the transport
// is accepting connections.
func (d *Dispatcher) Subscribe(n Notifier) {
	d.observers = append(d.observers, n)
}

// Accept assigns an identifier to a new transport session and registers
// it. No signaling traffic is sent; the client must join explicitly.
func (d *Dispatcher) Accept(peer model.Sender) (*model.Connection, error) {
	conn := model.NewConnection(uuid.NewString(), peer)
	if err := d.conns.Add(conn); err != nil {
		// Colliding v4 UUIDs mean the id source is broken, not the client.
		d.logger.Error().Err(err).Str("id", conn.ID()).Msg("identifier collision, rejecting connection")
		return nil, errors.Join(ErrRejected, err)
	}
	d.logger.Debug().Str("id", conn.ID()).Msg("connection accepted")
	for _, o := range d.observers {
		o.NewConnect(conn.ID())
	}
	return conn, nil
}

// HandleMessage decodes one inbound envelope and routes it. Malformed
// messages are dropped without closing the connection.
func (d *Dispatcher) HandleMessage(conn *model.Connection, raw []byte) {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.violation(conn, errors.Join(ErrBadPayload, err))
		return
	}

	switch env.EventName {
	case model.EventJoin:
		d.handleJoin(conn, env.Data)
	case model.EventICECandidate:
		d.handleCandidate(conn, env.Data)
	case model.EventOffer:
		d.handleSession(conn, env.Data, model.EventFwdOffer)
	case model.EventAnswer:
		d.handleSession(conn, env.Data, model.EventFwdAnswer)
	default:
		d.logger.Trace().Str("id", conn.ID()).Msg(spew.Sdump(env))
		for _, o := range d.observers {
			o.Unhandled(conn.ID(), env)
		}
	}
}

func (d *Dispatcher) handleJoin(conn *model.Connection, data json.RawMessage) {
	var join model.JoinData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &join); err != nil {
			d.violation(conn, errors.Join(ErrBadPayload, err))
			return
		}
	}
	room := join.Room
	if room == "" {
		room = model.DefaultRoom
	}

	prev, err := d.rooms.Join(room, conn)
	if err != nil {
		d.violation(conn, err)
		return
	}

	ids := make([]string, 0, len(prev))
	for _, member := range prev {
		ids = append(ids, member.ID())
		d.send(member, model.EventNewPeer, model.PeerData{SocketID: conn.ID()})
	}
	d.send(conn, model.EventPeers, model.PeersData{Connections: ids, You: conn.ID()})

	d.logger.Debug().
		Str("id", conn.ID()).
		Str("room", room).
		Int("peers", len(ids)).
		Msg("joined room")
	for _, o := range d.observers {
		o.NewPeer(conn.ID(), room)
	}
}

func (d *Dispatcher) handleCandidate(conn *model.Connection, data json.RawMessage) {
	var cand model.CandidateData
	if err := json.Unmarshal(data, &cand); err != nil {
		d.violation(conn, errors.Join(ErrBadPayload, err))
		return
	}
	target, err := d.conns.Find(cand.SocketID)
	if err != nil {
		// Target already gone, normal during teardown.
		d.logger.Trace().Str("dst", cand.SocketID).Msg("candidate target not found")
		return
	}
	d.send(target, model.EventFwdCandidate, model.CandidateData{
		SocketID:  conn.ID(),
		Label:     cand.Label,
		Candidate: cand.Candidate,
	})
	for _, o := range d.observers {
		o.ICECandidate(conn.ID(), target.ID())
	}
}

func (d *Dispatcher) handleSession(conn *model.Connection, data json.RawMessage, fwdEvent string) {
	var sess model.SessionData
	if err := json.Unmarshal(data, &sess); err != nil {
		d.violation(conn, errors.Join(ErrBadPayload, err))
		return
	}
	target, err := d.conns.Find(sess.SocketID)
	if err == nil {
		d.send(target, fwdEvent, model.SessionData{SocketID: conn.ID(), SDP: sess.SDP})
	} else {
		d.logger.Trace().Str("dst", sess.SocketID).Str("event", fwdEvent).Msg("session target not found")
	}

	// Offers notify observers even when the target is gone; answers only
	// on delivery. Existing observers depend on this asymmetry.
	switch fwdEvent {
	case model.EventFwdOffer:
		for _, o := range d.observers {
			o.Offer(conn.ID(), sess.SocketID)
		}
	case model.EventFwdAnswer:
		if err == nil {
			for _, o := range d.observers {
				o.Answer(conn.ID(), target.ID())
			}
		}
	}
}

// HandleClose tears down a connection: remaining room members are told
// first, then the registries forget it. Safe to call more than once.
func (d *Dispatcher) HandleClose(conn *model.Connection) {
	remaining := d.rooms.Leave(conn)
	for _, member := range remaining {
		d.send(member, model.EventRemovePeer, model.PeerData{SocketID: conn.ID()})
	}
	if !d.conns.Remove(conn) {
		return
	}
	d.logger.Debug().Str("id", conn.ID()).Msg("connection closed")
	for _, o := range d.observers {
		o.RemovePeer(conn.ID())
	}
}

// Broadcast sends payload to every live connection.
func (d *Dispatcher) Broadcast(payload []byte) {
	for _, conn := range d.conns.All() {
		d.sendRaw(conn, payload)
	}
}

// BroadcastRoom sends payload to every current member of the named room.
// Unknown rooms are a no-op.
func (d *Dispatcher) BroadcastRoom(room string, payload []byte) {
	for _, member := range d.rooms.Members(room) {
		d.sendRaw(member, payload)
	}
}

// RoomNames lists rooms existing at call time.
func (d *Dispatcher) RoomNames() []string {
	return d.rooms.Names()
}

func (d *Dispatcher) send(conn *model.Connection, eventName string, data any) {
	payload, err := model.NewEnvelope(eventName, data)
	if err != nil {
		d.logger.Error().Err(err).Str("event", eventName).Msg("failed to marshal outbound envelope")
		return
	}
	d.sendRaw(conn, payload)
}

// sendRaw delivers one payload, converting transport failures into error
// notifications so a slow or dead peer never aborts a routing loop.
func (d *Dispatcher) sendRaw(conn *model.Connection, payload []byte) {
	if err := conn.Send(payload); err != nil {
		d.logger.Debug().Err(err).Str("dst", conn.ID()).Msg("send failed")
		for _, o := range d.observers {
			o.Error(conn.ID(), err)
		}
	}
}

func (d *Dispatcher) violation(conn *model.Connection, err error) {
	d.logger.Warn().Err(err).Str("id", conn.ID()).Msg("protocol violation, message dropped")
	for _, o := range d.observers {
		o.Error(conn.ID(), err)
	}
}
