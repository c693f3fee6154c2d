// Package metrics keeps in-process counters of signaling events. It
// subscribes to the dispatcher as an observer, so routing logic stays
// free of instrumentation.
package metrics

import (
	"sync"

	"github.com/peermesh/signaling/model"
)

const (
	EventNewConnect   = "new_connect"
	EventNewPeer      = "new_peer"
	EventICECandidate = "ice_candidate"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventRemovePeer   = "remove_peer"
	EventError        = "error"
	EventUnhandled    = "unhandled"
)

type Metrics struct {
	mx     *sync.Mutex
	counts map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		mx:     &sync.Mutex{},
		counts: make(map[string]uint64),
	}
}

func (m *Metrics) inc(event string) {
	m.mx.Lock()
	m.counts[event]++
	m.mx.Unlock()
}

// Snapshot returns a copy of all counters at call time.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mx.Lock()
	defer m.mx.Unlock()

	snap := make(map[string]uint64, len(m.counts))
	for k, v := range m.counts {
		snap[k] = v
	}
	return snap
}

// Notifier implementation.

func (m *Metrics) NewConnect(string)                { m.inc(EventNewConnect) }
func (m *Metrics) NewPeer(string, string)           { m.inc(EventNewPeer) }
func (m *Metrics) ICECandidate(string, string)      { m.inc(EventICECandidate) }
func (m *Metrics) Offer(string, string)             { m.inc(EventOffer) }
func (m *Metrics) Answer(string, string)            { m.inc(EventAnswer) }
func (m *Metrics) RemovePeer(string)                { m.inc(EventRemovePeer) }
func (m *Metrics) Error(string, error)              { m.inc(EventError) }
func (m *Metrics) Unhandled(string, model.Envelope) { m.inc(EventUnhandled) }
