package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peermesh/signaling/model"
)

type mockCore struct {
	mu    sync.Mutex
	rooms []string
	sends map[string][][]byte
}

func newMockCore(rooms ...string) *mockCore {
	return &mockCore{rooms: rooms, sends: make(map[string][][]byte)}
}

func (m *mockCore) RoomNames() []string { return m.rooms }

func (m *mockCore) BroadcastRoom(room string, payload []byte) {
	m.mu.Lock()
	m.sends[room] = append(m.sends[room], payload)
	m.mu.Unlock()
}

func newTestServer(core SignalingCore) *Server {
	logger := zerolog.Nop()
	return NewServer(Config{
		Logger:     &logger,
		Core:       core,
		ListenAddr: ":0",
	})
}

func TestServer_ListRooms(t *testing.T) {
	srv := newTestServer(newMockCore("r1", "r2"))

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/rooms", nil))

	require.Equal(t, 200, rec.Code)
	var resp GenericResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []any{"r1", "r2"}, resp.Data)
}

func TestServer_Announce(t *testing.T) {
	core := newMockCore("r1")
	srv := newTestServer(core)

	body := `{"eventName":"_announce","data":{"motd":"maintenance at noon"}}`
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/room/r1/announce", strings.NewReader(body)))

	require.Equal(t, 200, rec.Code)
	require.Len(t, core.sends["r1"], 1)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(core.sends["r1"][0], &env))
	assert.Equal(t, "_announce", env.EventName)
	assert.JSONEq(t, `{"motd":"maintenance at noon"}`, string(env.Data))
}

func TestServer_AnnounceBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{{{`},
		{name: "missing event name", body: `{"data":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := newMockCore("r1")
			srv := newTestServer(core)

			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/room/r1/announce", strings.NewReader(tt.body)))

			assert.Equal(t, 400, rec.Code)
			assert.Empty(t, core.sends["r1"])
		})
	}
}
