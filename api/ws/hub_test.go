package ws_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PokemonFusion/Fusion2-sub001/api/ws"
	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/config"
	"github.com/PokemonFusion/Fusion2-sub001/game/battle"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	mw "github.com/PokemonFusion/Fusion2-sub001/middleware"
	"github.com/PokemonFusion/Fusion2-sub001/storage"
	"github.com/PokemonFusion/Fusion2-sub001/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var sec = config.SecurityConfig{JWTSecret: "ws-test-secret", JWTTTLH: time.Hour}

type env struct {
	t        *testing.T
	cache    cache.Cache
	registry *session.Registry
	hub      *ws.Hub
	url      string
}

func newEnv(t *testing.T) *env {
	c := testutil.SetupTestCache(t)
	registry := session.NewRegistry(nil, nil)
	hub := ws.NewHub(registry, sec, nil)

	r := gin.New()
	r.GET("/ws", mw.Auth(sec, c), hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})
	return &env{
		t:        t,
		cache:    c,
		registry: registry,
		hub:      hub,
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (e *env) dial(identity string) *websocket.Conn {
	tok, err := mw.IssueToken(context.Background(), sec, e.cache, identity)
	require.NoError(e.t, err)
	conn, _, err := websocket.DefaultDialer.Dial(e.url+"?token="+tok, nil)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { conn.Close() })
	require.Eventually(e.t, func() bool {
		_, ok := e.hub.Resolve(identity)
		return ok
	}, time.Second, 5*time.Millisecond)
	return conn
}

func (e *env) startPVP(room string) *session.Session {
	dex := battle.DefaultDex()
	s, err := session.NewSession(storage.NewCacheRoom(e.cache, room, 0), session.Config{
		Battle:    battle.Config{Dex: dex, RNG: rand.New(rand.NewSource(3))},
		Directory: e.hub,
		Registry:  e.registry,
	})
	require.NoError(e.t, err)
	require.NoError(e.t, s.StartPVP(context.Background(),
		session.Side{Name: "Ash", Player: "ash", Creatures: []*battle.Creature{
			battle.NewCreature(dex, "Pikachu", 50, "Thunder Shock"),
		}},
		session.Side{Name: "Gary", Player: "gary", Creatures: []*battle.Creature{
			battle.NewCreature(dex, "Rattata", 5, "Tackle"),
		}},
	))
	return s
}

func send(t *testing.T, conn *websocket.Conn, seq uint64, typ string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ws.Packet{Seq: seq, Type: typ, Payload: raw}))
}

// expect reads packets until one of type typ arrives.
func expect(t *testing.T, conn *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var pkt ws.Packet
		require.NoError(t, conn.ReadJSON(&pkt), "waiting for %s", typ)
		if pkt.Type != typ {
			continue
		}
		out := map[string]interface{}{}
		if len(pkt.Payload) > 0 {
			require.NoError(t, json.Unmarshal(pkt.Payload, &out))
		}
		return out
	}
}

// expectMessage reads battle messages until one contains sub.
func expectMessage(t *testing.T, conn *websocket.Conn, sub string) {
	t.Helper()
	for {
		p := expect(t, conn, ws.TypeMessage)
		if strings.Contains(p["text"].(string), sub) {
			return
		}
	}
}

func TestHub_EnterAndNotify(t *testing.T) {
	e := newEnv(t)
	conn := e.dial("ash")

	send(t, conn, 1, "enter", map[string]string{"room": "gym"})
	expect(t, conn, ws.TypeOK)

	assert.Equal(t, 0, session.Notify(e.hub, "route-1", []string{"ash"}, "elsewhere"))
	assert.Equal(t, 1, session.Notify(e.hub, "gym", []string{"ash", "nobody"}, "hello"))
	assert.Equal(t, "hello", expect(t, conn, ws.TypeMessage)["text"])
}

func TestHub_Quiet(t *testing.T) {
	e := newEnv(t)
	conn := e.dial("ash")

	send(t, conn, 1, "enter", map[string]string{"room": "gym"})
	expect(t, conn, ws.TypeOK)
	send(t, conn, 2, "quiet", map[string]bool{"on": true})
	expect(t, conn, ws.TypeOK)

	assert.Equal(t, 0, session.Notify(e.hub, "gym", []string{"ash"}, "muted"))
}

func TestHub_UnknownAndReplayedPackets(t *testing.T) {
	e := newEnv(t)
	conn := e.dial("ash")

	send(t, conn, 5, "dance", map[string]string{})
	assert.Equal(t, "unknown message type: dance", expect(t, conn, ws.TypeError)["error"])

	// seq 5 again is dropped; seq 6 is answered.
	send(t, conn, 5, "enter", map[string]string{"room": "a"})
	send(t, conn, 6, "enter", map[string]string{"room": "b"})
	assert.EqualValues(t, 6, expect(t, conn, ws.TypeOK)["seq"])
	assert.Equal(t, "b", e.hub.Client("ash").Location())
}

func TestHub_BattleCommands(t *testing.T) {
	e := newEnv(t)
	ash := e.dial("ash")
	send(t, ash, 1, "enter", map[string]string{"room": "gym"})
	expect(t, ash, ws.TypeOK)

	s := e.startPVP("gym")
	expectMessage(t, ash, "The battle between Ash and Gary has begun!")

	send(t, ash, 2, "battle.move", map[string]string{"battle": s.ID(), "move": "Surf"})
	assert.Equal(t, "No such move: Surf.", expect(t, ash, ws.TypeError)["error"])

	send(t, ash, 3, "battle.run", map[string]string{"battle": "missing"})
	assert.Equal(t, "No such battle.", expect(t, ash, ws.TypeError)["error"])

	send(t, ash, 4, "battle.move", map[string]string{"battle": s.ID(), "move": "Thunder Shock"})
	expect(t, ash, ws.TypeOK)
	expectMessage(t, ash, "Waiting on Gary")
}

func TestHub_WatchFromSocket(t *testing.T) {
	e := newEnv(t)
	s := e.startPVP("gym")
	misty := e.dial("misty")

	send(t, misty, 1, "battle.watch", map[string]string{"battle": s.ID()})
	assert.Equal(t, s.ID(), expect(t, misty, ws.TypeAttached)["battle"])
	expect(t, misty, ws.TypeOK)
	assert.True(t, s.Involves("misty"))

	send(t, misty, 2, "battle.watch", map[string]string{"battle": s.ID()})
	expect(t, misty, ws.TypeError)

	send(t, misty, 3, "battle.unwatch", map[string]string{"battle": s.ID()})
	expect(t, misty, ws.TypeOK)
	assert.False(t, s.Involves("misty"))
}

func TestHub_ConnectAttachesToLiveBattle(t *testing.T) {
	e := newEnv(t)
	s := e.startPVP("gym")

	gary := e.dial("gary")
	assert.Equal(t, s.ID(), expect(t, gary, ws.TypeAttached)["battle"])
	c := e.hub.Client("gary")
	require.NotNil(t, c)
	assert.Equal(t, "gym", c.Location())
	assert.Equal(t, []string{s.ID()}, c.Battles())

	assert.Equal(t, 1, e.registry.Rebuild(e.hub))
}

func TestHub_DisconnectAndReplace(t *testing.T) {
	e := newEnv(t)
	first := e.dial("ash")
	old := e.hub.Client("ash")
	e.dial("ash")

	assert.Eventually(t, old.IsClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, e.hub.Count())
	_ = first

	e.hub.CloseAll()
	assert.Zero(t, e.hub.Count())
	_, ok := e.hub.Resolve("ash")
	assert.False(t, ok)
}

func TestHub_HandlerContextCarriesTrace(t *testing.T) {
	e := newEnv(t)
	traces := make(chan string, 2)
	e.hub.Router().On("trace", func(ctx context.Context, c *ws.Client, _ json.RawMessage) error {
		traces <- mw.TraceIDFromContext(ctx)
		return nil
	})
	conn := e.dial("ash")

	send(t, conn, 1, "trace", nil)
	expect(t, conn, ws.TypeOK)
	send(t, conn, 2, "trace", nil)
	expect(t, conn, ws.TypeOK)

	first, second := <-traces, <-traces
	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}
