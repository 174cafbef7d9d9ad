package server_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/tileroom/internal/game"
	"github.com/koopa0/tileroom/internal/protocol"
	"github.com/koopa0/tileroom/internal/server"
)

// envelope 測試端解碼用的服務器訊息封包。
type envelope struct {
	Type protocol.ServerType `json:"type"`
	Data json.RawMessage     `json:"data"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	registry := server.NewRegistry(logger)
	sessions := server.NewSessionHandler(registry, logger)
	handler := server.NewHandler(registry, logger)

	mux := http.NewServeMux()
	mux.Handle("/", handler.Routes())
	mux.HandleFunc("GET /ws", sessions.ServeWS)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

// expectType 讀下一則訊息並斷言種類。
func expectType(t *testing.T, conn *websocket.Conn, want protocol.ServerType) envelope {
	t.Helper()
	env := readEnvelope(t, conn)
	require.Equal(t, want, env.Type)
	return env
}

// TestSession_PingBeforeJoin 測試未入房階段的心跳
func TestSession_PingBeforeJoin(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	sendJSON(t, conn, `{"type":"ping"}`)
	expectType(t, conn, protocol.ServerPong)
}

// TestSession_ProtocolErrorCloses 測試協議錯誤直接終止連接
func TestSession_ProtocolErrorCloses(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "未知種類", payload: `{"type":"teleport"}`},
		{name: "未知欄位", payload: `{"type":"ping","x":1}`},
		{name: "入房前不接受遊戲操作", payload: `{"type":"end_turn"}`},
		{name: "查無房間碼", payload: `{"type":"join_room","player_name":"bob","room_code":"zzzzzz"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			conn := dialWS(t, srv)

			sendJSON(t, conn, tt.payload)

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			_, _, err := conn.ReadMessage()
			assert.Error(t, err, "服務器應終止連接")
		})
	}
}

// TestSession_CreateAndJoin 測試建房、加房與一個完整回合的訊息流
func TestSession_CreateAndJoin(t *testing.T) {
	srv := newTestServer(t)

	// alice 建房
	alice := dialWS(t, srv)
	sendJSON(t, alice, `{"type":"create_room","player_name":"alice"}`)

	env := expectType(t, alice, protocol.ServerJoinedRoom)
	var snapshot protocol.RoomSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, []string{"alice"}, snapshot.Players)
	assert.Len(t, snapshot.Hand, 28)
	assert.Equal(t, 76, snapshot.PiecesRemaining)
	require.Len(t, snapshot.RoomName, 6)

	// bob 用房間碼加入
	bob := dialWS(t, srv)
	sendJSON(t, bob, `{"type":"join_room","player_name":"bob","room_code":"`+snapshot.RoomName+`"}`)

	env = expectType(t, bob, protocol.ServerJoinedRoom)
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, []string{"alice", "bob"}, snapshot.Players)

	env = expectType(t, alice, protocol.ServerPlayerJoined)
	var joined string
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	assert.Equal(t, "bob", joined)

	// 已在房間內不接受再次建房，連接被終止
	sendJSON(t, bob, `{"type":"create_room","player_name":"bob"}`)
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err)
}

// TestSession_FullTurn 測試放牌、結束回合、回合推進的完整訊息序列
func TestSession_FullTurn(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv)
	sendJSON(t, alice, `{"type":"create_room","player_name":"alice"}`)
	env := expectType(t, alice, protocol.ServerJoinedRoom)

	var snapshot protocol.RoomSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))

	bob := dialWS(t, srv)
	sendJSON(t, bob, `{"type":"join_room","player_name":"bob","room_code":"`+snapshot.RoomName+`"}`)
	expectType(t, bob, protocol.ServerJoinedRoom)
	expectType(t, alice, protocol.ServerPlayerJoined)

	sendJSON(t, alice, `{"type":"place","coord":"(0,0)","piece":{"color":"red","number":5}}`)
	sendJSON(t, alice, `{"type":"place","coord":"(1,0)","piece":{"color":"blue","number":5}}`)
	sendJSON(t, alice, `{"type":"place","coord":"(2,0)","piece":{"color":"black","number":5}}`)
	sendJSON(t, alice, `{"type":"end_turn"}`)

	// 操作者視角：三次放牌廣播、end_turn_valid、turn_finished
	for i := 0; i < 3; i++ {
		env = expectType(t, alice, protocol.ServerPlace)
		var placement protocol.Placement
		require.NoError(t, json.Unmarshal(env.Data, &placement))
		assert.Equal(t, game.Coord{X: i, Y: 0}, placement.Coord)
	}
	expectType(t, alice, protocol.ServerEndTurnValid)
	env = expectType(t, alice, protocol.ServerTurnFinished)

	var summary protocol.TurnSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "alice", summary.EndingPlayer)
	assert.False(t, summary.EndingDrew)
	assert.Equal(t, 1, summary.NextPlayer)
	assert.Len(t, summary.Board, 3)

	// 下一位玩家視角：放牌廣播、start_turn、turn_finished
	for i := 0; i < 3; i++ {
		expectType(t, bob, protocol.ServerPlace)
	}
	expectType(t, bob, protocol.ServerStartTurn)
	expectType(t, bob, protocol.ServerTurnFinished)
}

// TestSession_HealthAndStats 測試 HTTP 端點
func TestSession_HealthAndStats(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Contains(t, stats, "total_rooms")
}
