package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/koopa0/tileroom/internal/game"
	"github.com/koopa0/tileroom/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseClientMessage 測試客戶端訊息的嚴格解析：
// 每個種類的必要欄位、未知種類與未知欄位都要被拒絕
func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, msg protocol.ClientMessage)
	}{
		{
			name:  "建房訊息",
			input: `{"type":"create_room","player_name":"alice"}`,
			check: func(t *testing.T, msg protocol.ClientMessage) {
				assert.Equal(t, protocol.ClientCreateRoom, msg.Type)
				assert.Equal(t, "alice", msg.PlayerName)
			},
		},
		{
			name:  "加房訊息",
			input: `{"type":"join_room","player_name":"bob","room_code":"abcdef"}`,
			check: func(t *testing.T, msg protocol.ClientMessage) {
				assert.Equal(t, protocol.ClientJoinRoom, msg.Type)
				assert.Equal(t, "abcdef", msg.RoomCode)
			},
		},
		{
			name:  "放牌訊息帶座標字串與牌",
			input: `{"type":"place","coord":"(10,8)","piece":{"color":"yellow","number":2}}`,
			check: func(t *testing.T, msg protocol.ClientMessage) {
				require.NotNil(t, msg.Coord)
				assert.Equal(t, game.Coord{X: 10, Y: 8}, *msg.Coord)
				require.NotNil(t, msg.Piece)
				assert.Equal(t, game.NewPiece(game.Yellow, 2), *msg.Piece)
			},
		},
		{
			name:  "撿牌訊息",
			input: `{"type":"pickup","coord":"(-1,3)","piece":{"color":"red","number":13}}`,
			check: func(t *testing.T, msg protocol.ClientMessage) {
				assert.Equal(t, game.Coord{X: -1, Y: 3}, *msg.Coord)
			},
		},
		{
			name:  "無酬載訊息",
			input: `{"type":"end_turn"}`,
			check: func(t *testing.T, msg protocol.ClientMessage) {
				assert.Equal(t, protocol.ClientEndTurn, msg.Type)
			},
		},
		{
			name:  "心跳",
			input: `{"type":"ping"}`,
		},
		{
			name:    "未知訊息種類",
			input:   `{"type":"teleport"}`,
			wantErr: true,
		},
		{
			name:    "未知欄位",
			input:   `{"type":"ping","extra":1}`,
			wantErr: true,
		},
		{
			name:    "建房缺玩家名",
			input:   `{"type":"create_room"}`,
			wantErr: true,
		},
		{
			name:    "加房缺房間碼",
			input:   `{"type":"join_room","player_name":"bob"}`,
			wantErr: true,
		},
		{
			name:    "放牌缺座標",
			input:   `{"type":"place","piece":{"color":"red","number":5}}`,
			wantErr: true,
		},
		{
			name:    "撿牌缺牌",
			input:   `{"type":"pickup","coord":"(0,0)"}`,
			wantErr: true,
		},
		{
			name:    "座標格式錯誤",
			input:   `{"type":"place","coord":"1,2","piece":{"color":"red","number":5}}`,
			wantErr: true,
		},
		{
			name:    "未知的顏色",
			input:   `{"type":"place","coord":"(0,0)","piece":{"color":"green","number":5}}`,
			wantErr: true,
		},
		{
			name:    "非 JSON",
			input:   `not json`,
			wantErr: true,
		},
		{
			name:    "空訊息",
			input:   `{}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := protocol.ParseClientMessage([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, msg)
			}
		})
	}
}

// TestServerMessage_Encode 測試服務器訊息的封包格式：
// type 標記加酬載，盤面以 "(x,y)" 為 key
func TestServerMessage_Encode(t *testing.T) {
	t.Run("房間快照", func(t *testing.T) {
		msg := protocol.JoinedRoom(protocol.RoomSnapshot{
			RoomName:        "abcdef",
			Players:         []string{"alice", "bob"},
			Hand:            []game.Piece{game.NewPiece(game.Red, 5)},
			PiecesRemaining: 48,
			Board: map[game.Coord]game.Piece{
				{X: 10, Y: 8}: game.NewPiece(game.Yellow, 2),
			},
		})

		data, err := msg.Encode()
		require.NoError(t, err)

		var decoded struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "joined_room", decoded.Type)

		var snapshot protocol.RoomSnapshot
		require.NoError(t, json.Unmarshal(decoded.Data, &snapshot))
		assert.Equal(t, "abcdef", snapshot.RoomName)
		assert.Equal(t, 48, snapshot.PiecesRemaining)
		assert.Equal(t, game.NewPiece(game.Yellow, 2),
			snapshot.Board[game.Coord{X: 10, Y: 8}])

		assert.Contains(t, string(decoded.Data), `"(10,8)"`)
	})

	t.Run("回合總結", func(t *testing.T) {
		msg := protocol.TurnFinished(protocol.TurnSummary{
			EndingPlayer:    "alice",
			EndingDrew:      true,
			NextPlayer:      1,
			PiecesRemaining: 47,
			Board:           map[game.Coord]game.Piece{},
		})

		data, err := msg.Encode()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"ending_drew":true`)
		assert.Contains(t, string(data), `"next_player":1`)
	})

	t.Run("放牌廣播", func(t *testing.T) {
		msg := protocol.Place(game.Coord{X: 1, Y: 2}, game.NewPiece(game.Black, 13))
		data, err := msg.Encode()
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"type":"place","data":{"coord":"(1,2)","piece":{"color":"black","number":13}}}`,
			string(data))
	})

	t.Run("無酬載訊息省略 data", func(t *testing.T) {
		data, err := protocol.EndTurnValid().Encode()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"end_turn_valid"}`, string(data))

		data, err = protocol.Pong().Encode()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"pong"}`, string(data))
	})

	t.Run("索引酬載", func(t *testing.T) {
		data, err := protocol.PlayerDisconnected(2).Encode()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"player_disconnected","data":2}`, string(data))
	})
}
