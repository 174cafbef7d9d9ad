// Package protocol 定義客戶端與服務器之間的線上訊息。
//
// 每個 WebSocket 文字幀承載一則訊息，以 type 欄位標記種類
// （封閉的和型別：兩端都對已知種類做窮舉比對）。
// 未知種類或缺少必要欄位視為協議錯誤，由呼叫端直接斷線，
// 不嘗試重新同步。
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/koopa0/tileroom/internal/game"
)

// ClientType 客戶端訊息種類。
type ClientType string

const (
	ClientCreateRoom ClientType = "create_room"
	ClientJoinRoom   ClientType = "join_room"
	ClientReady      ClientType = "ready"
	ClientPickup     ClientType = "pickup"
	ClientPlace      ClientType = "place"
	ClientEndTurn    ClientType = "end_turn"
	ClientPing       ClientType = "ping"
	ClientClose      ClientType = "close"
)

// ClientMessage 客戶端訊息：type 決定哪些欄位必填。
type ClientMessage struct {
	Type       ClientType  `json:"type"`
	PlayerName string      `json:"player_name,omitempty"`
	RoomCode   string      `json:"room_code,omitempty"`
	Coord      *game.Coord `json:"coord,omitempty"`
	Piece      *game.Piece `json:"piece,omitempty"`
}

// ParseClientMessage 嚴格解析一則客戶端訊息。
//
// 拒絕三種情況：無法解析的 JSON、未知的欄位或訊息種類、
// 以及該種類缺少必要欄位。任何錯誤都應視為協議錯誤。
func ParseClientMessage(data []byte) (ClientMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var msg ClientMessage
	if err := dec.Decode(&msg); err != nil {
		return ClientMessage{}, fmt.Errorf("無法解析客戶端訊息: %w", err)
	}

	switch msg.Type {
	case ClientCreateRoom, ClientReady:
		if msg.PlayerName == "" {
			return ClientMessage{}, fmt.Errorf("%s 訊息缺少 player_name", msg.Type)
		}
	case ClientJoinRoom:
		if msg.PlayerName == "" || msg.RoomCode == "" {
			return ClientMessage{}, fmt.Errorf("%s 訊息缺少 player_name 或 room_code", msg.Type)
		}
	case ClientPickup, ClientPlace:
		if msg.Coord == nil || msg.Piece == nil {
			return ClientMessage{}, fmt.Errorf("%s 訊息缺少 coord 或 piece", msg.Type)
		}
	case ClientEndTurn, ClientPing, ClientClose:
		// 無酬載
	default:
		return ClientMessage{}, fmt.Errorf("未知的訊息類型: %q", msg.Type)
	}

	return msg, nil
}

// ServerType 服務器訊息種類。
type ServerType string

const (
	ServerJoinedRoom         ServerType = "joined_room"
	ServerStartGame          ServerType = "start_game"
	ServerStartTurn          ServerType = "start_turn"
	ServerCurrentPlayer      ServerType = "current_player"
	ServerPlayerJoined       ServerType = "player_joined"
	ServerPlayerDisconnected ServerType = "player_disconnected"
	ServerPlayerReconnected  ServerType = "player_reconnected"
	ServerGameAlreadyStarted ServerType = "game_already_started"
	ServerDrawPiece          ServerType = "draw_piece"
	ServerTurnFinished       ServerType = "turn_finished"
	ServerPlayerWon          ServerType = "player_won"
	ServerEndTurnValid       ServerType = "end_turn_valid"
	ServerPickup             ServerType = "pickup"
	ServerPlace              ServerType = "place"
	ServerInvalidBoardState  ServerType = "invalid_board_state"
	ServerPong               ServerType = "pong"
)

// ServerMessage 服務器訊息封包：type 加上該種類的酬載。
type ServerMessage struct {
	Type ServerType `json:"type"`
	Data any        `json:"data,omitempty"`
}

// Encode 序列化成一個文字幀的內容。
func (m ServerMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("無法序列化服務器訊息 %s: %w", m.Type, err)
	}
	return data, nil
}

// RoomSnapshot joined_room 的酬載：加入者視角的完整房間狀態。
type RoomSnapshot struct {
	RoomName        string                    `json:"room_name"`
	Players         []string                  `json:"players"`
	Hand            []game.Piece              `json:"hand"`
	PiecesRemaining int                       `json:"pieces_remaining"`
	Board           map[game.Coord]game.Piece `json:"board"`
}

// TurnSummary turn_finished 的酬載：一個回合結束後的房間視圖。
type TurnSummary struct {
	EndingPlayer    string                    `json:"ending_player"`
	EndingDrew      bool                      `json:"ending_drew"`
	NextPlayer      int                       `json:"next_player"`
	PiecesRemaining int                       `json:"pieces_remaining"`
	Board           map[game.Coord]game.Piece `json:"board"`
}

// Placement pickup 與 place 廣播的酬載。
type Placement struct {
	Coord game.Coord `json:"coord"`
	Piece game.Piece `json:"piece"`
}

func JoinedRoom(snapshot RoomSnapshot) ServerMessage {
	return ServerMessage{Type: ServerJoinedRoom, Data: snapshot}
}

func StartGame() ServerMessage {
	return ServerMessage{Type: ServerStartGame}
}

func StartTurn() ServerMessage {
	return ServerMessage{Type: ServerStartTurn}
}

func CurrentPlayer(index int) ServerMessage {
	return ServerMessage{Type: ServerCurrentPlayer, Data: index}
}

func PlayerJoined(name string) ServerMessage {
	return ServerMessage{Type: ServerPlayerJoined, Data: name}
}

func PlayerDisconnected(index int) ServerMessage {
	return ServerMessage{Type: ServerPlayerDisconnected, Data: index}
}

func PlayerReconnected(index int) ServerMessage {
	return ServerMessage{Type: ServerPlayerReconnected, Data: index}
}

func GameAlreadyStarted(roomName string) ServerMessage {
	return ServerMessage{Type: ServerGameAlreadyStarted, Data: roomName}
}

func DrawPiece(p game.Piece) ServerMessage {
	return ServerMessage{Type: ServerDrawPiece, Data: p}
}

func TurnFinished(summary TurnSummary) ServerMessage {
	return ServerMessage{Type: ServerTurnFinished, Data: summary}
}

func PlayerWon(name string) ServerMessage {
	return ServerMessage{Type: ServerPlayerWon, Data: name}
}

func EndTurnValid() ServerMessage {
	return ServerMessage{Type: ServerEndTurnValid}
}

func Pickup(c game.Coord, p game.Piece) ServerMessage {
	return ServerMessage{Type: ServerPickup, Data: Placement{Coord: c, Piece: p}}
}

func Place(c game.Coord, p game.Piece) ServerMessage {
	return ServerMessage{Type: ServerPlace, Data: Placement{Coord: c, Piece: p}}
}

func InvalidBoardState() ServerMessage {
	return ServerMessage{Type: ServerInvalidBoardState}
}

func Pong() ServerMessage {
	return ServerMessage{Type: ServerPong}
}
