package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/koopa0/tileroom/internal/protocol"
)

// 系統設計問題：
//   如何把一條網路連接橋接到房間的處理迴圈？
//
// 設計方案：
//   ✅ 每條連接一讀一寫兩個迴圈（讀寫各自獨占 socket 的一端）
//   ✅ 讀迴圈：解碼、標記來源會話、轉發進房間收件匣；
//      讀迴圈結束即權威斷線訊號（合成 close 事件）
//   ✅ 寫迴圈：按序沖刷玩家外送佇列；傳輸失敗只結束自己，
//      不另行通知房間（交給讀迴圈的 close）
//   ✅ 控制幀心跳（54s Ping / 60s 讀取期限）偵測死連接

const (
	// writeWait 單次寫入的期限。
	writeWait = 10 * time.Second

	// pongWait 讀取期限：超過這段時間沒有任何訊息（含 Pong）就斷線。
	pongWait = 60 * time.Second

	// pingPeriod Ping 間隔，必須小於 pongWait。
	pingPeriod = 54 * time.Second

	// maxMessageSize 單則訊息的大小上限。
	maxMessageSize = 4096
)

// SessionHandler 接受 WebSocket 連接並為每條連接運行一個會話。
type SessionHandler struct {
	registry *Registry
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewSessionHandler 建立連接會話處理器。
func NewSessionHandler(registry *Registry, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 生產環境應檢查來源
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeWS 升級連接並運行會話直到連接結束。
func (h *SessionHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("升級 WebSocket 失敗", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	h.runSession(conn, r.RemoteAddr)
}

// runSession 一條連接的完整生命週期：
// 先在未入房階段等到 create_room / join_room，
// 完成加入握手拿到外送佇列後，才啟動讀寫迴圈。
func (h *SessionHandler) runSession(conn *websocket.Conn, remoteAddr string) {
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := h.logger.With("session_id", sessionID, "remote_addr", remoteAddr)

	conn.SetReadLimit(maxMessageSize)

	handle, playerName, ok := h.awaitRoom(conn, logger)
	if !ok {
		return
	}

	out := make(chan protocol.ServerMessage, outboundCapacity)
	if err := handle.Join(sessionID, playerName, out); err != nil {
		logger.Warn("加入房間失敗", "room_code", handle.Code, "error", err)
		return
	}

	logger = logger.With("room_code", handle.Code, "player", playerName)
	logger.Info("會話開始")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(conn, out, logger)
	}()

	h.readPump(conn, handle, sessionID, logger)

	// 讀迴圈結束是權威的斷線訊號
	handle.Deliver(sessionID, protocol.ClientMessage{Type: protocol.ClientClose})

	conn.Close()
	wg.Wait()

	logger.Info("會話結束")
}

// awaitRoom 未入房階段：回應 ping、等待建房或加房。
// 協議錯誤或查無房間碼都直接結束連接。
func (h *SessionHandler) awaitRoom(conn *websocket.Conn, logger *slog.Logger) (*RoomHandle, string, bool) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Error("設置讀取期限失敗", "error", err)
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, "", false
		}

		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			logger.Warn("協議錯誤，終止連接", "error", err)
			return nil, "", false
		}

		switch msg.Type {
		case protocol.ClientPing:
			if !h.writeInline(conn, protocol.Pong(), logger) {
				return nil, "", false
			}
		case protocol.ClientCreateRoom:
			return h.registry.CreateRoom(), msg.PlayerName, true
		case protocol.ClientJoinRoom:
			handle, ok := h.registry.Lookup(msg.RoomCode)
			if !ok {
				logger.Warn("找不到房間", "room_code", msg.RoomCode)
				return nil, "", false
			}
			return handle, msg.PlayerName, true
		default:
			logger.Warn("尚未加入房間，不接受的訊息類型", "type", msg.Type)
			return nil, "", false
		}
	}
}

// writeInline 未入房階段的直接回覆（此時寫迴圈尚未啟動）。
func (h *SessionHandler) writeInline(conn *websocket.Conn, msg protocol.ServerMessage, logger *slog.Logger) bool {
	data, err := msg.Encode()
	if err != nil {
		logger.Error("序列化服務器訊息失敗", "error", err)
		return false
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		logger.Error("設置寫入期限失敗", "error", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return false
	}
	return true
}

// readPump 讀取、解碼、標記、轉發，直到連接結束。
//
// 客戶端主動的 close 與協議錯誤都讓迴圈返回，
// 由 runSession 統一合成斷線事件。
func (h *SessionHandler) readPump(conn *websocket.Conn, handle *RoomHandle, sessionID string, logger *slog.Logger) {
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Error("設置讀取期限失敗", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("讀取連接失敗", "error", err)
			}
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Error("設置讀取期限失敗", "error", err)
		}

		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			// 協議錯誤：終止連接，不嘗試重新同步
			logger.Warn("協議錯誤，終止連接", "error", err)
			return
		}

		switch msg.Type {
		case protocol.ClientClose:
			return
		case protocol.ClientCreateRoom, protocol.ClientJoinRoom:
			logger.Warn("已在房間內，不接受的訊息類型", "type", msg.Type)
			return
		default:
			handle.Deliver(sessionID, msg)
		}
	}
}

// writePump 按序沖刷外送佇列並維持心跳。
//
// 佇列被房間關閉（房間終止）時送出關閉幀後返回；
// 傳輸失敗只結束寫迴圈，斷線通知交給讀迴圈。
func (h *SessionHandler) writePump(conn *websocket.Conn, out <-chan protocol.ServerMessage, logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-out:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("設置寫入期限失敗", "error", err)
			}
			if !ok {
				// 房間已終止，優雅關閉連接
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := msg.Encode()
			if err != nil {
				logger.Error("序列化服務器訊息失敗", "type", msg.Type, "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("設置寫入期限失敗", "error", err)
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
