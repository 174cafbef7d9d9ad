package server

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/koopa0/tileroom/internal/game"
	"github.com/koopa0/tileroom/internal/protocol"
)

// 系統設計問題：
//   多名玩家並發地加入、操作、斷線、重連同一個房間，
//   如何保證回合順序正確、共享盤面一致？
//
// 核心挑戰：
//   1. 回合檢查必須可線性化："是否輪到你" 不能對照過期的狀態
//   2. 加入握手需要同步結果：新連接要拿回自己的手牌快照
//   3. 單一玩家投遞失敗不能拖垮整個房間
//   4. 房間終止（全員斷線 / 獲勝）必須乾淨地收尾
//
// 設計方案：
//   ✅ 單一擁有者 actor：一個 goroutine 獨占房間狀態，全程無鎖
//   ✅ 事件與加入請求走 channel；加入請求夾帶回覆 channel
//   ✅ 事件逐一跑到完成（含其觸發的廣播）才取下一個，結構性保證不交錯
//   ✅ 投遞失敗隔離為該玩家的隱性斷線

// ErrRoomClosed 房間已終止，無法再加入或投遞。
var ErrRoomClosed = errors.New("房間已關閉")

// openingHandSize 開局發牌張數（沿用原始規則資料）。
const openingHandSize = 28

// eventQueueCapacity 房間收件匣的緩衝大小。
const eventQueueCapacity = 64

// clientEvent 讀取迴圈轉發進房間收件匣的事件：
// 訊息加上來源會話的標記。
type clientEvent struct {
	sessionID string
	msg       protocol.ClientMessage
}

// joinRequest 加入握手：需要同步結果，所以夾帶回覆 channel。
type joinRequest struct {
	sessionID string
	name      string
	out       chan protocol.ServerMessage
	reply     chan error
}

// Room 一場獨立的遊戲會話。
//
// 狀態只由 Run 這一個 goroutine 讀寫（mailbox/actor 紀律）；
// 外界透過 RoomHandle 與它互動。
type Room struct {
	code   string
	logger *slog.Logger

	game      *game.Game
	players   []*Player
	sessions  map[string]int // 會話 ID -> 玩家索引（一位玩家同時只有一個活躍會話）
	active    int            // 當前回合的玩家索引
	turnDelta int            // 本回合淨放牌數（放 - 撿）
	started   bool

	joins    chan joinRequest
	events   chan clientEvent
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newRoom(code string, logger *slog.Logger) *Room {
	return &Room{
		code:     code,
		logger:   logger.With("room_code", code),
		game:     game.NewGame(),
		sessions: make(map[string]int),
		joins:    make(chan joinRequest),
		events:   make(chan clientEvent, eventQueueCapacity),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// RoomHandle 房間的控制柄：註冊表保存它、連接會話透過它
// 與房間的處理迴圈通信。所有方法都以 done 保底，
// 不會在房間終止後永久阻塞。
type RoomHandle struct {
	Code string
	room *Room
}

// Join 加入握手：在房間迴圈安裝玩家（或回收斷線玩家的索引）
// 後才返回。out 是這個連接的外送佇列，由呼叫端建立並持有讀取端。
func (h *RoomHandle) Join(sessionID, name string, out chan protocol.ServerMessage) error {
	req := joinRequest{
		sessionID: sessionID,
		name:      name,
		out:       out,
		reply:     make(chan error, 1),
	}

	select {
	case h.room.joins <- req:
	case <-h.room.done:
		return ErrRoomClosed
	}

	select {
	case err := <-req.reply:
		return err
	case <-h.room.done:
		// 房間可能在送出回覆後才終止，回覆有緩衝不會遺失
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrRoomClosed
		}
	}
}

// Deliver 把一則已標記來源的客戶端訊息送進房間收件匣。
// 房間已終止時靜默丟棄。
func (h *RoomHandle) Deliver(sessionID string, msg protocol.ClientMessage) {
	select {
	case h.room.events <- clientEvent{sessionID: sessionID, msg: msg}:
	case <-h.room.done:
	}
}

// Done 房間終止時關閉。
func (h *RoomHandle) Done() <-chan struct{} {
	return h.room.done
}

// Stop 要求房間終止（服務器關閉時由註冊表呼叫）。
// 冪等；終止完成以 Done 為準。
func (h *RoomHandle) Stop() {
	h.room.stopOnce.Do(func() {
		close(h.room.stop)
	})
}

// Run 房間的處理迴圈：串行地取出並處理加入請求與客戶端事件。
// 迴圈返回即房間終止（全員斷線或有人獲勝）。
func (r *Room) Run() {
	r.logger.Info("房間迴圈啟動")
	defer r.shutdown()

	for {
		select {
		case req := <-r.joins:
			req.reply <- r.addPlayer(req)
		case ev := <-r.events:
			if !r.handleEvent(ev) {
				return
			}
		case <-r.stop:
			r.logger.Info("房間被要求停止")
			return
		}

		// 投遞失敗的隱性斷線也可能清空房間
		if len(r.players) > 0 && r.allDisconnected() {
			r.logger.Info("所有玩家都已斷線，房間終止")
			return
		}
	}
}

// shutdown 收尾：關閉所有外送佇列讓寫入迴圈沖刷後結束，
// 再關閉 done 通知註冊表與會話。
func (r *Room) shutdown() {
	for _, p := range r.players {
		close(p.out)
	}
	close(r.done)
	r.logger.Info("房間迴圈結束")
}

// addPlayer 加入握手，在讀寫迴圈啟動前由 Join 觸發執行一次。
//
// 同名且目前斷線的玩家走重連路徑：回收原本的索引
// （索引就是回合順位，不能變），換上新的外送佇列。
// 其他情況建立新玩家並發開局手牌。
func (r *Room) addPlayer(req joinRequest) error {
	if idx, ok := r.findDisconnected(req.name); ok {
		r.reconnectPlayer(idx, req)
		return nil
	}

	if r.started {
		// 資訊性訊號：遊戲已開始，但照樣讓新玩家加入
		req.out <- protocol.GameAlreadyStarted(r.code)
	}

	hand := r.game.Deal(openingHandSize)

	// 先向既有玩家廣播，再掛上新玩家
	r.broadcast(protocol.PlayerJoined(req.name))

	p := &Player{
		Name:      req.name,
		Hand:      game.NewHand(hand),
		Connected: true,
		out:       req.out,
	}
	r.players = append(r.players, p)
	idx := len(r.players) - 1
	r.sessions[req.sessionID] = idx

	r.send(idx, protocol.JoinedRoom(r.snapshot(p)))

	r.logger.Info("玩家加入",
		"player", req.name,
		"index", idx,
		"hand_size", p.Hand.Count(),
		"pieces_remaining", r.game.Remaining())

	return nil
}

// reconnectPlayer 重連：丟棄過期的會話映射、換新佇列、
// 補發快照與當前回合，再向全房廣播。
func (r *Room) reconnectPlayer(idx int, req joinRequest) {
	for sid, i := range r.sessions {
		if i == idx {
			delete(r.sessions, sid)
		}
	}
	r.sessions[req.sessionID] = idx

	p := r.players[idx]
	p.Connected = true
	p.out = req.out

	r.send(idx, protocol.JoinedRoom(r.snapshot(p)))
	r.send(idx, protocol.CurrentPlayer(r.active))
	r.broadcast(protocol.PlayerReconnected(idx))

	r.logger.Info("玩家重連", "player", p.Name, "index", idx)
}

// findDisconnected 找到同名且目前斷線的玩家索引。
func (r *Room) findDisconnected(name string) (int, bool) {
	for i, p := range r.players {
		if p.Name == name && !p.Connected {
			return i, true
		}
	}
	return 0, false
}

// snapshot 以某位玩家的視角建立 joined_room 酬載。
func (r *Room) snapshot(p *Player) protocol.RoomSnapshot {
	names := make([]string, len(r.players))
	for i, player := range r.players {
		names[i] = player.Name
	}

	return protocol.RoomSnapshot{
		RoomName:        r.code,
		Players:         names,
		Hand:            p.Hand.Pieces(),
		PiecesRemaining: r.game.Remaining(),
		Board:           r.game.Board(),
	}
}

// handleEvent 處理一則客戶端事件；回傳 false 代表房間終止（獲勝）。
func (r *Room) handleEvent(ev clientEvent) bool {
	idx, ok := r.sessions[ev.sessionID]
	if !ok {
		r.logger.Warn("來自未知會話的訊息，忽略", "session_id", ev.sessionID, "type", ev.msg.Type)
		return true
	}

	switch ev.msg.Type {
	case protocol.ClientPing:
		r.send(idx, protocol.Pong())
	case protocol.ClientClose:
		r.handleClose(idx, ev.sessionID)
	case protocol.ClientReady:
		r.handleReady(idx)
	case protocol.ClientPickup:
		r.handlePickup(idx, *ev.msg.Coord, *ev.msg.Piece)
	case protocol.ClientPlace:
		r.handlePlace(idx, *ev.msg.Coord, *ev.msg.Piece)
	case protocol.ClientEndTurn:
		return r.handleEndTurn(idx)
	default:
		r.logger.Warn("房間內不接受的訊息類型，忽略", "type", ev.msg.Type)
	}

	return true
}

// handleClose 讀取迴圈結束時合成的斷線事件。
func (r *Room) handleClose(idx int, sessionID string) {
	delete(r.sessions, sessionID)
	r.logger.Info("玩家斷線", "player", r.players[idx].Name, "index", idx)
	r.disconnect(idx)
}

// handleReady 玩家宣告就緒：標記遊戲開始並向全房廣播。
func (r *Room) handleReady(idx int) {
	r.logger.Info("玩家就緒", "player", r.players[idx].Name)
	if !r.started {
		r.started = true
		r.broadcast(protocol.StartGame())
	}
}

// handlePickup 從盤面撿回一張牌到手上。
func (r *Room) handlePickup(idx int, c game.Coord, p game.Piece) {
	if idx != r.active {
		r.logger.Warn("非當前回合玩家的撿牌，忽略", "player", r.players[idx].Name)
		return
	}

	held, ok := r.game.Remove(c)
	if !ok || held != p {
		// 客戶端宣稱的牌與盤面不符：容忍並記錄，不視為致命
		r.logger.Warn("撿牌與盤面不符",
			"coord", c, "claimed", p, "held", held, "occupied", ok)
	}

	r.players[idx].Hand.Add(p)
	r.turnDelta--
	r.started = true

	r.broadcast(protocol.Pickup(c, p))
}

// handlePlace 從手上放一張牌到盤面。
func (r *Room) handlePlace(idx int, c game.Coord, p game.Piece) {
	if idx != r.active {
		r.logger.Warn("非當前回合玩家的放牌，忽略", "player", r.players[idx].Name)
		return
	}

	if occupied := r.game.Place(c, p); occupied {
		// 客戶端應該先確認座標為空；發生即邏輯錯誤
		r.logger.Warn("放牌覆蓋了已佔用的座標", "coord", c, "piece", p)
	}
	if !r.players[idx].Hand.Remove(p) {
		r.logger.Warn("玩家打出未持有的牌", "player", r.players[idx].Name, "piece", p)
	}

	r.turnDelta++
	r.started = true

	r.broadcast(protocol.Place(c, p))
}

// handleEndTurn 結束回合；回傳 false 代表有人獲勝、房間終止。
func (r *Room) handleEndTurn(idx int) bool {
	if idx != r.active {
		r.logger.Warn("非當前回合玩家要求結束回合，忽略", "player", r.players[idx].Name)
		return true
	}

	valid, groups := r.game.IsValidBoard()
	r.logger.Debug("盤面驗證", "valid", valid, "groups", len(groups), "turn_delta", r.turnDelta)

	if !valid {
		// 只回覆操作者；回合不前進、狀態不提交
		r.send(idx, protocol.InvalidBoardState())
		return true
	}

	r.started = true
	p := r.players[idx]

	// 本回合沒有淨放牌就欠一張抽牌；牌組空了就直接結束回合
	drew := r.turnDelta == 0
	if drew {
		if piece, ok := r.game.DealOne(); ok {
			p.Hand.Add(piece)
			r.send(idx, protocol.DrawPiece(piece))
		} else {
			drew = false
		}
	}

	if !drew && p.Hand.Count() == 0 {
		r.logger.Info("玩家獲勝", "player", p.Name)
		r.broadcast(protocol.PlayerWon(p.Name))
		return false
	}

	r.send(idx, protocol.EndTurnValid())
	r.turnDelta = 0
	r.advanceActive()
	r.send(r.active, protocol.StartTurn())
	r.broadcast(protocol.TurnFinished(r.turnSummary(p.Name, drew)))

	r.logger.Info("回合結束",
		"ending_player", p.Name,
		"ending_drew", drew,
		"next_player", r.active,
		"hand_size", p.Hand.Count())

	return true
}

// disconnect 把玩家標記為斷線並處理後果：
// 廣播斷線、必要時把回合強制推進到下一位連線中的玩家。
// 隱性斷線（投遞失敗）與讀取迴圈的 Close 都走這裡。
func (r *Room) disconnect(idx int) {
	p := r.players[idx]
	if !p.Connected {
		return
	}
	p.Connected = false

	for sid, i := range r.sessions {
		if i == idx {
			delete(r.sessions, sid)
		}
	}

	r.broadcast(protocol.PlayerDisconnected(idx))

	// 全員斷線由 Run 迴圈統一收尾
	if r.allDisconnected() {
		return
	}

	if r.active == idx {
		// 強制結束這個回合：沒有抽牌
		r.advanceActive()
		r.send(r.active, protocol.StartTurn())
		r.broadcast(protocol.TurnFinished(r.turnSummary(p.Name, false)))
	}
}

// advanceActive 推進到下一位連線中的玩家（環狀、跳過斷線者），
// 最多繞一圈。只在至少一人連線時呼叫。
func (r *Room) advanceActive() {
	for i := 0; i < len(r.players); i++ {
		r.active = (r.active + 1) % len(r.players)
		if r.players[r.active].Connected {
			return
		}
	}
}

func (r *Room) allDisconnected() bool {
	for _, p := range r.players {
		if p.Connected {
			return false
		}
	}
	return true
}

// turnSummary 建立 turn_finished 酬載。
func (r *Room) turnSummary(endingPlayer string, drew bool) protocol.TurnSummary {
	return protocol.TurnSummary{
		EndingPlayer:    endingPlayer,
		EndingDrew:      drew,
		NextPlayer:      r.active,
		PiecesRemaining: r.game.Remaining(),
		Board:           r.game.Board(),
	}
}

// send 向單一玩家投遞；非阻塞，失敗即隱性斷線。
//
// 投遞失敗必須隔離到該玩家：標記斷線、廣播、繼續服務
// 其他人，絕不中斷房間迴圈。
func (r *Room) send(idx int, msg protocol.ServerMessage) {
	p := r.players[idx]
	if !p.Connected {
		return
	}

	select {
	case p.out <- msg:
	default:
		r.logger.Warn("玩家外送佇列已滿，視為斷線", "player", p.Name, "index", idx)
		r.disconnect(idx)
	}
}

// broadcast 向所有連線中的玩家投遞同一則訊息。
func (r *Room) broadcast(msg protocol.ServerMessage) {
	for i := range r.players {
		r.send(i, msg)
	}
}
