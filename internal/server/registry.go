package server

import (
	"crypto/rand"
	"log/slog"
	"sync"
	"time"
)

// 房間碼格式：固定 6 位小寫英文字母，
// 在當前存活的註冊表內保證唯一。
const (
	roomCodeLength   = 6
	roomCodeAlphabet = "abcdefghijklmnopqrstuvwxyz"
)

// Registry 房間碼到房間控制柄的並發目錄。
//
// 唯一性檢查與寫入必須原子：撞碼重試發生在同一個
// 臨界區內，否則並發建房時 "檢查後再寫入" 會競態。
// 房間終止（done 關閉）時對應的註冊項會被移除。
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*RoomHandle
	logger *slog.Logger
}

// NewRegistry 建立房間註冊表。
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*RoomHandle),
		logger: logger,
	}
}

// CreateRoom 產生唯一房間碼、建立房間並啟動其處理迴圈。
func (reg *Registry) CreateRoom() *RoomHandle {
	reg.mu.Lock()

	var code string
	for {
		code = randomRoomCode()
		if _, exists := reg.rooms[code]; !exists {
			break
		}
	}

	room := newRoom(code, reg.logger)
	handle := &RoomHandle{Code: code, room: room}
	reg.rooms[code] = handle

	reg.mu.Unlock()

	go room.Run()
	go reg.reapWhenDone(code, handle)

	reg.logger.Info("房間已創建", "room_code", code)

	return handle
}

// Lookup 以房間碼查詢控制柄。
func (reg *Registry) Lookup(code string) (*RoomHandle, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	handle, ok := reg.rooms[code]
	return handle, ok
}

// Count 目前存活的房間數。
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Stats 統計資訊，供 /stats 端點使用。
func (reg *Registry) Stats() map[string]any {
	return map[string]any{
		"total_rooms": reg.Count(),
	}
}

// Stop 要求所有存活的房間終止並等待它們收尾完成。
// 服務器優雅關閉時呼叫：WebSocket 連接是被劫持的，
// http.Server.Shutdown 不會替我們關閉它們。
func (reg *Registry) Stop() {
	reg.mu.RLock()
	handles := make([]*RoomHandle, 0, len(reg.rooms))
	for _, h := range reg.rooms {
		handles = append(handles, h)
	}
	reg.mu.RUnlock()

	for _, h := range handles {
		h.Stop()
	}
	for _, h := range handles {
		<-h.Done()
	}

	reg.logger.Info("所有房間已停止", "count", len(handles))
}

// reapWhenDone 等待房間終止後移除註冊項，
// 避免結束的房間永久佔用房間碼與記憶體。
func (reg *Registry) reapWhenDone(code string, handle *RoomHandle) {
	<-handle.Done()

	reg.mu.Lock()
	if current, ok := reg.rooms[code]; ok && current == handle {
		delete(reg.rooms, code)
	}
	reg.mu.Unlock()

	reg.logger.Info("房間已結束，移除註冊項", "room_code", code)
}

// randomRoomCode 產生隨機房間碼。
func randomRoomCode() string {
	b := make([]byte, roomCodeLength)
	if _, err := rand.Read(b); err != nil {
		// 隨機源失敗時以時間戳為備用
		seed := uint64(time.Now().UnixNano())
		for i := range b {
			b[i] = roomCodeAlphabet[(seed>>uint(i*5))%uint64(len(roomCodeAlphabet))]
		}
		return string(b)
	}

	for i := range b {
		b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
	}
	return string(b)
}
