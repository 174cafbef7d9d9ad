package server

import (
	"github.com/koopa0/tileroom/internal/game"
	"github.com/koopa0/tileroom/internal/protocol"
)

// outboundCapacity 每位玩家外送佇列的容量。
//
// 房間迴圈對佇列只做非阻塞投遞：佇列滿代表寫入端
// 已經跟不上（或連接早已死亡），視為隱性斷線處理，
// 絕不讓單一玩家拖住整個房間。
const outboundCapacity = 64

// Player 房間內的一名參與者。
//
// 身分就是加入順序的索引：索引同時是回合順位，
// 房間存活期間同名玩家的索引永不改變（重連時回收原索引）。
// 欄位只由房間的處理迴圈讀寫。
type Player struct {
	Name      string
	Hand      game.Hand
	Connected bool

	// out 目前連接的外送佇列；重連時整個換新，
	// 舊佇列隨舊連接的寫入迴圈一起消亡。
	out chan protocol.ServerMessage
}
