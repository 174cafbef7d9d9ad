package game

import "sort"

// Hand 一名玩家的手牌：Piece -> 張數 的計數表。
//
// 同花色同數字的牌在牌組中各有兩份，所以手牌允許重複，
// 用計數而不是集合表示。手牌只會被該玩家的回合操作與抽牌修改，
// 修改全部發生在房間的單一處理迴圈內，不需要額外同步。
type Hand map[Piece]int

// NewHand 以發到的牌建立手牌。
func NewHand(pieces []Piece) Hand {
	h := make(Hand, len(pieces))
	for _, p := range pieces {
		h[p]++
	}
	return h
}

// Add 加入一張牌。
func (h Hand) Add(p Piece) {
	h[p]++
}

// Remove 移除一張牌，回傳是否真的持有這張牌。
func (h Hand) Remove(p Piece) bool {
	if h[p] <= 0 {
		return false
	}
	h[p]--
	if h[p] == 0 {
		delete(h, p)
	}
	return true
}

// Count 手牌總張數。
func (h Hand) Count() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Pieces 以全序（先花色後數字）展開手牌，用於快照序列化。
func (h Hand) Pieces() []Piece {
	pieces := make([]Piece, 0, h.Count())
	for p, n := range h {
		for i := 0; i < n; i++ {
			pieces = append(pieces, p)
		}
	}

	sort.Slice(pieces, func(i, j int) bool {
		return pieces[i].Less(pieces[j])
	})

	return pieces
}
