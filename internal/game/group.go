package game

// Group 盤面掃描出的一段連續牌（候選的順子或同數組合）。
// 只在驗證時暫時存在，不會持久化。
type Group []Piece

// firstNonJoker 回傳第一張非鬼牌的索引；全是鬼牌時回傳 -1。
func (g Group) firstNonJoker() int {
	for i, p := range g {
		if !p.IsJoker() {
			return i
		}
	}
	return -1
}

// IsValid 一段牌是否構成合法的組合。
//
// 規則：長度必須 >= 3，且構成下列其中之一：
//   - 順子（run）：同花色、數字連續遞增 1
//   - 同數組（combo）：同數字、花色互不重複
//
// 鬼牌在兩種組合中都是萬用牌：順子裡補一個數字缺口，
// 同數組裡無條件接受。
func (g Group) IsValid() bool {
	if len(g) < 3 {
		return false
	}
	return g.isValidRun() || g.isValidCombo()
}

// isValidRun 檢查順子。
//
// 從第一張非鬼牌取得基準花色與數字，之後每張非鬼牌
// 必須同花色且數字恰好比期望值大 1；鬼牌一樣讓期望值前進一格，
// 但不檢查花色。第一張非鬼牌之後全是鬼牌（或沒有後續）時直接通過。
func (g Group) isValidRun() bool {
	first := g.firstNonJoker()
	if first == -1 || first == len(g)-1 {
		return true
	}

	checkColor := g[first].Color
	expect := g[first].Number

	for _, p := range g[first+1:] {
		if p.IsJoker() {
			expect++
			continue
		}
		if p.Color != checkColor || p.Number != expect+1 {
			return false
		}
		expect++
	}

	return true
}

// isValidCombo 檢查同數組。
//
// 基準數字取自第一張非鬼牌（鬼牌帶的是哨兵數字，不能當基準）。
// 之後每張非鬼牌必須同數字、且花色未在組內出現過。
func (g Group) isValidCombo() bool {
	first := g.firstNonJoker()
	if first == -1 || first == len(g)-1 {
		return true
	}

	checkNumber := g[first].Number
	var seen [4]bool
	seen[g[first].Color] = true

	for _, p := range g[first+1:] {
		if p.IsJoker() {
			continue
		}
		if p.Number != checkNumber || seen[p.Color] {
			return false
		}
		seen[p.Color] = true
	}

	return true
}
