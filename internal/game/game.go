package game

// 系統設計問題：
//   如何在玩家任意擺放、撿回牌之後，判定整個盤面是否合法？
//
// 核心挑戰：
//   1. 盤面是稀疏的：以座標為 key 的映射，沒有固定大小
//   2. 分組規則是幾何的：同一列相鄰的牌構成一組，空格切開
//   3. 鬼牌是萬用的：補數字缺口、不限花色
//   4. 驗證是回合結束的唯一依據：必須是單一事實來源
//
// 設計方案：
//   ✅ 先算佔用範圍（bounding box），空盤面直接合法
//   ✅ 由上而下掃列、由左而右掃欄，連續佔用累積成 Group
//   ✅ 每個 Group 獨立驗證（見 group.go），全部合法盤面才合法
//   ✅ 回傳分組結果供診斷與測試使用

// Game 一個房間的純遊戲狀態：盤面加牌組。
//
// 沒有任何 I/O、沒有任何鎖：所有修改都由房間的
// 單一處理迴圈串行執行（mailbox/actor 紀律，見 internal/server）。
//
// 守恆不變式：牌組剩餘 + 所有手牌 + 盤面張數
// 在房間存活期間恆等於初始牌組大小。
type Game struct {
	board map[Coord]Piece
	deck  *Deck
}

// NewGame 建立新局：空盤面、洗好的 104 張牌組。
func NewGame() *Game {
	return &Game{
		board: make(map[Coord]Piece),
		deck:  NewDeck(),
	}
}

// Place 在座標放上一張牌，回傳該座標原本是否已被佔用。
// 覆蓋既有的牌是客戶端的邏輯錯誤，由呼叫端記錄。
func (g *Game) Place(c Coord, p Piece) (occupied bool) {
	_, occupied = g.board[c]
	g.board[c] = p
	return occupied
}

// Remove 從座標移除牌，回傳被移除的牌與該座標是否有牌。
func (g *Game) Remove(c Coord) (Piece, bool) {
	p, ok := g.board[c]
	if ok {
		delete(g.board, c)
	}
	return p, ok
}

// PieceAt 查詢座標上的牌。
func (g *Game) PieceAt(c Coord) (Piece, bool) {
	p, ok := g.board[c]
	return p, ok
}

// Board 盤面的複本，用於快照序列化（避免把內部 map 交給呼叫端）。
func (g *Game) Board() map[Coord]Piece {
	board := make(map[Coord]Piece, len(g.board))
	for c, p := range g.board {
		board[c] = p
	}
	return board
}

// BoardSize 盤面上的牌數。
func (g *Game) BoardSize() int {
	return len(g.board)
}

// Deal 從牌組發最多 n 張牌。
func (g *Game) Deal(n int) []Piece {
	return g.deck.Deal(n)
}

// DealOne 從牌組發一張牌；牌組已空時回報 false。
func (g *Game) DealOne() (Piece, bool) {
	return g.deck.DealOne()
}

// Remaining 牌組剩餘張數。
func (g *Game) Remaining() int {
	return g.deck.Len()
}

// IsValidBoard 驗證整個盤面，回傳是否合法與分組結果。
//
// 這是回合能否結束的單一事實來源：掃描以列為主
// （row-major），同一列中連續佔用的座標累積成一個 Group，
// 遇到空格或列尾就關閉當前的 Group。空盤面直接合法。
func (g *Game) IsValidBoard() (bool, []Group) {
	if len(g.board) == 0 {
		return true, nil
	}

	minX, minY, maxX, maxY := g.bounds()

	var groups []Group
	var current Group

	for y := minY; y <= maxY; y++ {
		// 換列時關閉上一列殘留的組
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}

		for x := minX; x <= maxX; x++ {
			if piece, ok := g.board[Coord{X: x, Y: y}]; ok {
				current = append(current, piece)
			} else if len(current) > 0 {
				groups = append(groups, current)
				current = nil
			}
		}
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	for _, group := range groups {
		if !group.IsValid() {
			return false, groups
		}
	}

	return true, groups
}

// bounds 佔用座標的包圍盒；呼叫端保證盤面非空。
func (g *Game) bounds() (minX, minY, maxX, maxY int) {
	first := true
	for c := range g.board {
		if first {
			minX, maxX = c.X, c.X
			minY, maxY = c.Y, c.Y
			first = false
			continue
		}
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	return minX, minY, maxX, maxY
}
