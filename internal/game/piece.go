package game

import (
	"fmt"
)

// Color 牌的顏色。
//
// Joker 是萬用牌的標記值，不是可以打出的花色；
// 花色順序同時定義了牌的全序（先比顏色再比數字），
// 讓 Piece 可以當 map 的 key、也可以在手牌中排序。
type Color uint8

const (
	Red Color = iota
	Blue
	Yellow
	Black
	Joker
)

var colorNames = [...]string{"red", "blue", "yellow", "black", "joker"}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// MarshalText 以小寫英文名序列化顏色。
func (c Color) MarshalText() ([]byte, error) {
	if int(c) >= len(colorNames) {
		return nil, fmt.Errorf("未知的顏色: %d", uint8(c))
	}
	return []byte(colorNames[c]), nil
}

// UnmarshalText 解析顏色名稱，未知名稱視為協議錯誤。
func (c *Color) UnmarshalText(text []byte) error {
	for i, name := range colorNames {
		if string(text) == name {
			*c = Color(i)
			return nil
		}
	}
	return fmt.Errorf("未知的顏色: %q", string(text))
}

// JokerNumber 鬼牌的數字哨兵值（鬼牌不帶真正的數字）。
const JokerNumber uint8 = 255

// MinNumber 與 MaxNumber 定義可打出的數字範圍 1..13。
const (
	MinNumber uint8 = 1
	MaxNumber uint8 = 13
)

// Piece 一張牌：花色加數字。
//
// 值型別、可複製；同花色同數字的兩張牌相等（牌組中每種有兩份），
// 所以手牌用 Piece -> 張數 的計數表表示，見 Hand。
type Piece struct {
	Color  Color `json:"color"`
	Number uint8 `json:"number"`
}

// NewPiece 建立一張一般的牌。
func NewPiece(c Color, n uint8) Piece {
	return Piece{Color: c, Number: n}
}

// NewJoker 建立一張鬼牌。
//
// 注意：初始牌組不包含鬼牌（沿用原始規則資料），
// 但驗證演算法仍必須正確處理鬼牌出現在盤面上的情況。
func NewJoker() Piece {
	return Piece{Color: Joker, Number: JokerNumber}
}

// IsJoker 是否為鬼牌。
func (p Piece) IsJoker() bool {
	return p.Color == Joker
}

// Less 全序比較：先花色後數字。
func (p Piece) Less(o Piece) bool {
	if p.Color != o.Color {
		return p.Color < o.Color
	}
	return p.Number < o.Number
}

func (p Piece) String() string {
	if p.IsJoker() {
		return "joker"
	}
	return fmt.Sprintf("%s-%d", p.Color, p.Number)
}
