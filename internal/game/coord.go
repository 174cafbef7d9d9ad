package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Coord 盤面座標（欄, 列）。
//
// 序列化為單一字串 "(x,y)"（帶括號、逗號分隔、無空白）
// 而不是結構化物件：盤面以 Coord 為 key 編碼成 JSON 映射，
// 而 JSON 的 map key 必須是字串。這個格式是線上協議的一部分，
// 不能改動。
type Coord struct {
	X int
	Y int
}

// Less 全序比較：先 X 後 Y。
func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// MarshalText 實作 encoding.TextMarshaler，
// 讓 encoding/json 在一般欄位與 map key 兩種位置都輸出 "(x,y)"。
func (c Coord) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 實作 encoding.TextUnmarshaler。
func (c *Coord) UnmarshalText(text []byte) error {
	parsed, err := ParseCoord(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCoord 解析 "(x,y)" 格式的座標字串。
//
// 對所有整數 x、y 滿足 ParseCoord(c.String()) == c。
func ParseCoord(s string) (Coord, error) {
	if len(s) < 5 || s[0] != '(' || s[len(s)-1] != ')' {
		return Coord{}, fmt.Errorf("無效的座標格式: %q", s)
	}

	inner := s[1 : len(s)-1]
	xs, ys, ok := strings.Cut(inner, ",")
	if !ok {
		return Coord{}, fmt.Errorf("無效的座標格式: %q", s)
	}

	x, err := strconv.Atoi(xs)
	if err != nil {
		return Coord{}, fmt.Errorf("無效的座標 X 值: %q", s)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Coord{}, fmt.Errorf("無效的座標 Y 值: %q", s)
	}

	return Coord{X: x, Y: y}, nil
}
