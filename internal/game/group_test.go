package game_test

import (
	"testing"

	"github.com/koopa0/tileroom/internal/game"
	"github.com/stretchr/testify/assert"
)

// TestGroup_IsValid 測試組合驗證規則：
// 順子（同花色連號）與同數組（同數字異花色），鬼牌為萬用牌
func TestGroup_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		group game.Group
		want  bool
	}{
		{
			name: "三張同花色連號是合法順子",
			group: game.Group{
				game.NewPiece(game.Yellow, 2),
				game.NewPiece(game.Yellow, 3),
				game.NewPiece(game.Yellow, 4),
			},
			want: true,
		},
		{
			name: "三張同數字異花色是合法同數組",
			group: game.Group{
				game.NewPiece(game.Red, 5),
				game.NewPiece(game.Blue, 5),
				game.NewPiece(game.Black, 5),
			},
			want: true,
		},
		{
			name: "四張同數字全花色同數組",
			group: game.Group{
				game.NewPiece(game.Red, 11),
				game.NewPiece(game.Blue, 11),
				game.NewPiece(game.Yellow, 11),
				game.NewPiece(game.Black, 11),
			},
			want: true,
		},
		{
			name: "兩張牌不足最小長度",
			group: game.Group{
				game.NewPiece(game.Red, 5),
				game.NewPiece(game.Red, 5),
			},
			want: false,
		},
		{
			name: "既非順子也非同數組",
			group: game.Group{
				game.NewPiece(game.Red, 5),
				game.NewPiece(game.Blue, 5),
				game.NewPiece(game.Blue, 6),
			},
			want: false,
		},
		{
			name: "順子數字必須恰好遞增一",
			group: game.Group{
				game.NewPiece(game.Red, 3),
				game.NewPiece(game.Red, 4),
				game.NewPiece(game.Red, 6),
			},
			want: false,
		},
		{
			name: "順子花色必須一致",
			group: game.Group{
				game.NewPiece(game.Red, 3),
				game.NewPiece(game.Blue, 4),
				game.NewPiece(game.Red, 5),
			},
			want: false,
		},
		{
			name: "同數組花色不可重複",
			group: game.Group{
				game.NewPiece(game.Red, 9),
				game.NewPiece(game.Blue, 9),
				game.NewPiece(game.Red, 9),
			},
			want: false,
		},
		{
			name: "鬼牌補順子中間的缺口",
			group: game.Group{
				game.NewPiece(game.Blue, 7),
				game.NewJoker(),
				game.NewPiece(game.Blue, 9),
			},
			want: true,
		},
		{
			name: "鬼牌開頭的順子由第一張非鬼牌定基準",
			group: game.Group{
				game.NewJoker(),
				game.NewPiece(game.Black, 12),
				game.NewPiece(game.Black, 13),
			},
			want: true,
		},
		{
			name: "鬼牌補同數組",
			group: game.Group{
				game.NewPiece(game.Red, 4),
				game.NewJoker(),
				game.NewPiece(game.Yellow, 4),
			},
			want: true,
		},
		{
			name: "鬼牌也救不了斷兩格的順子",
			group: game.Group{
				game.NewPiece(game.Red, 1),
				game.NewJoker(),
				game.NewPiece(game.Red, 4),
			},
			want: false,
		},
		{
			name:  "三張全鬼牌無條件合法",
			group: game.Group{game.NewJoker(), game.NewJoker(), game.NewJoker()},
			want:  true,
		},
		{
			name: "唯一非鬼牌在末尾直接通過",
			group: game.Group{
				game.NewJoker(),
				game.NewJoker(),
				game.NewPiece(game.Blue, 8),
			},
			want: true,
		},
		{
			name:  "空組不足長度",
			group: game.Group{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.group.IsValid())
		})
	}
}
