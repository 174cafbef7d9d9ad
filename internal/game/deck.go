package game

import "math/rand/v2"

// Deck 尚未發出的牌，建房時洗一次牌。
//
// 牌組組成：數字 1..13、四種非鬼牌花色各兩份，共 104 張。
// 鬼牌有建構子但不放進初始牌組；驗證演算法仍支援
// 鬼牌出現在盤面上。
type Deck struct {
	pieces []Piece
}

// NewDeck 建立並均勻洗亂一副 104 張的牌組。
func NewDeck() *Deck {
	pieces := make([]Piece, 0, 104)
	for n := MinNumber; n <= MaxNumber; n++ {
		for copies := 0; copies < 2; copies++ {
			pieces = append(pieces,
				NewPiece(Red, n),
				NewPiece(Blue, n),
				NewPiece(Yellow, n),
				NewPiece(Black, n),
			)
		}
	}

	d := &Deck{pieces: pieces}
	d.shuffle()
	return d
}

func (d *Deck) shuffle() {
	rand.Shuffle(len(d.pieces), func(i, j int) {
		d.pieces[i], d.pieces[j] = d.pieces[j], d.pieces[i]
	})
}

// Deal 發出最多 n 張牌；剩餘不足 n 張時發出全部。
func (d *Deck) Deal(n int) []Piece {
	if n >= len(d.pieces) {
		dealt := d.pieces
		d.pieces = nil
		return dealt
	}

	cut := len(d.pieces) - n
	dealt := d.pieces[cut:]
	d.pieces = d.pieces[:cut]
	return dealt
}

// DealOne 發出一張牌；牌組已空時回報 false。
func (d *Deck) DealOne() (Piece, bool) {
	if len(d.pieces) == 0 {
		return Piece{}, false
	}

	p := d.pieces[len(d.pieces)-1]
	d.pieces = d.pieces[:len(d.pieces)-1]
	return p, true
}

// Len 剩餘張數。
func (d *Deck) Len() int {
	return len(d.pieces)
}
