package domain

// Side tells which column of the board a card belongs to.
type Side string

const (
	SidePinyin  Side = "pinyin"
	SideEnglish Side = "english"
)

// CardKey identifies a card within a round.
type CardKey struct {
	PairID int
	Side   Side
}

// RoundCard is one face of a word pair on the board.
// PairID is the pair's index in the word list at round start.
type RoundCard struct {
	PairID  int
	Side    Side
	Text    string
	Matched bool
}

// Key returns the card's (pair, side) key.
func (c RoundCard) Key() CardKey {
	return CardKey{PairID: c.PairID, Side: c.Side}
}
