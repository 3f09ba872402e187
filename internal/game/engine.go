// Package game implements the pinyin/English card matching round.
package game

import (
	"fmt"
	"math/rand"
	"time"

	"pinyinmatch/internal/domain"
)

// MinPairs is the smallest word list a round can be played with.
const MinPairs = 2

// State is the engine's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateInRound
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInRound:
		return "in_round"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MatchResult describes the effect of a match attempt.
type MatchResult struct {
	Matched       bool
	RoundComplete bool
}

// Engine tracks one round at a time. It is not safe for concurrent use;
// callers serialize access (one engine per player session).
type Engine struct {
	rng        *rand.Rand
	onComplete func()

	state   State
	order   []int // pair ids in shuffled order
	cards   map[domain.CardKey]*domain.RoundCard
	matched int
	total   int
}

// NewEngine creates an idle engine. A nil rng seeds one from the clock.
func NewEngine(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rng: rng}
}

// OnComplete registers a callback fired once when the last pair is matched.
func (e *Engine) OnComplete(fn func()) {
	e.onComplete = fn
}

// StartRound discards any current round and deals a new one from words.
func (e *Engine) StartRound(words []domain.WordPair) error {
	if len(words) < MinPairs {
		return domain.ErrInsufficientWords
	}

	ids := make([]int, len(words))
	for i := range ids {
		ids[i] = i
	}
	shuffle(e.rng, ids)

	e.order = ids
	e.cards = make(map[domain.CardKey]*domain.RoundCard, 2*len(words))
	for _, id := range ids {
		w := words[id]
		p := &domain.RoundCard{PairID: id, Side: domain.SidePinyin, Text: w.Pinyin}
		en := &domain.RoundCard{PairID: id, Side: domain.SideEnglish, Text: w.English}
		e.cards[p.Key()] = p
		e.cards[en.Key()] = en
	}
	e.matched = 0
	e.total = len(words)
	e.state = StateInRound

	return nil
}

// shuffle is an in-place Fisher–Yates permutation.
func shuffle(rng *rand.Rand, a []int) {
	for i := len(a) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

// Drop handles a card dragged onto another card. Only a pinyin card dropped
// on an English card can match; the reverse direction is ignored.
func (e *Engine) Drop(from, to domain.CardKey) MatchResult {
	if from.Side != domain.SidePinyin || to.Side != domain.SideEnglish {
		return MatchResult{}
	}
	return e.AttemptMatch(from.PairID, to.PairID)
}

// AttemptMatch matches the pinyin card draggedID with the English card targetID.
// It is a no-op unless the ids agree and neither card is matched yet.
func (e *Engine) AttemptMatch(draggedID, targetID int) MatchResult {
	if e.state != StateInRound || draggedID != targetID {
		return MatchResult{}
	}

	p, ok := e.cards[domain.CardKey{PairID: draggedID, Side: domain.SidePinyin}]
	if !ok || p.Matched {
		return MatchResult{}
	}
	en, ok := e.cards[domain.CardKey{PairID: targetID, Side: domain.SideEnglish}]
	if !ok || en.Matched {
		return MatchResult{}
	}

	p.Matched = true
	en.Matched = true
	e.matched++

	res := MatchResult{Matched: true}
	if e.matched == e.total {
		e.state = StateComplete
		res.RoundComplete = true
		if e.onComplete != nil {
			e.onComplete()
		}
	}
	return res
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Card returns the card with the given key.
func (e *Engine) Card(key domain.CardKey) (domain.RoundCard, bool) {
	c, ok := e.cards[key]
	if !ok {
		return domain.RoundCard{}, false
	}
	return *c, true
}

// PinyinCards returns the pinyin column in dealt order.
func (e *Engine) PinyinCards() []domain.RoundCard {
	return e.column(domain.SidePinyin)
}

// EnglishCards returns the English column in dealt order.
func (e *Engine) EnglishCards() []domain.RoundCard {
	return e.column(domain.SideEnglish)
}

func (e *Engine) column(side domain.Side) []domain.RoundCard {
	out := make([]domain.RoundCard, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.cards[domain.CardKey{PairID: id, Side: side}])
	}
	return out
}

// Score returns matched and total pair counts.
func (e *Engine) Score() (matched, total int) {
	return e.matched, e.total
}

// Progress returns matched/total, or 0 when no round has been dealt.
func (e *Engine) Progress() float64 {
	if e.total == 0 {
		return 0
	}
	return float64(e.matched) / float64(e.total)
}

// ScoreText formats the score line shown under the board.
func (e *Engine) ScoreText() string {
	if e.total == 0 {
		return ""
	}
	return fmt.Sprintf("Matched: %d / %d", e.matched, e.total)
}
