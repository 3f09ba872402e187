package game

import (
	"fmt"

	"pinyinmatch/internal/domain"
)

// Interaction names a kind of player input on the board.
type Interaction string

const (
	InteractionStart Interaction = "start"
	InteractionPick  Interaction = "pick"
	InteractionDrop  Interaction = "drop"
)

// Event is one player input. PairID is ignored for InteractionStart.
type Event struct {
	Kind   Interaction
	PairID int
	Words  []domain.WordPair
}

// Outcome is what the front-end needs to re-render after an event.
type Outcome struct {
	Picked  *domain.RoundCard
	Match   MatchResult
	Message string
}

// Board drives an Engine with pick-then-drop input: a pinyin card is picked
// (the "drag"), then an English card is chosen as the drop target.
type Board struct {
	engine   *Engine
	selected *int
	onPick   func(card domain.RoundCard)
	routes   map[Interaction]func(Event) (Outcome, error)
}

// NewBoard wraps engine. onPick, if set, is called with every picked card.
func NewBoard(engine *Engine, onPick func(card domain.RoundCard)) *Board {
	b := &Board{engine: engine, onPick: onPick}
	b.routes = map[Interaction]func(Event) (Outcome, error){
		InteractionStart: b.start,
		InteractionPick:  b.pick,
		InteractionDrop:  b.drop,
	}
	return b
}

// Engine exposes the underlying engine for rendering.
func (b *Board) Engine() *Engine {
	return b.engine
}

// Selected returns the currently picked pinyin pair id.
func (b *Board) Selected() (int, bool) {
	if b.selected == nil {
		return 0, false
	}
	return *b.selected, true
}

// Dispatch routes ev to its handler.
func (b *Board) Dispatch(ev Event) (Outcome, error) {
	h, ok := b.routes[ev.Kind]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown interaction %q", ev.Kind)
	}
	return h(ev)
}

func (b *Board) start(ev Event) (Outcome, error) {
	b.selected = nil
	if err := b.engine.StartRound(ev.Words); err != nil {
		return Outcome{Message: err.Error()}, err
	}
	return Outcome{}, nil
}

func (b *Board) pick(ev Event) (Outcome, error) {
	card, ok := b.engine.Card(domain.CardKey{PairID: ev.PairID, Side: domain.SidePinyin})
	if !ok || card.Matched || b.engine.State() != StateInRound {
		return Outcome{}, nil
	}

	id := ev.PairID
	b.selected = &id
	if b.onPick != nil {
		b.onPick(card)
	}
	return Outcome{Picked: &card}, nil
}

func (b *Board) drop(ev Event) (Outcome, error) {
	if b.selected == nil {
		return Outcome{Message: "Pick a pinyin card first"}, nil
	}

	res := b.engine.Drop(
		domain.CardKey{PairID: *b.selected, Side: domain.SidePinyin},
		domain.CardKey{PairID: ev.PairID, Side: domain.SideEnglish},
	)
	out := Outcome{Match: res}
	if res.Matched {
		b.selected = nil
	}
	if res.RoundComplete {
		out.Message = "All matched! Well done."
	}
	return out, nil
}
