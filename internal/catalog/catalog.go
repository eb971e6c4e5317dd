package catalog

import (
	"fmt"
	"math"
)

// Layout bounds the zero-based team and position ids a catalog may hold.
type Layout struct {
	TeamCount     int
	PositionCount int
}

// DefaultLayout is the 20-team, 4-position league.
func DefaultLayout() Layout {
	return Layout{TeamCount: 20, PositionCount: PositionCount}
}

// Catalog is an ordered, read-only player list. Player i has Index i.
type Catalog struct {
	players []PlayerRecord
	layout  Layout
}

// New validates records against layout and assigns dense indices in input
// order. The input slice is copied.
func New(records []PlayerRecord, layout Layout) (*Catalog, error) {
	players := make([]PlayerRecord, len(records))
	for i, rec := range records {
		rec.Index = i

		if rec.TeamID < 0 || rec.TeamID >= layout.TeamCount {
			return nil, fieldError(i, "team", fmt.Errorf("%w: team %d not in [1, %d]", ErrOutOfRange, rec.TeamID+1, layout.TeamCount))
		}
		if rec.PositionID < 0 || rec.PositionID >= layout.PositionCount {
			return nil, fieldError(i, "element_type", fmt.Errorf("%w: element_type %d not in [1, %d]", ErrOutOfRange, rec.PositionID+1, layout.PositionCount))
		}
		if !isFinite(rec.Cost) || rec.Cost < 0 {
			return nil, fieldError(i, "now_cost", fmt.Errorf("%w: %v", ErrOutOfRange, rec.Cost))
		}
		if !isFinite(rec.Form) {
			return nil, fieldError(i, "form", fmt.Errorf("%w: %v", ErrOutOfRange, rec.Form))
		}
		if math.IsNaN(rec.Availability) || rec.Availability < 0 || rec.Availability > 1 {
			return nil, fieldError(i, "chance_of_playing_next_round", fmt.Errorf("%w: %v", ErrOutOfRange, rec.Availability))
		}

		players[i] = rec
	}

	return &Catalog{players: players, layout: layout}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FromElements converts raw elements and builds a catalog from them.
func FromElements(elements []Element, layout Layout) (*Catalog, error) {
	records := make([]PlayerRecord, 0, len(elements))
	for i, el := range elements {
		rec, err := el.ToRecord(i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return New(records, layout)
}

// Len returns the number of players
func (c *Catalog) Len() int {
	return len(c.players)
}

// Player returns the record with the given index
func (c *Catalog) Player(i int) PlayerRecord {
	return c.players[i]
}

// Players returns a copy of all records in index order
func (c *Catalog) Players() []PlayerRecord {
	out := make([]PlayerRecord, len(c.players))
	copy(out, c.players)
	return out
}

// Layout returns the layout the catalog was validated against
func (c *Catalog) Layout() Layout {
	return c.layout
}

// CountByPosition returns how many players the catalog holds per position.
func (c *Catalog) CountByPosition() []int {
	counts := make([]int, c.layout.PositionCount)
	for _, p := range c.players {
		counts[p.PositionID]++
	}
	return counts
}
