package optimizer

import (
	"math/big"

	"gonum.org/v1/gonum/floats"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
)

// Pick pairs a catalog player with its validated decision.
type Pick struct {
	Player   catalog.PlayerRecord `json:"player"`
	Selected bool                 `json:"selected"`
}

// Squad is a validated selection. Picks covers every catalog player in
// index order; Objective is the maximized form-minus-cost figure.
type Squad struct {
	Picks             []Pick   `json:"picks"`
	Objective         float64  `json:"objective"`
	ExactObjective    *big.Rat `json:"-"`
	TotalCost         float64  `json:"total_cost"`
	TotalForm         float64  `json:"total_form"`
	TotalExpectedForm float64  `json:"total_expected_form"`
}

// Selected returns the chosen players in index order
func (s *Squad) Selected() []catalog.PlayerRecord {
	out := make([]catalog.PlayerRecord, 0, 16)
	for _, p := range s.Picks {
		if p.Selected {
			out = append(out, p.Player)
		}
	}
	return out
}

// Size returns how many players were chosen
func (s *Squad) Size() int {
	n := 0
	for _, p := range s.Picks {
		if p.Selected {
			n++
		}
	}
	return n
}

// CountByPosition returns selected players per position id
func (s *Squad) CountByPosition(positions int) []int {
	counts := make([]int, positions)
	for _, p := range s.Selected() {
		counts[p.PositionID]++
	}
	return counts
}

// CountByTeam returns selected players per team id
func (s *Squad) CountByTeam(teams int) []int {
	counts := make([]int, teams)
	for _, p := range s.Selected() {
		counts[p.TeamID]++
	}
	return counts
}

// SelectedIndices returns the variable indices of the chosen players
func (s *Squad) SelectedIndices() []int {
	var idx []int
	for _, p := range s.Selected() {
		idx = append(idx, p.Index)
	}
	return idx
}

func newSquad(cat *catalog.Catalog, selected []bool, solverObjective *big.Rat) *Squad {
	picks := make([]Pick, cat.Len())
	var costs, forms, expected []float64

	for i := range picks {
		player := cat.Player(i)
		picks[i] = Pick{Player: player, Selected: selected[i]}
		if selected[i] {
			costs = append(costs, player.Cost)
			forms = append(forms, player.Form)
			expected = append(expected, player.ExpectedForm())
		}
	}

	reported := new(big.Rat).Neg(solverObjective)
	objective, _ := reported.Float64()

	return &Squad{
		Picks:             picks,
		Objective:         objective,
		ExactObjective:    reported,
		TotalCost:         floats.Sum(costs),
		TotalForm:         floats.Sum(forms),
		TotalExpectedForm: floats.Sum(expected),
	}
}
