package catalog

import "fmt"

// Position ids are zero-based in the order the upstream element_type uses.
const (
	Goalkeeper = iota
	Defender
	Midfielder
	Forward
)

// PositionCount is the number of distinct position ids.
const PositionCount = 4

var positionNames = [PositionCount]string{"GK", "DEF", "MID", "FWD"}

// PositionName returns the short label for a zero-based position id.
func PositionName(id int) string {
	if id < 0 || id >= PositionCount {
		return fmt.Sprintf("POS%d", id)
	}
	return positionNames[id]
}

// PlayerRecord is one normalized catalog entry. Index is the player's
// decision-variable position for the lifetime of one solve.
type PlayerRecord struct {
	Index        int     `json:"index"`
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	TeamID       int     `json:"team_id"`
	PositionID   int     `json:"position_id"`
	Cost         float64 `json:"cost"`
	Form         float64 `json:"form"`
	Availability float64 `json:"availability"`
}

// ExpectedForm is form discounted by the chance of playing.
func (p PlayerRecord) ExpectedForm() float64 {
	return p.Form * p.Availability
}

// Position returns the position label
func (p PlayerRecord) Position() string {
	return PositionName(p.PositionID)
}
