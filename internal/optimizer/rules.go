package optimizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
)

// PositionQuota is the exact number of players a squad must hold for one
// position id. Positions are indexed by their place in Rules.Positions.
type PositionQuota struct {
	Name     string
	Required int
}

// Rules is the league layout the squad must satisfy.
type Rules struct {
	TeamCount  int
	MaxPerTeam int
	Positions  []PositionQuota
}

// DefaultRules returns the Premier League fantasy layout: 20 teams, at most
// 3 players per team, 2 GK, 5 DEF, 5 MID and 3 FWD.
func DefaultRules() Rules {
	return Rules{
		TeamCount:  20,
		MaxPerTeam: 3,
		Positions: []PositionQuota{
			{Name: "GK", Required: 2},
			{Name: "DEF", Required: 5},
			{Name: "MID", Required: 5},
			{Name: "FWD", Required: 3},
		},
	}
}

// Validate rejects layouts the builder cannot encode
func (r Rules) Validate() error {
	if r.TeamCount <= 0 {
		return fmt.Errorf("team count must be positive, got %d", r.TeamCount)
	}
	if r.MaxPerTeam < 0 {
		return fmt.Errorf("max players per team must be non-negative, got %d", r.MaxPerTeam)
	}
	if len(r.Positions) == 0 {
		return fmt.Errorf("at least one position quota is required")
	}
	for _, p := range r.Positions {
		if p.Required < 0 {
			return fmt.Errorf("position %s requires %d players", p.Name, p.Required)
		}
	}
	return nil
}

// SquadSize is the total number of players a valid squad holds
func (r Rules) SquadSize() int {
	total := 0
	for _, p := range r.Positions {
		total += p.Required
	}
	return total
}

// Layout is the id range a catalog must respect for these rules
func (r Rules) Layout() catalog.Layout {
	return catalog.Layout{TeamCount: r.TeamCount, PositionCount: len(r.Positions)}
}

// NumRows is the number of constraint rows the builder emits
func (r Rules) NumRows() int {
	return r.TeamCount + 2*len(r.Positions)
}

// ParseQuotas reads "GK:2,DEF:5,MID:5,FWD:3". Order defines position ids.
func ParseQuotas(value string) ([]PositionQuota, error) {
	var quotas []PositionQuota
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, count, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid position quota %q: want NAME:COUNT", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return nil, fmt.Errorf("invalid position quota %q: %w", part, err)
		}
		quotas = append(quotas, PositionQuota{Name: strings.TrimSpace(name), Required: n})
	}
	if len(quotas) == 0 {
		return nil, fmt.Errorf("no position quotas in %q", value)
	}
	return quotas, nil
}
