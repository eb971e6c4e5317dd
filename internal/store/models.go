package store

import (
	"time"

	"github.com/stitts-dev/fpl-squad/internal/optimizer"
	"github.com/stitts-dev/fpl-squad/internal/report"
)

// SolveRun is one persisted, validated solve
type SolveRun struct {
	ID                string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Lambda            float64     `gorm:"not null" json:"lambda"`
	Objective         float64     `gorm:"not null" json:"objective"`
	ExactObjective    string      `json:"exact_objective"`
	TotalCost         float64     `gorm:"not null" json:"total_cost"`
	TotalForm         float64     `gorm:"not null" json:"total_form"`
	TotalExpectedForm float64     `json:"total_expected_form"`
	Iterations        int         `json:"iterations"`
	DurationMs        int64       `json:"duration_ms"`
	Source            string      `gorm:"index" json:"source"`
	CreatedAt         time.Time   `gorm:"index" json:"created_at"`
	Picks             []SquadPick `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"picks"`
}

// TableName specifies the table name for GORM
func (SolveRun) TableName() string {
	return "solve_runs"
}

// SquadPick is one selected player of a stored run
type SquadPick struct {
	ID           uint    `gorm:"primaryKey" json:"-"`
	RunID        string  `gorm:"type:varchar(36);not null;index" json:"run_id"`
	Index        int     `gorm:"column:player_index;not null" json:"index"`
	ElementID    int     `gorm:"not null" json:"element_id"`
	Name         string  `json:"name"`
	TeamID       int     `json:"team_id"`
	PositionID   int     `json:"position_id"`
	Cost         float64 `json:"cost"`
	Form         float64 `json:"form"`
	Availability float64 `json:"availability"`
}

func (SquadPick) TableName() string {
	return "squad_picks"
}

// NewSolveRun flattens an optimizer result into its stored form.
func NewSolveRun(result *optimizer.Result, source string) *SolveRun {
	squad := result.Squad
	run := &SolveRun{
		ID:                result.RunID,
		Lambda:            result.Lambda,
		Objective:         squad.Objective,
		TotalCost:         squad.TotalCost,
		TotalForm:         squad.TotalForm,
		TotalExpectedForm: squad.TotalExpectedForm,
		Iterations:        result.Iterations,
		DurationMs:        result.Duration.Milliseconds(),
		Source:            source,
	}
	if squad.ExactObjective != nil {
		run.ExactObjective = squad.ExactObjective.RatString()
	}
	for _, p := range squad.Selected() {
		run.Picks = append(run.Picks, SquadPick{
			RunID:        result.RunID,
			Index:        p.Index,
			ElementID:    p.ID,
			Name:         p.Name,
			TeamID:       p.TeamID,
			PositionID:   p.PositionID,
			Cost:         p.Cost,
			Form:         p.Form,
			Availability: p.Availability,
		})
	}
	return run
}

// Summary is the history-table view of a run
func (r SolveRun) Summary() report.RunSummary {
	return report.RunSummary{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.Local().Format("2006-01-02 15:04"),
		Source:    r.Source,
		Lambda:    r.Lambda,
		Objective: r.Objective,
		TotalCost: r.TotalCost,
		TotalForm: r.TotalForm,
		Players:   len(r.Picks),
	}
}
