// Package report renders solve results as plain-text tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/stitts-dev/fpl-squad/internal/optimizer"
)

// WriteSquad prints the objective, one row per selected player in index
// order, and the cost and form totals.
func WriteSquad(w io.Writer, squad *optimizer.Squad) error {
	if _, err := fmt.Fprintf(w, "Objective Value: %s\n", formatNumber(squad.Objective)); err != nil {
		return err
	}

	table := newTable(w)
	table.SetHeader([]string{"Web Name", "Cost", "Form"})
	for _, p := range squad.Selected() {
		table.Append([]string{p.Name, formatNumber(p.Cost), formatNumber(p.Form)})
	}
	table.Render()

	if _, err := fmt.Fprintf(w, "Overall Cost: %s $\n", formatNumber(squad.TotalCost)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Overall Form: %s\n", formatNumber(squad.TotalForm))
	return err
}

// WriteSweep prints one summary row per lambda in the order given.
func WriteSweep(w io.Writer, results []*optimizer.Result) error {
	table := newTable(w)
	table.SetHeader([]string{"Lambda", "Objective", "Cost", "Form", "Expected Form"})
	for _, res := range results {
		table.Append([]string{
			formatNumber(res.Lambda),
			formatNumber(res.Squad.Objective),
			formatNumber(res.Squad.TotalCost),
			formatNumber(res.Squad.TotalForm),
			formatNumber(res.Squad.TotalExpectedForm),
		})
	}
	table.Render()
	return nil
}

// RunSummary is one stored run as the history table shows it
type RunSummary struct {
	ID        string
	CreatedAt string
	Source    string
	Lambda    float64
	Objective float64
	TotalCost float64
	TotalForm float64
	Players   int
}

// WriteHistory prints stored runs, newest first as given.
func WriteHistory(w io.Writer, runs []RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No stored runs")
		return err
	}
	table := newTable(w)
	table.SetHeader([]string{"Run", "Created", "Source", "Lambda", "Objective", "Cost", "Form", "Players"})
	for _, r := range runs {
		table.Append([]string{
			shortID(r.ID),
			r.CreatedAt,
			r.Source,
			formatNumber(r.Lambda),
			formatNumber(r.Objective),
			formatNumber(r.TotalCost),
			formatNumber(r.TotalForm),
			strconv.Itoa(r.Players),
		})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// formatNumber prints at most six significant digits
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
