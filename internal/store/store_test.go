package store

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
	"github.com/stitts-dev/fpl-squad/internal/optimizer"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testResult(lambda float64) *optimizer.Result {
	return &optimizer.Result{
		RunID:  uuid.New().String(),
		Lambda: lambda,
		Squad: &optimizer.Squad{
			Picks: []optimizer.Pick{
				{Player: catalog.PlayerRecord{Index: 0, ID: 11, Name: "Raya", TeamID: 0, Cost: 40, Form: 5, Availability: 1}, Selected: true},
				{Player: catalog.PlayerRecord{Index: 1, ID: 12, Name: "Pope", TeamID: 1, Cost: 45, Form: 4, Availability: 1}},
				{Player: catalog.PlayerRecord{Index: 2, ID: 13, Name: "Alisson", TeamID: 2, Cost: 50, Form: 6, Availability: 1}, Selected: true},
			},
			Objective:      10.1,
			ExactObjective: big.NewRat(101, 10),
			TotalCost:      90,
			TotalForm:      11,
		},
		Duration:   15 * time.Millisecond,
		Iterations: 4,
	}
}

func TestSaveRun_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	result := testResult(0.01)
	saved, err := s.SaveRun(ctx, result, "file:data/players.json")
	require.NoError(t, err)
	assert.Equal(t, result.RunID, saved.ID)

	run, err := s.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, 0.01, run.Lambda)
	assert.Equal(t, 10.1, run.Objective)
	assert.Equal(t, "101/10", run.ExactObjective)
	assert.Equal(t, int64(15), run.DurationMs)
	assert.Equal(t, "file:data/players.json", run.Source)
	require.Len(t, run.Picks, 2)

	names := []string{run.Picks[0].Name, run.Picks[1].Name}
	assert.ElementsMatch(t, []string{"Raya", "Alisson"}, names)
}

func TestRecentRuns_NewestFirstWithLimit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, lambda := range []float64{0.1, 0.2, 0.3} {
		res := testResult(lambda)
		ids = append(ids, res.RunID)
		_, err := s.SaveRun(ctx, res, "api")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := s.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	require.Len(t, runs[0].Picks, 2)
	assert.Equal(t, "Raya", runs[0].Picks[0].Name)
	assert.Equal(t, "Alisson", runs[0].Picks[1].Name)

	summary := runs[0].Summary()
	assert.Equal(t, 2, summary.Players)
	assert.Equal(t, 0.3, summary.Lambda)
}

func TestGetRun_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetRun(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSaveRun_RejectsEmptyResult(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.SaveRun(context.Background(), &optimizer.Result{}, "file")
	assert.Error(t, err)
}

func TestOpen_CreatesSQLiteDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	s, err := Open(path, false)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.SaveRun(context.Background(), testResult(0.5), "file")
	assert.NoError(t, err)
}
