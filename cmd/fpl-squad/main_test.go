package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLeague writes 20 clubs of one GK, two DEF, two MID and one FWD.
// keepers limits how many clubs get a goalkeeper. A non-empty badForm
// replaces the form of player 3.
func writeLeague(t *testing.T, keepers int, badForm string) string {
	t.Helper()
	types := []int{1, 2, 2, 3, 3, 4}
	var elements []map[string]interface{}
	id := 1
	for team := 1; team <= 20; team++ {
		for _, et := range types {
			if et == 1 && team > keepers {
				continue
			}
			form := fmt.Sprintf("%.1f", float64((id*13)%17)/2)
			if badForm != "" && id == 3 {
				form = badForm
			}
			el := map[string]interface{}{
				"id":           id,
				"web_name":     fmt.Sprintf("Player%d", id),
				"team":         team,
				"element_type": et,
				"form":         form,
				"now_cost":     40 + (id*7)%60,
			}
			if id%5 == 0 {
				el["chance_of_playing_next_round"] = 75
			}
			elements = append(elements, el)
			id++
		}
	}
	data, err := json.Marshal(map[string]interface{}{"elements": elements})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "players.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "runs.db"))
	t.Setenv("PLAYER_SOURCE", "file")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing lambda", nil},
		{"malformed lambda", []string{"abc"}},
		{"too many arguments", []string{"0.1", "0.2"}},
		{"negative lambda", []string{"--", "-1"}},
		{"unknown flag", []string{"0.1", "--bogus"}},
		{"bad source", []string{"0.1", "--source", "ftp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "Usage:")
		})
	}
}

func TestRun_InvalidConfigIsUsageError(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown player source", "PLAYER_SOURCE", "ftp"},
		{"zero sweep workers", "SWEEP_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "runs.db"))
			t.Setenv("PLAYER_SOURCE", "file")
			t.Setenv("REDIS_URL", "")
			t.Setenv(tt.key, tt.value)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"0.1"}, &stdout, &stderr)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout.String())
			assert.Contains(t, stderr.String(), "invalid configuration")
			assert.Contains(t, stderr.String(), tt.key)
			assert.NotContains(t, stderr.String(), "Usage:")
		})
	}
}

func TestRun_PrintsSquad(t *testing.T) {
	path := writeLeague(t, 20, "")

	code, stdout, stderr := runCLI(t, "0.05", "--players", path)
	require.Equal(t, exitOK, code, stderr)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "Objective Value: "))
	assert.Contains(t, stdout, "Web Name")
	assert.True(t, strings.HasPrefix(lines[len(lines)-2], "Overall Cost: "))
	assert.True(t, strings.HasSuffix(lines[len(lines)-2], " $"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "Overall Form: "))
	assert.Equal(t, 15, strings.Count(stdout, "Player"))
}

func TestRun_CrossCheckAndSave(t *testing.T) {
	path := writeLeague(t, 20, "")
	dbPath := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("DATABASE_URL", dbPath)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"0.1", "--players", path, "--cross-check", "--save"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	stdout.Reset()
	code = run(context.Background(), []string{"history", "--limit", "5"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "file:"+path)
}

func TestRun_Sweep(t *testing.T) {
	path := writeLeague(t, 20, "")

	code, stdout, stderr := runCLI(t, "sweep", "--players", path, "--from", "0", "--to", "0.2", "--steps", "3", "--workers", "2")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Lambda")
	assert.Less(t, strings.Index(stdout, "| 0.1 "), strings.Index(stdout, "| 0.2 "))
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		path string
		want int
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.json"), exitDataLoad},
		{"malformed form", writeLeague(t, 20, "n/a"), exitDataLoad},
		{"NaN form", writeLeague(t, 20, "NaN"), exitDataLoad},
		{"infinite form", writeLeague(t, 20, "Inf"), exitDataLoad},
		{"one goalkeeper", writeLeague(t, 1, ""), exitNoSquad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "0.1", "--players", tt.path)
			assert.Equal(t, tt.want, code, stderr)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "Error:")
		})
	}
}
