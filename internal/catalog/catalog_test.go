package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementToRecord(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantForm     float64
		wantAvail    float64
		wantErrField string
	}{
		{
			name:      "string form and null chance",
			raw:       `{"id":7,"web_name":"Raya","team":1,"element_type":1,"form":"5.3","now_cost":55,"chance_of_playing_next_round":null}`,
			wantForm:  5.3,
			wantAvail: 1,
		},
		{
			name:      "numeric form and absent chance",
			raw:       `{"id":8,"web_name":"Saka","team":1,"element_type":3,"form":7.1,"now_cost":100}`,
			wantForm:  7.1,
			wantAvail: 1,
		},
		{
			name:      "partial availability",
			raw:       `{"id":9,"web_name":"Reece James","team":6,"element_type":2,"form":"2.0","now_cost":57,"chance_of_playing_next_round":75}`,
			wantForm:  2.0,
			wantAvail: 0.75,
		},
		{
			name:         "malformed chance string",
			raw:          `{"id":10,"web_name":"X","team":2,"element_type":2,"form":"1.0","now_cost":40,"chance_of_playing_next_round":"doubtful"}`,
			wantErrField: "chance_of_playing_next_round",
		},
		{
			name:         "chance above 100",
			raw:          `{"id":11,"web_name":"Y","team":2,"element_type":2,"form":"1.0","now_cost":40,"chance_of_playing_next_round":150}`,
			wantErrField: "chance_of_playing_next_round",
		},
		{
			name:         "non numeric form",
			raw:          `{"id":12,"web_name":"Z","team":2,"element_type":2,"form":"n/a","now_cost":40}`,
			wantErrField: "form",
		},
		{
			name:         "NaN form",
			raw:          `{"id":15,"web_name":"U","team":2,"element_type":2,"form":"NaN","now_cost":40}`,
			wantErrField: "form",
		},
		{
			name:         "infinite form",
			raw:          `{"id":16,"web_name":"T","team":2,"element_type":2,"form":"+Infinity","now_cost":40}`,
			wantErrField: "form",
		},
		{
			name:         "missing form",
			raw:          `{"id":13,"web_name":"W","team":2,"element_type":2,"now_cost":40}`,
			wantErrField: "form",
		},
		{
			name:         "negative cost",
			raw:          `{"id":14,"web_name":"V","team":2,"element_type":2,"form":"1.0","now_cost":-5}`,
			wantErrField: "now_cost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var el Element
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &el))

			rec, err := el.ToRecord(3)
			if tt.wantErrField != "" {
				var loadErr *DataLoadError
				require.ErrorAs(t, err, &loadErr)
				assert.Equal(t, 3, loadErr.Index)
				assert.Equal(t, tt.wantErrField, loadErr.Field)
				assert.True(t, errors.Is(err, ErrMalformedField) || errors.Is(err, ErrOutOfRange))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 3, rec.Index)
			assert.InDelta(t, tt.wantForm, rec.Form, 1e-12)
			assert.InDelta(t, tt.wantAvail, rec.Availability, 1e-12)
			assert.Equal(t, el.Team-1, rec.TeamID)
			assert.Equal(t, el.ElementType-1, rec.PositionID)
		})
	}
}

func TestExpectedForm(t *testing.T) {
	p := PlayerRecord{Form: 6, Availability: 0.5}
	assert.Equal(t, 3.0, p.ExpectedForm())
}

func TestNew_AssignsDenseIndices(t *testing.T) {
	records := []PlayerRecord{
		{Index: 40, Name: "a", TeamID: 0, PositionID: 0, Availability: 1},
		{Index: 7, Name: "b", TeamID: 19, PositionID: 3, Availability: 1},
	}

	cat, err := New(records, DefaultLayout())
	require.NoError(t, err)

	require.Equal(t, 2, cat.Len())
	assert.Equal(t, 0, cat.Player(0).Index)
	assert.Equal(t, 1, cat.Player(1).Index)
	assert.Equal(t, []int{1, 0, 0, 1}, cat.CountByPosition())

	// Input slice is not aliased.
	assert.Equal(t, 40, records[0].Index)
}

func TestNew_RejectsOutOfRangeIDs(t *testing.T) {
	tests := []struct {
		name  string
		rec   PlayerRecord
		field string
	}{
		{"team too high", PlayerRecord{TeamID: 20, PositionID: 0, Availability: 1}, "team"},
		{"team negative", PlayerRecord{TeamID: -1, PositionID: 0, Availability: 1}, "team"},
		{"position too high", PlayerRecord{TeamID: 0, PositionID: 4, Availability: 1}, "element_type"},
		{"availability above one", PlayerRecord{TeamID: 0, PositionID: 0, Availability: 1.5}, "chance_of_playing_next_round"},
		{"availability NaN", PlayerRecord{TeamID: 0, PositionID: 0, Availability: math.NaN()}, "chance_of_playing_next_round"},
		{"cost infinite", PlayerRecord{TeamID: 0, PositionID: 0, Cost: math.Inf(1), Availability: 1}, "now_cost"},
		{"form NaN", PlayerRecord{TeamID: 0, PositionID: 0, Form: math.NaN(), Availability: 1}, "form"},
		{"form infinite", PlayerRecord{TeamID: 0, PositionID: 0, Form: math.Inf(-1), Availability: 1}, "form"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]PlayerRecord{tt.rec}, DefaultLayout())
			var loadErr *DataLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.field, loadErr.Field)
			assert.True(t, errors.Is(err, ErrOutOfRange))
		})
	}
}

func TestFileSource_ArrayAndBootstrapShapes(t *testing.T) {
	dir := t.TempDir()
	array := `[{"id":1,"web_name":"Pope","team":15,"element_type":1,"form":"4.0","now_cost":50,"chance_of_playing_next_round":null}]`
	bootstrap := `{"events":[],"elements":` + array + `}`

	arrayPath := filepath.Join(dir, "array.json")
	bootstrapPath := filepath.Join(dir, "bootstrap.json")
	require.NoError(t, os.WriteFile(arrayPath, []byte(array), 0o600))
	require.NoError(t, os.WriteFile(bootstrapPath, []byte(bootstrap), 0o600))

	for _, path := range []string{arrayPath, bootstrapPath} {
		cat, err := Load(context.Background(), NewFileSource(path), DefaultLayout())
		require.NoError(t, err, path)
		require.Equal(t, 1, cat.Len())
		p := cat.Player(0)
		assert.Equal(t, "Pope", p.Name)
		assert.Equal(t, 14, p.TeamID)
		assert.Equal(t, Goalkeeper, p.PositionID)
		assert.Equal(t, "GK", p.Position())
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), NewFileSource(filepath.Join(t.TempDir(), "nope.json")), DefaultLayout())

	var loadErr *DataLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, -1, loadErr.Index)
}

func TestDecodeElements_RejectsObjectWithoutElements(t *testing.T) {
	_, err := DecodeElements([]byte(`{"teams":[]}`))
	assert.ErrorIs(t, err, ErrMalformedField)
}
