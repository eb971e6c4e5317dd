package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Element is one raw player record as published by the fantasy API.
// Team and ElementType are 1-based. Form and ChanceOfPlayingNextRound are
// kept raw because upstream mixes strings, numbers and nulls.
type Element struct {
	ID                       int             `json:"id"`
	WebName                  string          `json:"web_name"`
	Team                     int             `json:"team"`
	ElementType              int             `json:"element_type"`
	Form                     json.RawMessage `json:"form"`
	NowCost                  float64         `json:"now_cost"`
	ChanceOfPlayingNextRound json.RawMessage `json:"chance_of_playing_next_round,omitempty"`
}

// bootstrapPayload is the top-level shape of the bootstrap-static endpoint.
type bootstrapPayload struct {
	Elements []Element `json:"elements"`
}

// DecodeElements accepts either a bare JSON array of elements or an object
// carrying them under "elements".
func DecodeElements(data []byte) ([]Element, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &DataLoadError{Index: -1, Err: fmt.Errorf("%w: empty document", ErrMalformedField)}
	}

	if trimmed[0] == '[' {
		var elements []Element
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, &DataLoadError{Index: -1, Err: fmt.Errorf("decode elements: %w", err)}
		}
		return elements, nil
	}

	var payload bootstrapPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, &DataLoadError{Index: -1, Err: fmt.Errorf("decode bootstrap payload: %w", err)}
	}
	if payload.Elements == nil {
		return nil, &DataLoadError{Index: -1, Field: "elements", Err: fmt.Errorf("%w: no elements array", ErrMalformedField)}
	}
	return payload.Elements, nil
}

// ToRecord converts the element at position index into a zero-based record.
// Team and position ranges are checked later against the league layout.
func (e Element) ToRecord(index int) (PlayerRecord, error) {
	form, err := parseForm(e.Form)
	if err != nil {
		return PlayerRecord{}, fieldError(index, "form", err)
	}

	availability, err := parseChance(e.ChanceOfPlayingNextRound)
	if err != nil {
		return PlayerRecord{}, fieldError(index, "chance_of_playing_next_round", err)
	}

	if e.NowCost < 0 {
		return PlayerRecord{}, fieldError(index, "now_cost", fmt.Errorf("%w: %v", ErrOutOfRange, e.NowCost))
	}

	return PlayerRecord{
		Index:        index,
		ID:           e.ID,
		Name:         e.WebName,
		TeamID:       e.Team - 1,
		PositionID:   e.ElementType - 1,
		Cost:         e.NowCost,
		Form:         form,
		Availability: availability,
	}, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseForm accepts "5.3" or 5.3. NaN and infinities are malformed.
func parseForm(raw json.RawMessage) (float64, error) {
	if isAbsent(raw) {
		return 0, fmt.Errorf("%w: missing", ErrMalformedField)
	}

	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrMalformedField, text)
		}
		text = strings.TrimSpace(unquoted)
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedField, text)
	}
	return value, nil
}

// parseChance maps a 0-100 percentage to a probability. Null or absent
// means the player is assumed available. Anything present but not a JSON
// number is rejected.
func parseChance(raw json.RawMessage) (float64, error) {
	if isAbsent(raw) {
		return 1, nil
	}

	var pct float64
	if err := json.Unmarshal(raw, &pct); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrMalformedField, string(raw))
	}
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, pct)
	}
	return pct / 100, nil
}
