package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseTimestamp_Layouts verifies every accepted wire format resolves to
// the same UTC instant, and that naive values are read as UTC.
func TestParseTimestamp_Layouts(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"RFC3339 UTC", "2024-01-15T10:00:00Z", want},
		{"RFC3339 offset", "2024-01-15T11:00:00+01:00", want},
		{"naive", "2024-01-15T10:00:00", want},
		{"naive microseconds", "2024-01-15T10:00:00.000000", want},
		{"space separated", "2024-01-15 10:00:00", want},
		{"datetime-local", "2024-01-15T10:00", want},
		{"date only", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := ParseTimestamp(tt.input)
			require.True(t, ts.Valid())
			assert.True(t, tt.want.Equal(ts.Time()))
			assert.Equal(t, time.UTC, ts.Time().Location())
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"tomorrow", "2024-13-40", "15/01/2024"} {
		ts := ParseTimestamp(input)
		assert.False(t, ts.Valid(), input)
		assert.False(t, ts.IsZero(), input)
		assert.Equal(t, input, ts.String())
		assert.True(t, ts.Time().IsZero())
	}

	empty := ParseTimestamp("   ")
	assert.True(t, empty.IsZero())

	_, err := ParseTimestampStrict("nope")
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestTimestamp_Before(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, TimestampOf(now.Add(-time.Second)).Before(now))
	assert.False(t, TimestampOf(now).Before(now), "strictly before")
	assert.False(t, ParseTimestamp("garbage").Before(now))
	assert.False(t, Timestamp{}.Before(now))
}

func TestTimestamp_JSONRoundTripKeepsRawText(t *testing.T) {
	type wrapper struct {
		At Timestamp `json:"at"`
	}

	for _, raw := range []string{`{"at":"2024-01-15T10:00:00"}`, `{"at":"garbage"}`, `{"at":null}`} {
		var w wrapper
		require.NoError(t, json.Unmarshal([]byte(raw), &w))
		out, err := json.Marshal(w)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"at": 12345}`), &w), "non-string values never fail decoding")
	assert.False(t, w.At.Valid())
}

func TestFormatTimestamp(t *testing.T) {
	ts := ParseTimestamp("2024-01-05T09:07:00Z")
	assert.Equal(t, "Jan 05, 2024 09:07", FormatTimestamp(ts, nil))
	assert.Equal(t, "Invalid Date", FormatTimestamp(ParseTimestamp("x"), time.UTC))
}

func TestParseTimestampIn_ReadsWallClockInZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	ts := ParseTimestampIn("2025-01-31T17:00", loc)
	require.True(t, ts.Valid())
	assert.Equal(t, time.Date(2025, 1, 31, 22, 0, 0, 0, time.UTC), ts.Time())
	assert.Equal(t, "2025-01-31T22:00:00Z", ts.String(), "sent as a UTC instant")
	assert.Equal(t, "Jan 31, 2025 17:00", FormatTimestamp(ts, loc))

	// Wire values stay naive UTC.
	assert.Equal(t, time.Date(2025, 1, 31, 17, 0, 0, 0, time.UTC), ParseTimestamp("2025-01-31T17:00").Time())

	// An explicit offset wins over loc.
	assert.Equal(t, time.Date(2025, 1, 31, 17, 0, 0, 0, time.UTC), ParseTimestampIn("2025-01-31T17:00:00Z", loc).Time())

	assert.True(t, ParseTimestampIn("  ", loc).IsZero())
	assert.False(t, ParseTimestampIn("tomorrow", loc).Valid())
	assert.Equal(t, ParseTimestamp("2025-01-31T17:00").Time(), ParseTimestampIn("2025-01-31T17:00", nil).Time())
}

func TestParseTimestampIn_PastCheckUsesSameZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2025, 1, 31, 10, 0, 0, 0, loc)

	err := ValidateDraft(TaskDraft{Title: "Report", Deadline: ParseTimestampIn("2025-01-31T12:00", loc), Priority: TaskPriorityMedium}, now)
	assert.NoError(t, err)

	err = ValidateDraft(TaskDraft{Title: "Report", Deadline: ParseTimestampIn("2025-01-31T09:00", loc), Priority: TaskPriorityMedium}, now)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Deadline cannot be in the past", ve.Issue("deadline"))
}
