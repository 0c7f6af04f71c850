package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDecodeDays(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []time.Weekday
	}{
		{name: "monday thursday", code: "MR", want: []time.Weekday{time.Monday, time.Thursday}},
		{name: "tuesday thursday", code: "TR", want: []time.Weekday{time.Tuesday, time.Thursday}},
		{name: "mwf", code: "MWF", want: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{name: "weekend", code: "US", want: []time.Weekday{time.Sunday, time.Saturday}},
		{name: "empty", code: "", want: []time.Weekday{}},
		{name: "unknown characters ignored", code: "XZ9", want: []time.Weekday{}},
		{name: "mixed known and unknown", code: "M-W", want: []time.Weekday{time.Monday, time.Wednesday}},
		{name: "duplicates collapse", code: "MMM", want: []time.Weekday{time.Monday}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeDays(tc.code).Weekdays())
		})
	}
}

func TestDaySetContains(t *testing.T) {
	days := DecodeDays("TR")
	assert.True(t, days.Contains(time.Tuesday))
	assert.True(t, days.Contains(time.Thursday))
	assert.False(t, days.Contains(time.Monday))
	assert.False(t, DaySet(0).Contains(time.Monday))
}

func TestDaySetIntersects(t *testing.T) {
	assert.True(t, DecodeDays("MWF").Intersects(DecodeDays("F")))
	assert.True(t, DecodeDays("TR").Intersects(DecodeDays("RF")))
	assert.False(t, DecodeDays("MWF").Intersects(DecodeDays("TR")))
	assert.False(t, DecodeDays("").Intersects(DecodeDays("MTWRF")))
}

func TestDaySetString(t *testing.T) {
	assert.Equal(t, "Monday/Thursday", DecodeDays("MR").String())
	assert.Equal(t, "", DaySet(0).String())
}

func TestDecodeDaysOrderInsensitive(t *testing.T) {
	// The set is canonical regardless of the order codes appear in.
	rapid.Check(t, func(t *rapid.T) {
		codes := rapid.SliceOfN(rapid.SampledFrom([]rune("UMTWRFS")), 0, 10).Draw(t, "codes")
		forward := string(codes)
		reversed := make([]rune, len(codes))
		for i, r := range codes {
			reversed[len(codes)-1-i] = r
		}
		assert.Equal(t, DecodeDays(forward), DecodeDays(string(reversed)))
	})
}

func TestDecodeDaysIgnoresNoise(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.StringMatching(`[UMTWRFS]{0,7}`).Draw(t, "code")
		noise := rapid.StringMatching(`[a-z0-9 ]{0,5}`).Draw(t, "noise")
		assert.Equal(t, DecodeDays(code), DecodeDays(code+noise))
	})
}

func TestDecodeDaysSubsetOfWeek(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.String().Draw(t, "code")
		days := DecodeDays(code)
		for _, d := range days.Weekdays() {
			assert.True(t, strings.ContainsRune("UMTWRFS", dayCode(d)))
		}
	})
}

// dayCode is the inverse of the decode table, test-side only.
func dayCode(d time.Weekday) rune {
	return []rune("UMTWRFS")[int(d)]
}
