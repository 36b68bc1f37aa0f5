package incident

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shockcast/internal/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Category
	}{
		{"plain value upper-cased", "brooklyn", Category("BROOKLYN")},
		{"whitespace trimmed", "  QUEENS ", Category("QUEENS")},
		{"empty is unknown", "", Unknown},
		{"null placeholder", "(null)", Unknown},
		{"single U placeholder", "U", Unknown},
		{"explicit unknown", "UNKNOWN", Unknown},
		{"unseen value becomes new category", "940", Category("940")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw))
		})
	}
}

func TestCleanerClean(t *testing.T) {
	cleaner := NewCleaner(nil)
	ctx := context.Background()

	t.Run("coerces fields and preserves cardinality", func(t *testing.T) {
		records := []IncidentRecord{
			{
				OccurDate:    "06/15/2017",
				Area:         "bronx",
				Precinct:     "40",
				Jurisdiction: "0",
				PerpAgeGroup: "18-24",
				PerpSex:      "M",
				PerpRace:     "",
				VictimAge:    "25-44",
				VictimSex:    "F",
				VictimRace:   "unknown",
				Fatal:        "true",
				OccurTime:    "23:15:00",
				LocationDesc: "MULTI DWELL",
			},
			{
				OccurDate: "01/02/2006",
				Area:      "QUEENS",
				Fatal:     "false",
			},
		}

		cleaned, err := cleaner.Clean(ctx, records)
		require.NoError(t, err)
		require.Len(t, cleaned, len(records))

		assert.Equal(t, time.Date(2017, 6, 15, 0, 0, 0, 0, time.UTC), cleaned[0].Date)
		assert.Equal(t, Category("BRONX"), cleaned[0].Area)
		assert.Equal(t, Unknown, cleaned[0].PerpRace)
		assert.Equal(t, Unknown, cleaned[0].VictimRace)
		assert.True(t, cleaned[0].Fatal)
		assert.False(t, cleaned[1].Fatal)
	})

	t.Run("source records are untouched", func(t *testing.T) {
		records := []IncidentRecord{{OccurDate: "03/01/2010", Area: "bronx", Fatal: "N"}}
		_, err := cleaner.Clean(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, "bronx", records[0].Area)
	})

	t.Run("malformed date is fatal", func(t *testing.T) {
		records := []IncidentRecord{{OccurDate: "2017-06-15", Fatal: "N"}}
		_, err := cleaner.Clean(ctx, records)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeParseFailed))
	})

	t.Run("malformed severity flag is fatal", func(t *testing.T) {
		records := []IncidentRecord{{OccurDate: "06/15/2017", Fatal: "maybe"}}
		_, err := cleaner.Clean(ctx, records)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeParseFailed))
	})
}

func TestParseFatalFlag(t *testing.T) {
	tests := []struct {
		raw      string
		expected bool
		wantErr  bool
	}{
		{"true", true, false},
		{"Y", true, false},
		{"1", true, false},
		{"FALSE", false, false},
		{"n", false, false},
		{"", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseFatalFlag(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
