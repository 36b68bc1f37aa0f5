package incident

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shockcast/internal/errors"
)

// Cleaner coerces raw incident rows into CleanedRecords under a fixed static
// schema: dates under DateLayout, categorical fields through Normalize, the
// severity flag into a bool. Fields outside the schema are dropped. A date or
// flag that does not parse is fatal; downstream ordering depends on it.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a Cleaner.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger}
}

// Clean transforms every raw record into a CleanedRecord. Output cardinality
// equals input cardinality; the source slice is never mutated.
func (c *Cleaner) Clean(ctx context.Context, records []IncidentRecord) ([]CleanedRecord, error) {
	cleaned := make([]CleanedRecord, 0, len(records))

	for i, r := range records {
		date, err := time.Parse(DateLayout, strings.TrimSpace(r.OccurDate))
		if err != nil {
			c.logger.ErrorContext(ctx, "date parse failed",
				"row", i,
				"value", r.OccurDate,
			)
			return nil, errors.ParseError("occur_date", r.OccurDate, err)
		}

		fatal, err := parseFatalFlag(r.Fatal)
		if err != nil {
			c.logger.ErrorContext(ctx, "severity flag parse failed",
				"row", i,
				"value", r.Fatal,
			)
			return nil, errors.ParseError("fatal", r.Fatal, err)
		}

		cleaned = append(cleaned, CleanedRecord{
			Date:         date,
			Area:         Normalize(r.Area),
			Precinct:     Normalize(r.Precinct),
			Jurisdiction: Normalize(r.Jurisdiction),
			PerpAgeGroup: Normalize(r.PerpAgeGroup),
			PerpSex:      Normalize(r.PerpSex),
			PerpRace:     Normalize(r.PerpRace),
			VictimAge:    Normalize(r.VictimAge),
			VictimSex:    Normalize(r.VictimSex),
			VictimRace:   Normalize(r.VictimRace),
			Fatal:        fatal,
		})
	}

	c.logger.InfoContext(ctx, "cleaning completed", "records", len(cleaned))
	return cleaned, nil
}

// parseFatalFlag coerces the raw severity flag into a bool.
func parseFatalFlag(raw string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TRUE", "T", "Y", "YES", "1":
		return true, nil
	case "FALSE", "F", "N", "NO", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized severity flag %q", raw)
	}
}
