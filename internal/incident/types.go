// Package incident holds the per-incident record types and the cleaning and
// imputation stages that prepare raw event rows for aggregation.
package incident

import (
	"strings"
	"time"
)

// DateLayout is the month/day/year pattern incident dates arrive in.
const DateLayout = "01/02/2006"

// Category is a value drawn from a categorical attribute domain. Values are
// canonicalized to upper case; absent or placeholder values map to Unknown.
type Category string

// Unknown is the sentinel for a missing or unusable categorical value.
const Unknown Category = "UNKNOWN"

// placeholders are raw spellings treated as missing.
var placeholders = map[string]bool{
	"":        true,
	"U":       true,
	"UNKNOWN": true,
	"NULL":    true,
	"(NULL)":  true,
	"NA":      true,
	"N/A":     true,
}

// Normalize canonicalizes a raw categorical value. Unseen values become a
// new category rather than an error; the domain is closed only in the sense
// that spellings are normalized.
func Normalize(raw string) Category {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if placeholders[v] {
		return Unknown
	}
	return Category(v)
}

// IsUnknown reports whether the category is the missing-value sentinel.
func (c Category) IsUnknown() bool {
	return c == Unknown || c == ""
}

// IncidentRecord is a raw incident row as produced by the ingestion
// collaborator. All fields are untyped strings; Cleaner owns coercion.
type IncidentRecord struct {
	OccurDate    string `json:"occur_date"`
	Area         string `json:"area"`
	Precinct     string `json:"precinct"`
	Jurisdiction string `json:"jurisdiction"`
	PerpAgeGroup string `json:"perp_age_group"`
	PerpSex      string `json:"perp_sex"`
	PerpRace     string `json:"perp_race"`
	VictimAge    string `json:"victim_age_group"`
	VictimSex    string `json:"victim_sex"`
	VictimRace   string `json:"victim_race"`
	Fatal        string `json:"fatal"`

	// Fields dropped during cleaning: not consumed by any downstream stage.
	OccurTime    string `json:"occur_time,omitempty"`
	LocationDesc string `json:"location_desc,omitempty"`
	Latitude     string `json:"latitude,omitempty"`
	Longitude    string `json:"longitude,omitempty"`
}

// CleanedRecord is an incident with its date parsed and every categorical
// attribute mapped onto the canonical domain. One CleanedRecord per source
// IncidentRecord; cleaning never drops rows.
type CleanedRecord struct {
	Date         time.Time `json:"date"`
	Area         Category  `json:"area"`
	Precinct     Category  `json:"precinct"`
	Jurisdiction Category  `json:"jurisdiction"`
	PerpAgeGroup Category  `json:"perp_age_group"`
	PerpSex      Category  `json:"perp_sex"`
	PerpRace     Category  `json:"perp_race"`
	VictimAge    Category  `json:"victim_age_group"`
	VictimSex    Category  `json:"victim_sex"`
	VictimRace   Category  `json:"victim_race"`
	Fatal        bool      `json:"fatal"`
}
