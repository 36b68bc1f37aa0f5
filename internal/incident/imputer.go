package incident

import (
	"context"
	"log/slog"
	"sort"

	"shockcast/internal/errors"
)

// Strategy fills missing perpetrator-race values. Implementations must be
// pure: input records are never mutated and no record is dropped. The
// substitution statistics are computed once from the pre-imputation
// distribution and applied uniformly.
type Strategy interface {
	Name() string
	Impute(ctx context.Context, records []CleanedRecord) ([]CleanedRecord, *Report, error)
}

// Report documents what an imputation pass did. The single-category
// substitution is a known source of bias, so the report is part of the
// pipeline output rather than a log line.
type Report struct {
	Strategy     string     `json:"strategy"`
	ModalSex     Category   `json:"modal_sex"`
	TopAgeGroups []Category `json:"top_age_groups"`
	ImputedRace  Category   `json:"imputed_race"`
	Imputed      int        `json:"imputed"`
	Total        int        `json:"total"`
}

// ModeStrategy substitutes the modal race among the modal-sex, top-two
// age-bracket subset for every missing race value. Ties on equal frequency
// are broken deterministically in favor of the category that appears first
// in the record sequence.
type ModeStrategy struct {
	logger *slog.Logger
}

// NewModeStrategy creates the default mode-based imputation strategy.
func NewModeStrategy(logger *slog.Logger) *ModeStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModeStrategy{logger: logger}
}

// Name identifies the strategy in reports.
func (s *ModeStrategy) Name() string { return "mode" }

// Impute fills every missing or unknown perpetrator race with the modal
// category described above. Output cardinality equals input cardinality.
func (s *ModeStrategy) Impute(ctx context.Context, records []CleanedRecord) ([]CleanedRecord, *Report, error) {
	sexes := newModeCounter()
	for _, r := range records {
		sexes.Add(r.PerpSex)
	}
	modalSex := sexes.Mode()

	ages := newModeCounter()
	for _, r := range records {
		if r.PerpSex == modalSex {
			ages.Add(r.PerpAgeGroup)
		}
	}
	topAges := ages.Top(2)

	races := newModeCounter()
	for _, r := range records {
		if r.PerpSex == modalSex && containsCategory(topAges, r.PerpAgeGroup) {
			races.Add(r.PerpRace)
		}
	}
	imputedRace := races.Mode()
	if imputedRace.IsUnknown() {
		// Subset carries no observed race; fall back to the full population.
		all := newModeCounter()
		for _, r := range records {
			all.Add(r.PerpRace)
		}
		imputedRace = all.Mode()
	}
	if imputedRace.IsUnknown() {
		return nil, nil, errors.ValidationError("no observed race values to impute from")
	}

	out := make([]CleanedRecord, len(records))
	copy(out, records)

	imputed := 0
	for i := range out {
		if out[i].PerpRace.IsUnknown() {
			out[i].PerpRace = imputedRace
			imputed++
		}
	}

	report := &Report{
		Strategy:     s.Name(),
		ModalSex:     modalSex,
		TopAgeGroups: topAges,
		ImputedRace:  imputedRace,
		Imputed:      imputed,
		Total:        len(records),
	}

	s.logger.InfoContext(ctx, "imputation completed",
		"strategy", report.Strategy,
		"modal_sex", string(report.ModalSex),
		"imputed_race", string(report.ImputedRace),
		"imputed", report.Imputed,
		"total", report.Total,
	)

	return out, report, nil
}

// modeCounter counts category frequencies while remembering first-appearance
// order, so frequency ties resolve the same way on every run.
type modeCounter struct {
	order  []Category
	counts map[Category]int
}

func newModeCounter() *modeCounter {
	return &modeCounter{counts: make(map[Category]int)}
}

// Add counts a category; missing values are excluded from the distribution.
func (m *modeCounter) Add(c Category) {
	if c.IsUnknown() {
		return
	}
	if _, seen := m.counts[c]; !seen {
		m.order = append(m.order, c)
	}
	m.counts[c]++
}

// Top returns the n most frequent categories, ties broken by first
// appearance.
func (m *modeCounter) Top(n int) []Category {
	ranked := make([]Category, len(m.order))
	copy(ranked, m.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return m.counts[ranked[i]] > m.counts[ranked[j]]
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Mode returns the single most frequent category, or Unknown when nothing
// was counted.
func (m *modeCounter) Mode() Category {
	top := m.Top(1)
	if len(top) == 0 {
		return Unknown
	}
	return top[0]
}

func containsCategory(cats []Category, c Category) bool {
	for _, v := range cats {
		if v == c {
			return true
		}
	}
	return false
}
