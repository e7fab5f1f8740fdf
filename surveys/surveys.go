// Package surveys loads the household questionnaire data that stage 3 joins
// against the cleaned lab results.
package surveys

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// Household is one survey row. The binary exposures are nullable so that a
// skipped question is distinguishable from a "no".
type Household struct {
	HouseholdID        string   `csv:"household_id"`
	InterviewDate      string   `csv:"interview_date"`
	ImprovedWater      null.Int `csv:"improved_water"`
	ImprovedSanitation null.Int `csv:"improved_sanitation"`
	AnimalsPresent     null.Int `csv:"animals_present"`
	ChildrenUnderFive  null.Int `csv:"children_under5"`

	// Interviewed is the parsed form of InterviewDate.
	Interviewed time.Time `csv:"-"`
}

// Load parses survey rows, normalizes household IDs, and parses interview
// dates leniently (the field teams recorded them in several formats).
func Load(r io.Reader) ([]Household, error) {
	records := []*Household{}

	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]Household, 0, len(records))
	for i, record := range records {
		record.HouseholdID = strings.ToUpper(strings.TrimSpace(record.HouseholdID))
		if record.HouseholdID == "" {
			return nil, fmt.Errorf("surveys: row %d has no household ID", i+1)
		}

		if record.InterviewDate != "" {
			parsed, err := dateparse.ParseAny(record.InterviewDate)
			if err != nil {
				return nil, fmt.Errorf("surveys: row %d: unparseable interview date %q", i+1, record.InterviewDate)
			}
			record.Interviewed = parsed
		}

		for _, v := range []struct {
			Name  string
			Value null.Int
		}{
			{"improved_water", record.ImprovedWater},
			{"improved_sanitation", record.ImprovedSanitation},
			{"animals_present", record.AnimalsPresent},
		} {
			if v.Value.Valid && v.Value.Int64 != 0 && v.Value.Int64 != 1 {
				return nil, fmt.Errorf("surveys: row %d: %s is %d, expected 0 or 1", i+1, v.Name, v.Value.Int64)
			}
		}

		if record.ChildrenUnderFive.Valid && record.ChildrenUnderFive.Int64 < 0 {
			return nil, fmt.Errorf("surveys: row %d: negative children_under5", i+1)
		}

		out = append(out, *record)
	}

	return out, nil
}

// Index maps households by ID for joining. Duplicate IDs are an error: the
// survey is one row per household.
func Index(households []Household) (map[string]Household, error) {
	out := make(map[string]Household, len(households))

	for _, h := range households {
		if _, exists := out[h.HouseholdID]; exists {
			return nil, fmt.Errorf("surveys: duplicate household ID %s", h.HouseholdID)
		}
		out[h.HouseholdID] = h
	}

	return out, nil
}
