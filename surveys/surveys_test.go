package surveys

import (
	"strings"
	"testing"
)

const testSurvey = `household_id,interview_date,improved_water,improved_sanitation,animals_present,children_under5
h-001,2023-06-12,1,0,1,2
H-002,06/14/2023,0,1,,0
H-003,,1,1,0,1
`

func TestLoad(t *testing.T) {
	households, err := Load(strings.NewReader(testSurvey))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(households) != 3 {
		t.Fatalf("Load: got %d households, expected 3", len(households))
	}

	if households[0].HouseholdID != "H-001" {
		t.Fatalf("Load: household ID %q was not normalized", households[0].HouseholdID)
	}

	if got := households[0].Interviewed; got.Year() != 2023 || got.Month() != 6 || got.Day() != 12 {
		t.Fatalf("Load: interview date parsed as %v", got)
	}

	// Both date formats in the fixture resolve to June 2023.
	if got := households[1].Interviewed; got.Year() != 2023 || got.Month() != 6 || got.Day() != 14 {
		t.Fatalf("Load: US-style interview date parsed as %v", got)
	}

	if households[1].AnimalsPresent.Valid {
		t.Fatalf("Load: blank animals_present should be null")
	}

	if !households[2].Interviewed.IsZero() {
		t.Fatalf("Load: blank interview date should stay zero")
	}
}

func TestLoadRejectsBadRows(t *testing.T) {
	for _, csv := range []string{
		"household_id,improved_water\n,1\n",      // blank ID
		"household_id,improved_water\nH-001,2\n", // non-binary exposure
		"household_id,interview_date\nH-001,not a date\n",
		"household_id,children_under5\nH-001,-1\n",
	} {
		if _, err := Load(strings.NewReader(csv)); err == nil {
			t.Fatalf("Load: expected an error for %q", csv)
		}
	}
}

func TestIndex(t *testing.T) {
	households, err := Load(strings.NewReader(testSurvey))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	byID, err := Index(households)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	if _, exists := byID["H-002"]; !exists {
		t.Fatalf("Index: H-002 missing")
	}

	if _, err := Index(append(households, households[0])); err == nil {
		t.Fatalf("Index: expected an error for a duplicate household ID")
	}
}
