package labdata

import (
	"path/filepath"
	"testing"

	"gopkg.in/guregu/null.v3"
)

// Null fields must survive the trip to disk as blanks, not zeros: a missing
// ESBL result is not a negative one.
func TestNullFieldsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "micro_clean.csv")

	samples := []Sample{
		{SampleID: "S-001", HouseholdID: "H-001", SampleType: TypeWater, MPN: 120.5, Units: UnitsPer100ML, Log10MPN: 2.081, Censoring: "none", ESBL: null.IntFrom(1)},
		{SampleID: "S-002", HouseholdID: "H-001", SampleType: TypeSoil, MPN: 75, Units: UnitsPerGramDry, Log10MPN: 1.875, Censoring: "none"},
	}

	if err := WriteSamples(path, samples); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}

	got, err := ReadSamples(path)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("ReadSamples: got %d rows, expected 2", len(got))
	}

	if !got[0].ESBL.Valid || got[0].ESBL.Int64 != 1 {
		t.Fatalf("ReadSamples: ESBL %+v, expected 1", got[0].ESBL)
	}

	if got[1].ESBL.Valid {
		t.Fatalf("ReadSamples: missing ESBL came back as %+v, expected null", got[1].ESBL)
	}
}

func TestDetectionsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tac_clean.csv")

	detections := []Detection{
		{SampleID: "S-001", CardID: "C-01", Target: "Giardia", Ct: null.FloatFrom(31.2), Detected: 1},
		{SampleID: "S-001", CardID: "C-01", Target: "Shigella_EIEC", Detected: 0},
	}

	if err := WriteDetections(path, detections); err != nil {
		t.Fatalf("WriteDetections: %v", err)
	}

	got, err := ReadDetections(path)
	if err != nil {
		t.Fatalf("ReadDetections: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("ReadDetections: got %d rows, expected 2", len(got))
	}

	if got[1].Ct.Valid {
		t.Fatalf("ReadDetections: undetermined Ct came back as %+v, expected null", got[1].Ct)
	}
}
