package main

import (
	"math"
	"strings"
	"testing"

	"github.com/openwash/labkit/labdata"
	"github.com/openwash/labkit/mpn"
	"github.com/openwash/labkit/tac"
	"gopkg.in/guregu/null.v3"
)

func TestCleanSampleWater(t *testing.T) {
	raw := &rawSample{
		SampleID:       " s-010 ",
		HouseholdID:    "h-004",
		SampleType:     "Water",
		CollectionDate: "2023-07-01",
		DilutionFactor: null.FloatFrom(10),
		LargeWells:     null.IntFrom(1),
		SmallWells:     null.IntFrom(0),
		ESBL:           null.IntFrom(0),
	}

	got, err := cleanSample(raw, mpn.Tray2000)
	if err != nil {
		t.Fatalf("cleanSample: %v", err)
	}

	if got.SampleID != "S-010" || got.HouseholdID != "H-004" || got.SampleType != "water" {
		t.Fatalf("cleanSample: identifiers were not normalized: %+v", got)
	}

	if got.Collected != "2023-07-01" {
		t.Fatalf("cleanSample: collection date %q", got.Collected)
	}

	// One positive large well is ~1.01 MPN/100mL before the 10x dilution.
	if math.Abs(got.MPN-10.1) > 0.5 {
		t.Fatalf("cleanSample: MPN %.2f, expected about 10.1", got.MPN)
	}

	if got.Units != labdata.UnitsPer100ML || got.Censoring != "none" {
		t.Fatalf("cleanSample: units %q censoring %q", got.Units, got.Censoring)
	}
}

func TestCleanSampleSoil(t *testing.T) {
	raw := &rawSample{
		SampleID:         "S-011",
		HouseholdID:      "H-004",
		SampleType:       "soil",
		LargeWells:       null.IntFrom(0),
		SmallWells:       null.IntFrom(0),
		ElutionVolumeML:  null.FloatFrom(300),
		WetMassG:         null.FloatFrom(10),
		MoistureFraction: null.FloatFrom(0.2),
	}

	got, err := cleanSample(raw, mpn.Tray2000)
	if err != nil {
		t.Fatalf("cleanSample: %v", err)
	}

	if got.Censoring != "below_lod" || got.Units != labdata.UnitsPerGramDry {
		t.Fatalf("cleanSample: units %q censoring %q", got.Units, got.Censoring)
	}

	// LOD of 1 MPN/100mL eluate -> 1 * 3 / 8 per gram dry; the log transform
	// halves it as a non-detect.
	if expected := 0.375; math.Abs(got.MPN-expected) > 1e-9 {
		t.Fatalf("cleanSample: MPN %.4f, expected %.4f", got.MPN, expected)
	}

	if expected := math.Log10(0.375 / 2); math.Abs(got.Log10MPN-expected) > 1e-9 {
		t.Fatalf("cleanSample: log10 MPN %.4f, expected %.4f", got.Log10MPN, expected)
	}
}

// A sparse vendor excerpt without the observed combination still cleans:
// the estimator interpolates between the published entries.
func TestCleanSampleSparseTable(t *testing.T) {
	table, err := mpn.LoadTable(strings.NewReader(`large_wells,small_wells,mpn_per_100ml
0,0,1.0
0,2,2.0
2,0,2.0
2,2,4.2
`))
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	raw := &rawSample{
		SampleID:    "S-030",
		HouseholdID: "H-009",
		SampleType:  "water",
		LargeWells:  null.IntFrom(1),
		SmallWells:  null.IntFrom(1),
	}

	got, err := cleanSample(raw, table.Estimate)
	if err != nil {
		t.Fatalf("cleanSample: %v", err)
	}

	if math.Abs(got.MPN-2.3) > 1e-9 || got.Censoring != "none" {
		t.Fatalf("cleanSample: got MPN %.4f censoring %q, expected 2.3 uncensored", got.MPN, got.Censoring)
	}
}

func TestCleanSampleRejects(t *testing.T) {
	base := func() *rawSample {
		return &rawSample{
			SampleID:    "S-020",
			HouseholdID: "H-005",
			SampleType:  "water",
			LargeWells:  null.IntFrom(5),
			SmallWells:  null.IntFrom(1),
		}
	}

	for _, v := range []struct {
		Name   string
		Mutate func(*rawSample)
	}{
		{"missing sample ID", func(r *rawSample) { r.SampleID = " " }},
		{"missing household ID", func(r *rawSample) { r.HouseholdID = "" }},
		{"unknown sample type", func(r *rawSample) { r.SampleType = "sludge" }},
		{"missing well counts", func(r *rawSample) { r.LargeWells = null.Int{} }},
		{"well count out of range", func(r *rawSample) { r.LargeWells = null.IntFrom(50) }},
		{"bad date", func(r *rawSample) { r.CollectionDate = "not a date" }},
		{"bad esbl", func(r *rawSample) { r.ESBL = null.IntFrom(2) }},
		{"soil without moisture", func(r *rawSample) { r.SampleType = "soil" }},
	} {
		raw := base()
		v.Mutate(raw)

		if _, err := cleanSample(raw, mpn.Tray2000); err == nil {
			t.Fatalf("cleanSample: expected an error for %s", v.Name)
		}
	}
}

func TestCleanMicroFixture(t *testing.T) {
	samples, rejects, err := CleanMicro("testdata/micro_raw.csv", mpn.Tray2000)
	if err != nil {
		t.Fatalf("CleanMicro: %v", err)
	}

	if len(samples) != 3 {
		t.Fatalf("CleanMicro: got %d cleaned samples, expected 3: %+v", len(samples), samples)
	}

	// One duplicate, one unknown type, one missing well count.
	if len(rejects) != 3 {
		t.Fatalf("CleanMicro: got %d rejects, expected 3: %+v", len(rejects), rejects)
	}

	byID := make(map[string]labdata.Sample)
	for _, s := range samples {
		byID[s.SampleID] = s
	}

	// All-positive tray at 10x dilution: censored at 10 * ULOQ.
	overRange := byID["S-003"]
	if overRange.Censoring != "above_uloq" || math.Abs(overRange.MPN-10*mpn.ULOQ) > 1e-9 {
		t.Fatalf("CleanMicro: S-003 was %+v, expected over-range at %.1f", overRange, 10*mpn.ULOQ)
	}

	if overRange.Collected != "2023-06-13" {
		t.Fatalf("CleanMicro: S-003 collection date %q was not normalized", overRange.Collected)
	}
}

func TestCleanTACFixture(t *testing.T) {
	detections, rejects, err := CleanTAC("testdata/tac_raw.csv", tac.DefaultCtCutoff)
	if err != nil {
		t.Fatalf("CleanTAC: %v", err)
	}

	// Card C-01 contributes its two panel wells; card C-02's NTC amplified,
	// so the whole card is rejected, as is the off-panel Dengue well.
	if len(detections) != 2 {
		t.Fatalf("CleanTAC: got %d detections, expected 2: %+v", len(detections), detections)
	}

	if len(rejects) != 2 {
		t.Fatalf("CleanTAC: got %d rejects, expected 2: %+v", len(rejects), rejects)
	}

	byTarget := make(map[string]labdata.Detection)
	for _, d := range detections {
		byTarget[d.Target] = d
	}

	if d := byTarget["Giardia"]; d.Detected != 1 || !d.Ct.Valid {
		t.Fatalf("CleanTAC: Giardia call %+v", d)
	}

	if d := byTarget["Shigella_EIEC"]; d.Detected != 0 || d.Ct.Valid {
		t.Fatalf("CleanTAC: Shigella call %+v", d)
	}
}
