// Package labdata defines the cleaned-file schemas that chain the workshop
// stages together. Stage 1 writes these files; stages 2 and 3 read them.
// There is no in-process API between stages, only the CSVs.
package labdata

import (
	"os"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// Sample type labels used across the workshop.
const (
	TypeWater     = "water"
	TypeSoil      = "soil"
	TypeHandRinse = "hand_rinse"
)

// Units for the adjusted MPN column.
const (
	UnitsPer100ML   = "per_100ml"
	UnitsPerGramDry = "per_g_dry"
)

// Sample is one row of micro_clean.csv: a culture result with its adjusted
// MPN, log transform, and censoring status.
type Sample struct {
	SampleID    string   `csv:"sample_id"`
	HouseholdID string   `csv:"household_id"`
	SampleType  string   `csv:"sample_type"`
	Collected   string   `csv:"collection_date"`
	MPN         float64  `csv:"mpn"`
	Units       string   `csv:"units"`
	Log10MPN    float64  `csv:"log10_mpn"`
	Censoring   string   `csv:"censoring"`
	ESBL        null.Int `csv:"esbl_positive"`
}

// Detection is one row of tac_clean.csv: a single target call on a valid
// card. Wells from cards that failed control checks never reach this file.
type Detection struct {
	SampleID string     `csv:"sample_id"`
	CardID   string     `csv:"card_id"`
	Target   string     `csv:"target"`
	Ct       null.Float `csv:"ct"`
	Detected int        `csv:"detected"`
}

func ReadSamples(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	records := []*Sample{}
	if err := gocsv.Unmarshal(f, &records); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]Sample, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}

	return out, nil
}

func WriteSamples(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return pfx.Err(gocsv.Marshal(&samples, f))
}

func ReadDetections(path string) ([]Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	records := []*Detection{}
	if err := gocsv.Unmarshal(f, &records); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]Detection, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}

	return out, nil
}

func WriteDetections(path string, detections []Detection) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return pfx.Err(gocsv.Marshal(&detections, f))
}
