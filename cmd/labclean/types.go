package main

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"

	labkit "github.com/openwash/labkit"
	"gopkg.in/guregu/null.v3"
)

// rawSample mirrors one row of the bench's microbiology export. Numeric
// fields are nullable because the techs leave cells blank rather than
// writing zeros.
type rawSample struct {
	SampleID         string     `csv:"sample_id"`
	HouseholdID      string     `csv:"household_id"`
	SampleType       string     `csv:"sample_type"`
	CollectionDate   string     `csv:"collection_date"`
	DilutionFactor   null.Float `csv:"dilution_factor"`
	LargeWells       null.Int   `csv:"large_wells_positive"`
	SmallWells       null.Int   `csv:"small_wells_positive"`
	ElutionVolumeML  null.Float `csv:"elution_volume_ml"`
	WetMassG         null.Float `csv:"wet_mass_g"`
	MoistureFraction null.Float `csv:"moisture_fraction"`
	ESBL             null.Int   `csv:"esbl_positive"`
}

// rawWell mirrors one row of the TAC instrument export. Ct stays a string
// here because the instrument writes "Undetermined" for wells that never
// crossed threshold.
type rawWell struct {
	SampleID string `csv:"sample_id"`
	CardID   string `csv:"card_id"`
	Target   string `csv:"target"`
	Ct       string `csv:"ct"`
}

// useDetectedDelimiter points gocsv at whichever delimiter the export
// actually uses; the instrument software writes commas but the bench
// spreadsheets are sometimes saved as TSV.
func useDetectedDelimiter(fileBytes []byte) {
	delimiter := labkit.DetermineDelimiter(bytes.NewReader(fileBytes))

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delimiter
		r.LazyQuotes = true
		return r
	})
}

func importMicro(path string) ([]*rawSample, error) {
	fileBytes, err := labkit.OpenFileOrURL(path)
	if err != nil {
		return nil, err
	}

	useDetectedDelimiter(fileBytes)

	records := []*rawSample{}
	if err := gocsv.UnmarshalBytes(bytes.TrimSpace(fileBytes), &records); err != nil {
		return nil, err
	}

	return records, nil
}

func importTAC(path string) ([]*rawWell, error) {
	fileBytes, err := labkit.OpenFileOrURL(path)
	if err != nil {
		return nil, err
	}

	useDetectedDelimiter(fileBytes)

	records := []*rawWell{}
	if err := gocsv.UnmarshalBytes(bytes.TrimSpace(fileBytes), &records); err != nil {
		return nil, err
	}

	return records, nil
}
