package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"

	labkit "github.com/openwash/labkit"
	"github.com/openwash/labkit/labdata"
	"github.com/openwash/labkit/mpn"
	"github.com/openwash/labkit/tac"
)

// Reject is one discarded input record and the reason it was discarded.
// Nothing is dropped silently: every raw row ends up in a cleaned file or
// here.
type Reject struct {
	Source string `csv:"source"`
	ID     string `csv:"id"`
	Reason string `csv:"reason"`
}

func WriteRejects(path string, rejects []Reject) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.Marshal(&rejects, f)
}

func ImportMPNTable(path string) (*mpn.Table, error) {
	fileBytes, err := labkit.OpenFileOrURL(path)
	if err != nil {
		return nil, err
	}

	return mpn.LoadTable(bytes.NewReader(fileBytes))
}

func CleanMicro(path string, estimate func(int, int) (mpn.Estimate, error)) ([]labdata.Sample, []Reject, error) {
	log.Printf("Importing microbiology results from %s\n", path)

	raw, err := importMicro(path)
	if err != nil {
		return nil, nil, err
	}

	var samples []labdata.Sample
	var rejects []Reject
	seen := make(map[string]bool)

	for _, record := range raw {
		cleaned, err := cleanSample(record, estimate)
		if err != nil {
			rejects = append(rejects, Reject{Source: "micro", ID: record.SampleID, Reason: err.Error()})
			continue
		}

		if seen[cleaned.SampleID] {
			rejects = append(rejects, Reject{Source: "micro", ID: cleaned.SampleID, Reason: "duplicate sample ID"})
			continue
		}
		seen[cleaned.SampleID] = true

		samples = append(samples, cleaned)
	}

	return samples, rejects, nil
}

func cleanSample(raw *rawSample, estimate func(int, int) (mpn.Estimate, error)) (labdata.Sample, error) {
	out := labdata.Sample{
		SampleID:    strings.ToUpper(strings.TrimSpace(raw.SampleID)),
		HouseholdID: strings.ToUpper(strings.TrimSpace(raw.HouseholdID)),
		SampleType:  strings.ToLower(strings.TrimSpace(raw.SampleType)),
		ESBL:        raw.ESBL,
	}

	if out.SampleID == "" {
		return labdata.Sample{}, fmt.Errorf("missing sample ID")
	}
	if out.HouseholdID == "" {
		return labdata.Sample{}, fmt.Errorf("missing household ID")
	}

	if raw.CollectionDate != "" {
		collected, err := dateparse.ParseAny(raw.CollectionDate)
		if err != nil {
			return labdata.Sample{}, fmt.Errorf("unparseable collection date %q", raw.CollectionDate)
		}
		out.Collected = collected.Format("2006-01-02")
	}

	if out.ESBL.Valid && out.ESBL.Int64 != 0 && out.ESBL.Int64 != 1 {
		return labdata.Sample{}, fmt.Errorf("esbl_positive is %d, expected 0 or 1", out.ESBL.Int64)
	}

	if !raw.LargeWells.Valid || !raw.SmallWells.Valid {
		return labdata.Sample{}, fmt.Errorf("missing well counts")
	}

	estimated, err := estimate(int(raw.LargeWells.Int64), int(raw.SmallWells.Int64))
	if err != nil {
		return labdata.Sample{}, err
	}

	dilution := 1.0
	if raw.DilutionFactor.Valid {
		dilution = raw.DilutionFactor.Float64
	}

	estimated, err = mpn.AdjustDilution(estimated, dilution)
	if err != nil {
		return labdata.Sample{}, err
	}

	switch out.SampleType {
	case labdata.TypeWater, labdata.TypeHandRinse:
		out.Units = labdata.UnitsPer100ML

	case labdata.TypeSoil:
		if !raw.ElutionVolumeML.Valid || !raw.WetMassG.Valid || !raw.MoistureFraction.Valid {
			return labdata.Sample{}, fmt.Errorf("soil sample is missing elution volume, wet mass, or moisture")
		}

		estimated, err = mpn.PerGramDry(estimated, raw.ElutionVolumeML.Float64, raw.WetMassG.Float64, raw.MoistureFraction.Float64)
		if err != nil {
			return labdata.Sample{}, err
		}
		out.Units = labdata.UnitsPerGramDry

	default:
		return labdata.Sample{}, fmt.Errorf("unknown sample type %q", raw.SampleType)
	}

	out.MPN = estimated.MPNPer100ML
	out.Log10MPN = mpn.Log10(estimated)
	out.Censoring = estimated.Censoring.String()

	return out, nil
}

func CleanTAC(path string, ctCutoff float64) ([]labdata.Detection, []Reject, error) {
	log.Printf("Importing TAC results from %s\n", path)

	raw, err := importTAC(path)
	if err != nil {
		return nil, nil, err
	}

	var rejects []Reject
	cards := make(map[string][]tac.Well)
	panel := make(map[string]bool)
	for _, target := range tac.Panel {
		panel[target] = true
	}

	for _, record := range raw {
		well := tac.Well{
			SampleID: strings.ToUpper(strings.TrimSpace(record.SampleID)),
			CardID:   strings.ToUpper(strings.TrimSpace(record.CardID)),
			Target:   strings.TrimSpace(record.Target),
		}

		if well.SampleID == "" || well.CardID == "" {
			rejects = append(rejects, Reject{Source: "tac", ID: record.SampleID + "/" + record.CardID, Reason: "missing sample or card ID"})
			continue
		}

		if !panel[well.Target] && well.Target != tac.NegativeControl && well.Target != tac.AmplificationControl {
			rejects = append(rejects, Reject{Source: "tac", ID: well.SampleID, Reason: fmt.Sprintf("target %q is not on the panel", record.Target)})
			continue
		}

		ct, err := tac.ParseCt(record.Ct)
		if err != nil {
			rejects = append(rejects, Reject{Source: "tac", ID: well.SampleID, Reason: err.Error()})
			continue
		}
		well.Ct = ct

		cards[well.CardID] = append(cards[well.CardID], well)
	}

	// Card-level control failures invalidate every sample well on the card.
	cardIDs := make([]string, 0, len(cards))
	for cardID := range cards {
		cardIDs = append(cardIDs, cardID)
	}
	sort.Strings(cardIDs)

	var detections []labdata.Detection
	for _, cardID := range cardIDs {
		wells := cards[cardID]

		if err := tac.ValidateCard(wells, ctCutoff); err != nil {
			rejects = append(rejects, Reject{Source: "tac", ID: cardID, Reason: err.Error()})
			continue
		}

		for _, well := range wells {
			if !panel[well.Target] {
				continue // control wells are not reported
			}

			detected := 0
			if well.Detected(ctCutoff) {
				detected = 1
			}

			detections = append(detections, labdata.Detection{
				SampleID: well.SampleID,
				CardID:   well.CardID,
				Target:   well.Target,
				Ct:       well.Ct,
				Detected: detected,
			})
		}
	}

	return detections, rejects, nil
}
