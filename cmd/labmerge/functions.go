package main

import (
	"fmt"
	"log"

	fet "github.com/glycerine/golang-fisher-exact"
	"gopkg.in/guregu/null.v3"

	"github.com/openwash/labkit/describe"
	"github.com/openwash/labkit/labdata"
	"github.com/openwash/labkit/surveys"
)

// MergedRow is one lab result with its household's survey answers attached.
type MergedRow struct {
	SampleID           string   `csv:"sample_id"`
	HouseholdID        string   `csv:"household_id"`
	SampleType         string   `csv:"sample_type"`
	Collected          string   `csv:"collection_date"`
	MPN                float64  `csv:"mpn"`
	Units              string   `csv:"units"`
	Log10MPN           float64  `csv:"log10_mpn"`
	Censoring          string   `csv:"censoring"`
	ESBL               null.Int `csv:"esbl_positive"`
	ImprovedWater      null.Int `csv:"improved_water"`
	ImprovedSanitation null.Int `csv:"improved_sanitation"`
	AnimalsPresent     null.Int `csv:"animals_present"`
	ChildrenUnderFive  null.Int `csv:"children_under5"`
}

// TestRow is one hypothesis test result. Mean0/Mean1 are group means for the
// t-tests and group prevalences for the Fisher test.
type TestRow struct {
	Outcome   string  `csv:"outcome"`
	Exposure  string  `csv:"exposure"`
	Method    string  `csv:"method"`
	N0        int     `csv:"n0"`
	N1        int     `csv:"n1"`
	Mean0     float64 `csv:"mean0"`
	Mean1     float64 `csv:"mean1"`
	Statistic float64 `csv:"statistic"`
	DF        float64 `csv:"df"`
	P         float64 `csv:"p"`
}

// RegressionRow is one fitted term of the stage 3 regression.
type RegressionRow struct {
	Term   string  `csv:"term"`
	Beta   float64 `csv:"beta"`
	StdErr float64 `csv:"stderr"`
	T      float64 `csv:"t"`
	P      float64 `csv:"p"`
	N      int     `csv:"n"`
	R2     float64 `csv:"r2"`
}

// Merge left-joins lab samples onto the survey by household ID. Samples
// without a matching household are returned separately so they end up in
// unmatched.csv rather than vanishing.
func Merge(samples []labdata.Sample, byID map[string]surveys.Household) ([]MergedRow, []labdata.Sample) {
	var merged []MergedRow
	var unmatched []labdata.Sample

	for _, s := range samples {
		h, exists := byID[s.HouseholdID]
		if !exists {
			unmatched = append(unmatched, s)
			continue
		}

		merged = append(merged, MergedRow{
			SampleID:           s.SampleID,
			HouseholdID:        s.HouseholdID,
			SampleType:         s.SampleType,
			Collected:          s.Collected,
			MPN:                s.MPN,
			Units:              s.Units,
			Log10MPN:           s.Log10MPN,
			Censoring:          s.Censoring,
			ESBL:               s.ESBL,
			ImprovedWater:      h.ImprovedWater,
			ImprovedSanitation: h.ImprovedSanitation,
			AnimalsPresent:     h.AnimalsPresent,
			ChildrenUnderFive:  h.ChildrenUnderFive,
		})
	}

	return merged, unmatched
}

type exposure struct {
	Name  string
	Value func(MergedRow) null.Int
}

func exposures() []exposure {
	return []exposure{
		{"improved_water", func(r MergedRow) null.Int { return r.ImprovedWater }},
		{"improved_sanitation", func(r MergedRow) null.Int { return r.ImprovedSanitation }},
		{"animals_present", func(r MergedRow) null.Int { return r.AnimalsPresent }},
	}
}

// ExposureTTests runs Welch's t-test of log10 MPN against each binary
// exposure, within one sample type. Exposures without at least two
// observations per group are skipped with a note rather than failing the
// whole stage.
func ExposureTTests(rows []MergedRow, sampleType string) ([]TestRow, error) {
	var out []TestRow

	for _, exp := range exposures() {
		var group0, group1 []float64

		for _, row := range rows {
			if row.SampleType != sampleType {
				continue
			}

			v := exp.Value(row)
			if !v.Valid {
				continue
			}

			if v.Int64 == 1 {
				group1 = append(group1, row.Log10MPN)
			} else {
				group0 = append(group0, row.Log10MPN)
			}
		}

		if len(group0) < 2 || len(group1) < 2 {
			log.Printf("Skipping the %s t-test: group sizes %d and %d\n", exp.Name, len(group0), len(group1))
			continue
		}

		result, err := describe.WelchT(group0, group1)
		if err != nil {
			return nil, fmt.Errorf("t-test for %s: %w", exp.Name, err)
		}

		out = append(out, TestRow{
			Outcome:   "log10_mpn_" + sampleType,
			Exposure:  exp.Name,
			Method:    "welch_t",
			N0:        result.N1,
			N1:        result.N2,
			Mean0:     result.Mean1,
			Mean1:     result.Mean2,
			Statistic: result.T,
			DF:        result.DF,
			P:         result.P,
		})
	}

	return out, nil
}

// ESBLFisher tests ESBL detection against improved sanitation with Fisher's
// exact test, across all sample types with an ESBL read.
func ESBLFisher(rows []MergedRow) (TestRow, error) {
	// n11: improved & positive, n12: improved & negative,
	// n21: unimproved & positive, n22: unimproved & negative.
	var n11, n12, n21, n22 int

	for _, row := range rows {
		if !row.ESBL.Valid || !row.ImprovedSanitation.Valid {
			continue
		}

		positive := row.ESBL.Int64 == 1
		switch {
		case row.ImprovedSanitation.Int64 == 1 && positive:
			n11++
		case row.ImprovedSanitation.Int64 == 1:
			n12++
		case positive:
			n21++
		default:
			n22++
		}
	}

	improved, unimproved := n11+n12, n21+n22
	if improved == 0 || unimproved == 0 {
		return TestRow{}, fmt.Errorf("fisher test needs ESBL reads in both sanitation groups (got %d improved, %d unimproved)", improved, unimproved)
	}

	_, _, _, twop := fet.FisherExactTest(n11, n12, n21, n22)

	return TestRow{
		Outcome:  "esbl_positive",
		Exposure: "improved_sanitation",
		Method:   "fisher_exact",
		N0:       unimproved,
		N1:       improved,
		Mean0:    float64(n21) / float64(unimproved),
		Mean1:    float64(n11) / float64(improved),
		P:        twop,
	}, nil
}

// Regression fits log10 MPN on the survey exposures over complete cases of
// one sample type.
func Regression(rows []MergedRow, sampleType string) ([]RegressionRow, error) {
	names := []string{"improved_water", "improved_sanitation", "animals_present", "children_under5"}

	var y []float64
	columns := make([][]float64, len(names))

	for _, row := range rows {
		if row.SampleType != sampleType {
			continue
		}

		if !row.ImprovedWater.Valid || !row.ImprovedSanitation.Valid || !row.AnimalsPresent.Valid || !row.ChildrenUnderFive.Valid {
			continue
		}

		y = append(y, row.Log10MPN)
		columns[0] = append(columns[0], float64(row.ImprovedWater.Int64))
		columns[1] = append(columns[1], float64(row.ImprovedSanitation.Int64))
		columns[2] = append(columns[2], float64(row.AnimalsPresent.Int64))
		columns[3] = append(columns[3], float64(row.ChildrenUnderFive.Int64))
	}

	fit, err := describe.OLS(names, y, columns)
	if err != nil {
		return nil, fmt.Errorf("regression over %d complete cases: %w", len(y), err)
	}

	out := make([]RegressionRow, 0, len(fit.Coefficients))
	for _, coef := range fit.Coefficients {
		out = append(out, RegressionRow{
			Term:   coef.Name,
			Beta:   coef.Beta,
			StdErr: coef.StdErr,
			T:      coef.T,
			P:      coef.P,
			N:      fit.N,
			R2:     fit.R2,
		})
	}

	return out, nil
}
