package main

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/guregu/null.v3"

	"github.com/openwash/labkit/labdata"
	"github.com/openwash/labkit/mpn"
	"github.com/openwash/labkit/surveys"
	"github.com/openwash/labkit/tac"
)

// MicroRow mirrors the bench's raw microbiology export.
type MicroRow struct {
	SampleID         string `csv:"sample_id"`
	HouseholdID      string `csv:"household_id"`
	SampleType       string `csv:"sample_type"`
	CollectionDate   string `csv:"collection_date"`
	DilutionFactor   string `csv:"dilution_factor"`
	LargeWells       int    `csv:"large_wells_positive"`
	SmallWells       int    `csv:"small_wells_positive"`
	ElutionVolumeML  string `csv:"elution_volume_ml"`
	WetMassG         string `csv:"wet_mass_g"`
	MoistureFraction string `csv:"moisture_fraction"`
	ESBL             string `csv:"esbl_positive"`
}

// TACRow mirrors the instrument's raw export, Ct as text.
type TACRow struct {
	SampleID string `csv:"sample_id"`
	CardID   string `csv:"card_id"`
	Target   string `csv:"target"`
	Ct       string `csv:"ct"`
}

// Baseline log10 concentration by sample type, before the exposure effects.
var baselineLog10 = map[string]float64{
	labdata.TypeWater:     2.0,
	labdata.TypeSoil:      1.6,
	labdata.TypeHandRinse: 1.0,
}

// Per-target TAC detection probabilities on water samples.
var targetDetectP = map[string]float64{
	"Campylobacter_jejuni": 0.25,
	"Cryptosporidium":      0.10,
	"ETEC_LT":              0.30,
	"ETEC_ST":              0.20,
	"Giardia":              0.35,
	"Norovirus_GII":        0.15,
	"Shigella_EIEC":        0.20,
}

// Generate draws the full simulated dataset, cycling each household's
// samples through the sample types. Improved water lowers water
// contamination by 0.8 log10 and improved sanitation lowers everything by
// 0.3 log10, so the stage 3 tests have real effects to find.
func Generate(households, samplesPerHousehold int, seed uint64) Simulation {
	src := rand.NewSource(seed)

	bernoulli := func(p float64) int64 {
		return int64(distuv.Bernoulli{P: p, Src: src}.Rand())
	}
	normal := func(mu, sigma float64) float64 {
		return distuv.Normal{Mu: mu, Sigma: sigma, Src: src}.Rand()
	}
	uniform := func(lo, hi float64) float64 {
		return distuv.Uniform{Min: lo, Max: hi, Src: src}.Rand()
	}

	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	var out Simulation
	for i := 0; i < households; i++ {
		h := surveys.Household{
			HouseholdID:        fmt.Sprintf("H-%03d", i+1),
			InterviewDate:      start.AddDate(0, 0, i/4).Format("2006-01-02"),
			ImprovedWater:      null.IntFrom(bernoulli(0.5)),
			ImprovedSanitation: null.IntFrom(bernoulli(0.4)),
			AnimalsPresent:     null.IntFrom(bernoulli(0.6)),
			ChildrenUnderFive:  null.IntFrom(int64(distuv.Poisson{Lambda: 1.2, Src: src}.Rand())),
		}

		// A few refusals, so the cleaning and complete-case logic have
		// something to chew on.
		if i%17 == 13 {
			h.AnimalsPresent = null.Int{}
		}

		out.Households = append(out.Households, h)

		sampleDate := start.AddDate(0, 0, i/4+1).Format("2006-01-02")

		sampleTypes := []string{labdata.TypeWater, labdata.TypeSoil, labdata.TypeHandRinse}
		for j := 0; j < samplesPerHousehold; j++ {
			sampleType := sampleTypes[j%len(sampleTypes)]
			sampleID := fmt.Sprintf("S-%03d-%d", i+1, j+1)

			log10True := baselineLog10[sampleType] - 0.3*float64(h.ImprovedSanitation.Int64) + normal(0, 0.7)
			if sampleType == labdata.TypeWater {
				log10True -= 0.8 * float64(h.ImprovedWater.Int64)
			}

			row := MicroRow{
				SampleID:       sampleID,
				HouseholdID:    h.HouseholdID,
				SampleType:     sampleType,
				CollectionDate: sampleDate,
				DilutionFactor: "1",
			}

			// Concentration of the assayed eluate, per 100 mL.
			eluate := math.Pow(10, log10True)

			if sampleType == labdata.TypeSoil {
				wetMass := uniform(8, 12)
				moisture := uniform(0.05, 0.35)

				row.ElutionVolumeML = "300"
				row.WetMassG = fmt.Sprintf("%.1f", wetMass)
				row.MoistureFraction = fmt.Sprintf("%.2f", moisture)

				// log10True is per gram dry; invert the bench adjustment to
				// get what the tray actually sees.
				eluate = math.Pow(10, log10True) * wetMass * (1 - moisture) * 100 / 300
			}

			if sampleType == labdata.TypeWater && eluate > 1000 {
				row.DilutionFactor = "10"
				eluate /= 10
			}

			row.LargeWells, row.SmallWells = wellCounts(eluate, src)

			if i%11 != 7 { // occasional unread ESBL plate
				p := 0.12 + 0.18*float64(1-h.ImprovedSanitation.Int64)
				row.ESBL = fmt.Sprintf("%d", bernoulli(p))
			}

			out.Micro = append(out.Micro, row)

			if sampleType == labdata.TypeWater {
				out.TAC = append(out.TAC, tacCard(sampleID, fmt.Sprintf("C-%03d-%d", i+1, j+1), src)...)
			}
		}
	}

	return out
}

// wellCounts draws the positive-well counts a tray would show for an eluate
// concentration, using the same well volumes the MPN estimator assumes.
func wellCounts(per100ML float64, src rand.Source) (large, small int) {
	lambda := per100ML / 100.0

	pLarge := 1 - math.Exp(-lambda*mpn.Tray2000LargeWellVolumeML)
	pSmall := 1 - math.Exp(-lambda*mpn.Tray2000SmallWellVolumeML)

	large = int(distuv.Binomial{N: mpn.Tray2000LargeWells, P: pLarge, Src: src}.Rand())
	small = int(distuv.Binomial{N: mpn.Tray2000SmallWells, P: pSmall, Src: src}.Rand())

	return large, small
}

func tacCard(sampleID, cardID string, src rand.Source) []TACRow {
	normal := func(mu, sigma float64) float64 {
		return distuv.Normal{Mu: mu, Sigma: sigma, Src: src}.Rand()
	}

	rows := []TACRow{
		{SampleID: sampleID, CardID: cardID, Target: tac.AmplificationControl, Ct: fmt.Sprintf("%.2f", normal(25, 0.8))},
		{SampleID: sampleID, CardID: cardID, Target: tac.NegativeControl, Ct: "Undetermined"},
	}

	for _, target := range tac.Panel {
		ct := "Undetermined"
		detect := distuv.Bernoulli{P: targetDetectP[target], Src: src}
		if detect.Rand() == 1 {
			drawn := normal(29, 2.5)
			if drawn < tac.DefaultCtCutoff {
				ct = fmt.Sprintf("%.2f", drawn)
			}
		}

		rows = append(rows, TACRow{SampleID: sampleID, CardID: cardID, Target: target, Ct: ct})
	}

	return rows
}
