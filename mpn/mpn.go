// Package mpn estimates most probable number (MPN) bacterial concentrations
// from Quanti-Tray well counts, with the censoring, dilution, and dry-weight
// conventions used in the lab workshop.
package mpn

import (
	"fmt"
	"math"
)

// Quanti-Tray geometry. A tray receives a 100 mL sample; the /2000 format
// splits it across 49 large and 48 small wells so that a single tray spans
// roughly three orders of magnitude.
const (
	Tray51Wells = 51

	Tray2000LargeWells        = 49
	Tray2000LargeWellVolumeML = 1.86
	Tray2000SmallWells        = 48
	Tray2000SmallWellVolumeML = 0.186
)

// Reporting limits, as MPN per 100 mL.
const (
	// LOD is the value assigned to an all-negative tray, which cannot be
	// distinguished from a sterile sample.
	LOD = 1.0

	// ULOQ is the reporting cap for an all-positive Quanti-Tray/2000.
	ULOQ = 2419.6

	// Tray51ULOQ is the reporting cap for an all-positive 51-well tray.
	Tray51ULOQ = 200.5
)

// Censoring records whether an estimate was substituted at a reporting limit.
type Censoring int

const (
	NotCensored Censoring = iota
	BelowLOD
	AboveULOQ
)

func (c Censoring) String() string {
	switch c {
	case BelowLOD:
		return "below_lod"
	case AboveULOQ:
		return "above_uloq"
	}

	return "none"
}

// Estimate is an MPN concentration with its censoring status. Censored
// estimates carry the reporting limit itself as their value; the log
// transform applies the half-LOD substitution.
type Estimate struct {
	MPNPer100ML float64
	Censoring   Censoring
}

// Tray51 estimates MPN per 100 mL from the number of positive wells on a
// 51-well Quanti-Tray. With a single well volume the maximum likelihood
// estimate has a closed form.
func Tray51(positive int) (Estimate, error) {
	if positive < 0 || positive > Tray51Wells {
		return Estimate{}, fmt.Errorf("mpn: %d positive wells out of range for a %d-well tray", positive, Tray51Wells)
	}

	if positive == 0 {
		return Estimate{MPNPer100ML: LOD, Censoring: BelowLOD}, nil
	}

	if positive == Tray51Wells {
		return Estimate{MPNPer100ML: Tray51ULOQ, Censoring: AboveULOQ}, nil
	}

	n := float64(Tray51Wells)
	return Estimate{MPNPer100ML: -n * math.Log(1.0-float64(positive)/n)}, nil
}

// Tray2000 estimates MPN per 100 mL from the large- and small-well positive
// counts on a Quanti-Tray/2000. With two well volumes there is no closed
// form; the maximum likelihood concentration is found by bisection on the
// score equation, which is monotone in the concentration.
func Tray2000(largePositive, smallPositive int) (Estimate, error) {
	if largePositive < 0 || largePositive > Tray2000LargeWells {
		return Estimate{}, fmt.Errorf("mpn: %d positive large wells out of range (0-%d)", largePositive, Tray2000LargeWells)
	}
	if smallPositive < 0 || smallPositive > Tray2000SmallWells {
		return Estimate{}, fmt.Errorf("mpn: %d positive small wells out of range (0-%d)", smallPositive, Tray2000SmallWells)
	}

	if largePositive == 0 && smallPositive == 0 {
		return Estimate{MPNPer100ML: LOD, Censoring: BelowLOD}, nil
	}

	if largePositive == Tray2000LargeWells && smallPositive == Tray2000SmallWells {
		return Estimate{MPNPer100ML: ULOQ, Censoring: AboveULOQ}, nil
	}

	totalVolume := Tray2000LargeWells*Tray2000LargeWellVolumeML + Tray2000SmallWells*Tray2000SmallWellVolumeML

	// score(lambda) is strictly decreasing, positive as lambda -> 0 and
	// negative as lambda -> inf whenever at least one well is negative.
	score := func(lambda float64) float64 {
		s := -totalVolume
		if largePositive > 0 {
			v := Tray2000LargeWellVolumeML
			s += float64(largePositive) * v / (1.0 - math.Exp(-lambda*v))
		}
		if smallPositive > 0 {
			v := Tray2000SmallWellVolumeML
			s += float64(smallPositive) * v / (1.0 - math.Exp(-lambda*v))
		}
		return s
	}

	lo, hi := 1e-9, 1e4
	for i := 0; i < 200; i++ {
		mid := 0.5 * (lo + hi)
		if score(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	// lambda is per mL; scale to per 100 mL.
	return Estimate{MPNPer100ML: 100.0 * 0.5 * (lo + hi)}, nil
}
