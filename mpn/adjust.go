package mpn

import (
	"fmt"
	"math"
)

// AdjustDilution scales an estimate back to the undiluted sample. The
// censoring status is preserved: a non-detect on a diluted sample is still a
// non-detect, but its reporting limit scales with the dilution.
func AdjustDilution(e Estimate, factor float64) (Estimate, error) {
	if factor < 1 {
		return Estimate{}, fmt.Errorf("mpn: dilution factor %f is below 1", factor)
	}

	e.MPNPer100ML *= factor
	return e, nil
}

// PerGramDry converts an eluate concentration to MPN per gram of dry sample.
// Solid samples are eluted in buffer before assay, so the tray sees the
// eluate; the original concentration follows from the elution volume, the
// wet mass assayed, and the sample's moisture fraction.
func PerGramDry(e Estimate, elutionVolumeML, wetMassG, moistureFraction float64) (Estimate, error) {
	if elutionVolumeML <= 0 {
		return Estimate{}, fmt.Errorf("mpn: elution volume %f mL is not positive", elutionVolumeML)
	}
	if wetMassG <= 0 {
		return Estimate{}, fmt.Errorf("mpn: wet mass %f g is not positive", wetMassG)
	}
	if moistureFraction < 0 || moistureFraction >= 1 {
		return Estimate{}, fmt.Errorf("mpn: moisture fraction %f outside [0, 1)", moistureFraction)
	}

	dryMass := wetMassG * (1.0 - moistureFraction)
	e.MPNPer100ML = e.MPNPer100ML * (elutionVolumeML / 100.0) / dryMass
	return e, nil
}

// Log10 applies the workshop's log transform conventions: non-detects are
// substituted at half their reporting limit, over-range values at the limit
// itself, and quantified values are transformed directly.
func Log10(e Estimate) float64 {
	v := e.MPNPer100ML
	if e.Censoring == BelowLOD {
		v /= 2.0
	}

	return math.Log10(v)
}
