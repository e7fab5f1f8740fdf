package mpn

import (
	"math"
	"testing"
)

func TestAdjustDilution(t *testing.T) {
	e := Estimate{MPNPer100ML: 100, Censoring: BelowLOD}

	got, err := AdjustDilution(e, 10)
	if err != nil {
		t.Fatalf("AdjustDilution: %v", err)
	}

	if got.MPNPer100ML != 1000 {
		t.Fatalf("AdjustDilution: got %.1f, expected 1000", got.MPNPer100ML)
	}

	if got.Censoring != BelowLOD {
		t.Fatalf("AdjustDilution: censoring %v was not preserved", got.Censoring)
	}

	if _, err := AdjustDilution(e, 0.5); err == nil {
		t.Fatalf("AdjustDilution: expected an error for factor below 1")
	}
}

func TestPerGramDry(t *testing.T) {
	// 200 MPN/100mL eluate, 300 mL elution, 10 g wet at 20% moisture:
	// 200 * 3 / (10 * 0.8) = 75 MPN/g dry.
	e := Estimate{MPNPer100ML: 200}

	got, err := PerGramDry(e, 300, 10, 0.2)
	if err != nil {
		t.Fatalf("PerGramDry: %v", err)
	}

	if math.Abs(got.MPNPer100ML-75) > 1e-9 {
		t.Fatalf("PerGramDry: got %.4f, expected 75", got.MPNPer100ML)
	}

	for _, v := range []struct {
		Volume, Mass, Moisture float64
	}{
		{0, 10, 0.2},
		{300, 0, 0.2},
		{300, 10, 1.0},
		{300, 10, -0.1},
	} {
		if _, err := PerGramDry(e, v.Volume, v.Mass, v.Moisture); err == nil {
			t.Fatalf("PerGramDry(%+v): expected an error", v)
		}
	}
}

func TestLog10(t *testing.T) {
	for _, v := range []struct {
		Estimate Estimate
		Expected float64
	}{
		{Estimate{MPNPer100ML: 100}, 2},
		{Estimate{MPNPer100ML: 1, Censoring: BelowLOD}, math.Log10(0.5)},
		{Estimate{MPNPer100ML: ULOQ, Censoring: AboveULOQ}, math.Log10(ULOQ)},
	} {
		if got := Log10(v.Estimate); math.Abs(got-v.Expected) > 1e-9 {
			t.Fatalf("Log10(%+v): got %.5f, expected %.5f", v.Estimate, got, v.Expected)
		}
	}
}
