package describe

import (
	"math"
	"testing"
)

func TestNewPrevalence(t *testing.T) {
	for _, v := range []struct {
		Detected, Assayed  int
		Prop, Lower, Upper float64
	}{
		{5, 10, 0.5, 0.2366, 0.7634},
		{0, 20, 0, 0, 0.1611},
		{20, 20, 1, 0.8389, 1},
	} {
		got, err := NewPrevalence(v.Detected, v.Assayed)
		if err != nil {
			t.Fatalf("NewPrevalence(%d, %d): %v", v.Detected, v.Assayed, err)
		}

		if math.Abs(got.Proportion-v.Prop) > 1e-9 {
			t.Fatalf("NewPrevalence(%d, %d): proportion %.4f, expected %.4f", v.Detected, v.Assayed, got.Proportion, v.Prop)
		}

		if math.Abs(got.Lower-v.Lower) > 1e-3 || math.Abs(got.Upper-v.Upper) > 1e-3 {
			t.Fatalf("NewPrevalence(%d, %d): interval (%.4f, %.4f), expected (%.4f, %.4f)", v.Detected, v.Assayed, got.Lower, got.Upper, v.Lower, v.Upper)
		}

		if got.Lower < 0 || got.Upper > 1 || got.Lower > got.Proportion || got.Upper < got.Proportion {
			t.Fatalf("NewPrevalence(%d, %d): interval (%.4f, %.4f) does not bracket %.4f in [0,1]", v.Detected, v.Assayed, got.Lower, got.Upper, got.Proportion)
		}
	}
}

func TestNewPrevalenceErrors(t *testing.T) {
	for _, v := range [][2]int{{1, 0}, {-1, 10}, {11, 10}} {
		if _, err := NewPrevalence(v[0], v[1]); err == nil {
			t.Fatalf("NewPrevalence(%d, %d): expected an error", v[0], v[1])
		}
	}
}

func TestWelchT(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 3, 4, 5, 6}

	got, err := WelchT(x, y)
	if err != nil {
		t.Fatalf("WelchT: %v", err)
	}

	// Equal variances and sizes: t = -1 with 8 degrees of freedom.
	if math.Abs(got.T-(-1)) > 1e-9 {
		t.Fatalf("WelchT: t %.6f, expected -1", got.T)
	}

	if math.Abs(got.DF-8) > 1e-9 {
		t.Fatalf("WelchT: df %.6f, expected 8", got.DF)
	}

	if math.Abs(got.P-0.3466) > 2e-3 {
		t.Fatalf("WelchT: p %.4f, expected 0.3466", got.P)
	}
}

func TestWelchTErrors(t *testing.T) {
	if _, err := WelchT([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatalf("WelchT: expected an error for a single observation")
	}

	if _, err := WelchT([]float64{2, 2, 2}, []float64{3, 3, 3}); err == nil {
		t.Fatalf("WelchT: expected an error for zero variance in both groups")
	}
}

func TestOLSExactLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2 + 3*v
	}

	fit, err := OLS([]string{"x"}, y, [][]float64{x})
	if err != nil {
		t.Fatalf("OLS: %v", err)
	}

	if math.Abs(fit.Coefficients[0].Beta-2) > 1e-8 || math.Abs(fit.Coefficients[1].Beta-3) > 1e-8 {
		t.Fatalf("OLS: coefficients %+v, expected intercept 2 and slope 3", fit.Coefficients)
	}

	if math.Abs(fit.R2-1) > 1e-8 {
		t.Fatalf("OLS: R2 %.6f, expected 1", fit.R2)
	}
}

// Orthogonal design with a hand-picked residual vector, so every quantity
// has a closed form: betas (1, 2, -0.5), sigma^2 = 0.016, se = sqrt(0.002).
func TestOLSOrthogonal(t *testing.T) {
	a := []float64{-1, -1, 1, 1, -1, -1, 1, 1}
	b := []float64{-1, 1, -1, 1, -1, 1, -1, 1}
	e := []float64{0.1, -0.1, -0.1, 0.1, 0.1, -0.1, -0.1, 0.1}

	y := make([]float64, len(a))
	for i := range y {
		y[i] = 1 + 2*a[i] - 0.5*b[i] + e[i]
	}

	fit, err := OLS([]string{"a", "b"}, y, [][]float64{a, b})
	if err != nil {
		t.Fatalf("OLS: %v", err)
	}

	expectedBetas := []float64{1, 2, -0.5}
	expectedSE := math.Sqrt(0.002)
	for j, coef := range fit.Coefficients {
		if math.Abs(coef.Beta-expectedBetas[j]) > 1e-8 {
			t.Fatalf("OLS: %s beta %.6f, expected %.6f", coef.Name, coef.Beta, expectedBetas[j])
		}

		if math.Abs(coef.StdErr-expectedSE) > 1e-8 {
			t.Fatalf("OLS: %s stderr %.6f, expected %.6f", coef.Name, coef.StdErr, expectedSE)
		}

		if coef.P <= 0 || coef.P >= 1e-3 {
			t.Fatalf("OLS: %s p-value %.8f outside the expected range", coef.Name, coef.P)
		}
	}

	if expected := 1 - 0.08/34.08; math.Abs(fit.R2-expected) > 1e-8 {
		t.Fatalf("OLS: R2 %.6f, expected %.6f", fit.R2, expected)
	}
}

func TestOLSErrors(t *testing.T) {
	if _, err := OLS([]string{"x"}, []float64{1, 2}, [][]float64{{1, 2}}); err == nil {
		t.Fatalf("OLS: expected an error for too few observations")
	}

	if _, err := OLS([]string{"x", "y"}, []float64{1, 2, 3, 4}, [][]float64{{1, 2, 3, 4}}); err == nil {
		t.Fatalf("OLS: expected an error for mismatched names and columns")
	}
}
