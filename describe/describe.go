// Package describe holds the small statistical routines shared by the
// workshop tools: prevalence with Wilson intervals, Welch's t-test, and
// ordinary least squares.
package describe

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// z for a two-sided 95% interval.
const z95 = 1.959963984540054

// Prevalence is a detection proportion with its 95% Wilson score interval.
// The Wilson interval behaves sensibly at 0 and 1, where the Wald interval
// collapses.
type Prevalence struct {
	Detected   int
	Assayed    int
	Proportion float64
	Lower      float64
	Upper      float64
}

func NewPrevalence(detected, assayed int) (Prevalence, error) {
	if assayed <= 0 {
		return Prevalence{}, fmt.Errorf("describe: prevalence over %d assayed samples", assayed)
	}
	if detected < 0 || detected > assayed {
		return Prevalence{}, fmt.Errorf("describe: %d detected out of %d assayed", detected, assayed)
	}

	n := float64(assayed)
	p := float64(detected) / n

	denom := 1.0 + z95*z95/n
	center := (p + z95*z95/(2.0*n)) / denom
	half := z95 * math.Sqrt(p*(1.0-p)/n+z95*z95/(4.0*n*n)) / denom

	return Prevalence{
		Detected:   detected,
		Assayed:    assayed,
		Proportion: p,
		Lower:      math.Max(0, center-half),
		Upper:      math.Min(1, center+half),
	}, nil
}

// TTest is the result of Welch's unequal-variance two-sample t-test.
type TTest struct {
	N1, N2       int
	Mean1, Mean2 float64
	T            float64
	DF           float64
	P            float64
}

// WelchT compares the means of two samples without assuming equal variance,
// with the Welch-Satterthwaite degrees of freedom.
func WelchT(x, y []float64) (TTest, error) {
	if len(x) < 2 || len(y) < 2 {
		return TTest{}, fmt.Errorf("describe: t-test needs at least 2 observations per group (got %d and %d)", len(x), len(y))
	}

	n1, n2 := float64(len(x)), float64(len(y))
	m1, m2 := stat.Mean(x, nil), stat.Mean(y, nil)
	v1, v2 := stat.Variance(x, nil), stat.Variance(y, nil)

	se2 := v1/n1 + v2/n2
	if se2 <= 0 {
		return TTest{}, fmt.Errorf("describe: both groups have zero variance")
	}

	t := (m1 - m2) / math.Sqrt(se2)
	df := se2 * se2 / (v1*v1/(n1*n1*(n1-1)) + v2*v2/(n2*n2*(n2-1)))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2.0 * dist.CDF(-math.Abs(t))

	return TTest{
		N1:    len(x),
		N2:    len(y),
		Mean1: m1,
		Mean2: m2,
		T:     t,
		DF:    df,
		P:     p,
	}, nil
}
