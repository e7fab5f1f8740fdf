package describe

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Coefficient is one fitted regression term.
type Coefficient struct {
	Name   string
	Beta   float64
	StdErr float64
	T      float64
	P      float64
}

// Fit is an ordinary least squares fit with an intercept.
type Fit struct {
	Coefficients []Coefficient
	N            int
	R2           float64
}

// OLS regresses y on the named predictor columns, adding an intercept term.
// Each predictors element is one column, aligned with y.
func OLS(names []string, y []float64, predictors [][]float64) (Fit, error) {
	if len(names) != len(predictors) {
		return Fit{}, fmt.Errorf("describe: %d predictor names for %d columns", len(names), len(predictors))
	}

	n := len(y)
	p := len(predictors) + 1 // intercept

	if n <= p {
		return Fit{}, fmt.Errorf("describe: %d observations cannot support %d regression terms", n, p)
	}

	for _, col := range predictors {
		if len(col) != n {
			return Fit{}, fmt.Errorf("describe: predictor column length %d does not match %d outcomes", len(col), n)
		}
	}

	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1.0)
		for j, col := range predictors {
			x.Set(i, j+1, col[i])
		}
	}

	yVec := mat.NewDense(n, 1, y)

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, yVec); err != nil {
		return Fit{}, fmt.Errorf("describe: singular design matrix: %w", err)
	}

	// Residual variance and the coefficient covariance sigma^2 (X'X)^-1.
	var fitted mat.Dense
	fitted.Mul(x, &beta)

	rss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.At(i, 0)
		rss += r * r
	}

	meanY := stat.Mean(y, nil)
	tss := 0.0
	for _, v := range y {
		d := v - meanY
		tss += d * d
	}

	if tss == 0 {
		return Fit{}, fmt.Errorf("describe: outcome has zero variance")
	}

	sigma2 := rss / float64(n-p)

	var xtx, xtxInv mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return Fit{}, fmt.Errorf("describe: singular design matrix: %w", err)
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - p)}

	out := Fit{N: n, R2: 1.0 - rss/tss}
	termNames := append([]string{"(intercept)"}, names...)
	for j, name := range termNames {
		b := beta.At(j, 0)
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))

		coef := Coefficient{Name: name, Beta: b, StdErr: se}
		if se > 0 {
			coef.T = b / se
			coef.P = 2.0 * dist.CDF(-math.Abs(coef.T))
		}

		out.Coefficients = append(out.Coefficients, coef)
	}

	return out, nil
}
