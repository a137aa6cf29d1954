// Package regression fits the two linear submodels. A Submodel is an L2
// regularized (ridge) regression over standardized inputs; the fitted
// standardization statistics travel with the coefficients so serving-time
// inputs are transformed exactly as the training rows were.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ffpredict/predictor-api/internal/models"
)

// DefaultAlpha is the fixed ridge penalty used for both submodels.
const DefaultAlpha = 1.0

// Submodel is a fitted ridge regression. All fields are serialized into the
// model bundle; Predict uses only what is stored here.
type Submodel struct {
	Target    string    `json:"target"`
	Alpha     float64   `json:"alpha"`
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
	Coefs     []float64 `json:"coefs"`
	Intercept float64   `json:"intercept"`
	Rows      int       `json:"rows"`
}

// Fit trains a ridge regression of target on featureNames over rows. Rows
// with any missing feature or missing target are excluded, not imputed.
// Features are standardized to zero mean / unit variance using statistics
// from the surviving rows only.
func Fit(rows []models.FeatureRow, featureNames []string, target string, alpha float64) (*Submodel, error) {
	nf := len(featureNames)
	if nf == 0 {
		return nil, fmt.Errorf("no features declared for target %q", target)
	}

	var xs []float64
	var ys []float64
	for i := range rows {
		y, ok := rows[i].Feature(target)
		if !ok {
			return nil, fmt.Errorf("unknown target column %q", target)
		}
		if !y.Valid {
			continue
		}
		vals := make([]float64, nf)
		complete := true
		for j, name := range featureNames {
			v, ok := rows[i].Feature(name)
			if !ok {
				return nil, fmt.Errorf("unknown feature column %q", name)
			}
			if !v.Valid {
				complete = false
				break
			}
			vals[j] = v.Val
		}
		if !complete {
			continue
		}
		xs = append(xs, vals...)
		ys = append(ys, y.Val)
	}

	n := len(ys)
	if n <= nf {
		return nil, fmt.Errorf("target %q: %d usable rows for %d features", target, n, nf)
	}

	means := make([]float64, nf)
	stds := make([]float64, nf)
	for j := 0; j < nf; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += xs[i*nf+j]
		}
		means[j] = sum / float64(n)
		var ss float64
		for i := 0; i < n; i++ {
			d := xs[i*nf+j] - means[j]
			ss += d * d
		}
		stds[j] = math.Sqrt(ss / float64(n))
	}

	// Standardized design matrix. Constant columns get z=0 everywhere; the
	// ridge penalty keeps the normal equations invertible regardless.
	z := mat.NewDense(n, nf, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < nf; j++ {
			z.Set(i, j, standardize(xs[i*nf+j], means[j], stds[j]))
		}
	}

	var ybar float64
	for _, y := range ys {
		ybar += y
	}
	ybar /= float64(n)

	yc := mat.NewVecDense(n, nil)
	for i, y := range ys {
		yc.SetVec(i, y-ybar)
	}

	// Normal equations: (Z'Z + alpha*I) beta = Z'(y - ybar).
	var ztz mat.Dense
	ztz.Mul(z.T(), z)
	for j := 0; j < nf; j++ {
		ztz.Set(j, j, ztz.At(j, j)+alpha)
	}

	var zty mat.VecDense
	zty.MulVec(z.T(), yc)

	var beta mat.VecDense
	if err := beta.SolveVec(&ztz, &zty); err != nil {
		return nil, fmt.Errorf("target %q: solving ridge system: %w", target, err)
	}

	coefs := make([]float64, nf)
	for j := 0; j < nf; j++ {
		coefs[j] = beta.AtVec(j)
	}

	return &Submodel{
		Target:    target,
		Alpha:     alpha,
		Means:     means,
		Stds:      stds,
		Coefs:     coefs,
		Intercept: ybar,
		Rows:      n,
	}, nil
}

// Predict scores one observation. x must be ordered like the feature list
// the model was fitted with; the bundle validation guarantees the lengths
// line up before any scoring happens.
func (m *Submodel) Predict(x []float64) float64 {
	out := m.Intercept
	for j, v := range x {
		out += m.Coefs[j] * standardize(v, m.Means[j], m.Stds[j])
	}
	return out
}

// Check verifies the stored vectors agree with a feature list of length nf.
func (m *Submodel) Check(nf int) error {
	if m == nil {
		return fmt.Errorf("submodel is nil")
	}
	if len(m.Coefs) != nf || len(m.Means) != nf || len(m.Stds) != nf {
		return fmt.Errorf("target %q: coefs=%d means=%d stds=%d, want %d",
			m.Target, len(m.Coefs), len(m.Means), len(m.Stds), nf)
	}
	return nil
}

func standardize(v, mean, std float64) float64 {
	if std <= 0 {
		return 0
	}
	return (v - mean) / std
}
