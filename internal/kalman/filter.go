// Package kalman implements the two-state (true_price, drift) Kalman filter
// and the covariance manager that builds its time-varying process and
// observation noise from stress, flow, and venue context.
package kalman

import (
	"fmt"
	"math"

	"github.com/sawpanic/trueprice/internal/config"
	"github.com/sawpanic/trueprice/internal/oraclemodel"
)

// mat2 is a 2x2 row-major matrix. The filter state is small and fixed in
// dimension on one axis, so it is carried as plain floats rather than a
// general matrix type.
type mat2 [2][2]float64

// Filter is the two-state Kalman filter over (true_price, drift). It is not
// safe for concurrent use; the orchestrator owns it exclusively.
type Filter struct {
	cfg config.KalmanConfig

	initialized bool
	x           [2]float64 // true_price, drift
	p           mat2

	// predicted state, valid only between Predict and Update
	hasPrediction bool
	xPred         [2]float64
	pPred         mat2

	f     mat2 // state transition
	qBase mat2 // base process noise
}

// New builds a Filter from Kalman configuration. The filter starts
// uninitialized and Update does not initialize it; the orchestrator seeds
// it with Init from the observed venue median before its first tick.
func New(cfg config.KalmanConfig) *Filter {
	return &Filter{
		cfg: cfg,
		f: mat2{
			{1, 1},
			{0, cfg.DriftPersistence},
		},
		qBase: mat2{
			{cfg.ProcessNoisePrice, 0},
			{0, cfg.ProcessNoiseDrift},
		},
	}
}

// Initialized reports whether the filter has taken its first observation.
func (f *Filter) Initialized() bool {
	return f.initialized
}

// Init seeds the filter state at price with the configured initial drift
// (zero by default) and the configured initial covariance. Used both for auto-init on first update and for an
// explicit re-seed after NumericalInstability.
func (f *Filter) Init(price float64) {
	f.x = [2]float64{price, f.cfg.InitialDrift}
	f.p = mat2{
		{f.cfg.InitialPriceVar, 0},
		{0, f.cfg.InitialDriftVar},
	}
	f.initialized = true
	f.hasPrediction = false
}

// TruePrice is x[0].
func (f *Filter) TruePrice() float64 { return f.x[0] }

// Drift is x[1].
func (f *Filter) Drift() float64 { return f.x[1] }

// Std is sqrt(P[0,0]).
func (f *Filter) Std() float64 {
	v := f.p[0][0]
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// ConfidenceInterval95 is x[0] +/- 1.96*std.
func (f *Filter) ConfidenceInterval95() oraclemodel.ConfidenceInterval {
	std := f.Std()
	return oraclemodel.ConfidenceInterval{Lo: f.x[0] - 1.96*std, Hi: f.x[0] + 1.96*std}
}

// ZScore is (p - x[0]) / std, zero when std is zero.
func (f *Filter) ZScore(p float64) float64 {
	std := f.Std()
	if std == 0 {
		return 0
	}
	return (p - f.x[0]) / std
}

// Predict advances the state one tick: x' = F*x, P' = F*P*F^T + Q, with Q
// scaled by processNoiseMult (the product of the stablecoin-driven and
// regime-driven multipliers).
func (f *Filter) Predict(processNoiseMult float64) {
	xPred := mulMatVec(f.f, f.x)
	fp := mulMat(f.f, f.p)
	fpft := mulMatTransposed(fp, f.f)
	q := scaleMat(f.qBase, processNoiseMult)
	pPred := addMat(fpft, q)

	f.xPred = xPred
	f.pPred = pPred
	f.hasPrediction = true
}

// Update folds observations z (variances r, diagonal R) into the predicted
// state using the Joseph-form covariance update. z and r must have equal,
// non-zero length. Update without a prior Predict is a programming error
// and panics. A singular innovation covariance S returns
// NumericalInstabilityError and leaves the filter state unchanged.
func (f *Filter) Update(z, r []float64) error {
	if !f.hasPrediction {
		panic("kalman: Update called without a prior Predict")
	}
	if len(z) != len(r) || len(z) == 0 {
		panic("kalman: Update requires equal-length, non-empty z and r")
	}
	n := len(z)

	// H is n x 2, every row [1, 0].
	// innovation = z - H*xPred = z - xPred[0] (broadcast)
	innovation := make([]float64, n)
	for i := range innovation {
		innovation[i] = z[i] - f.xPred[0]
	}

	// hp = H * P' is n x 2: row i = P'[0,:] (since H row is [1,0])
	hp := make([][2]float64, n)
	for i := range hp {
		hp[i] = f.pPred[0]
	}

	// S = H*P'*H^T + R, n x n. (H*P'*H^T)[i][j] = hp[i][0] (since H col j is [1,0]^T)
	s := make([][]float64, n)
	for i := range s {
		s[i] = make([]float64, n)
		for j := range s[i] {
			s[i][j] = hp[i][0]
		}
		s[i][i] += r[i]
	}

	sInv, err := invertSymmetric(s)
	if err != nil {
		return &oraclemodel.NumericalInstabilityError{Op: "kalman.Update", Reason: err.Error()}
	}

	// K = P'*H^T*Sinv, 2 x n. (P'*H^T)[k][i] = P'[k][0]
	pht := [2][]float64{make([]float64, n), make([]float64, n)}
	for i := 0; i < n; i++ {
		pht[0][i] = f.pPred[0][0]
		pht[1][i] = f.pPred[1][0]
	}
	k := [2][]float64{make([]float64, n), make([]float64, n)}
	for row := 0; row < 2; row++ {
		for col := 0; col < n; col++ {
			var sum float64
			for m := 0; m < n; m++ {
				sum += pht[row][m] * sInv[m][col]
			}
			k[row][col] = sum
		}
	}

	// x = xPred + K*innovation
	var x [2]float64
	for row := 0; row < 2; row++ {
		sum := f.xPred[row]
		for col := 0; col < n; col++ {
			sum += k[row][col] * innovation[col]
		}
		x[row] = sum
	}

	// KH is 2x2: (K*H)[row][c] = K[row][*] summed over rows since H col c
	// is all-ones in column 0 and zero in column 1: (KH)[row][0] = sum_i K[row][i], (KH)[row][1] = 0.
	var kh mat2
	for row := 0; row < 2; row++ {
		var sum float64
		for col := 0; col < n; col++ {
			sum += k[row][col]
		}
		kh[row][0] = sum
		kh[row][1] = 0
	}
	imKH := subMat(identity2(), kh)

	// term1 = (I-KH) * P' * (I-KH)^T
	term1a := mulMat(imKH, f.pPred)
	term1 := mulMatTransposed(term1a, imKH)

	// term2 = K*R*K^T, 2x2. R diagonal: (K*R)[row][i] = K[row][i]*r[i]
	kr := [2][]float64{make([]float64, n), make([]float64, n)}
	for row := 0; row < 2; row++ {
		for i := 0; i < n; i++ {
			kr[row][i] = k[row][i] * r[i]
		}
	}
	var term2 mat2
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += kr[row][i] * k[col][i]
			}
			term2[row][col] = sum
		}
	}

	f.x = x
	f.p = addMat(term1, term2)
	f.hasPrediction = false
	return nil
}

func identity2() mat2 {
	return mat2{{1, 0}, {0, 1}}
}

func mulMatVec(m mat2, v [2]float64) [2]float64 {
	return [2]float64{
		m[0][0]*v[0] + m[0][1]*v[1],
		m[1][0]*v[0] + m[1][1]*v[1],
	}
}

func mulMat(a, b mat2) mat2 {
	var out mat2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j]
		}
	}
	return out
}

// mulMatTransposed returns a * b^T.
func mulMatTransposed(a, b mat2) mat2 {
	var out mat2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = a[i][0]*b[j][0] + a[i][1]*b[j][1]
		}
	}
	return out
}

func addMat(a, b mat2) mat2 {
	var out mat2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = a[i][j] + b[i][j]
		}
	}
	return out
}

func subMat(a, b mat2) mat2 {
	var out mat2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = a[i][j] - b[i][j]
		}
	}
	return out
}

func scaleMat(a mat2, s float64) mat2 {
	var out mat2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = a[i][j] * s
		}
	}
	return out
}

// invertSymmetric inverts an n x n symmetric positive-definite matrix via
// Gauss-Jordan elimination with partial pivoting. Returns an error if the
// matrix is singular to numerical precision.
func invertSymmetric(m [][]float64) ([][]float64, error) {
	n := len(m)
	aug := make([][]float64, n)
	for i := range aug {
		aug[i] = make([]float64, 2*n)
		copy(aug[i], m[i])
		aug[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		best := math.Abs(aug[col][col])
		for row := col + 1; row < n; row++ {
			if v := math.Abs(aug[row][col]); v > best {
				pivot, best = row, v
			}
		}
		if best < 1e-12 {
			return nil, fmt.Errorf("matrix singular at column %d", col)
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		pv := aug[col][col]
		for j := 0; j < 2*n; j++ {
			aug[col][j] /= pv
		}
		for row := 0; row < n; row++ {
			if row == col {
				continue
			}
			factor := aug[row][col]
			if factor == 0 {
				continue
			}
			for j := 0; j < 2*n; j++ {
				aug[row][j] -= factor * aug[col][j]
			}
		}
	}

	inv := make([][]float64, n)
	for i := range inv {
		inv[i] = make([]float64, n)
		copy(inv[i], aug[i][n:])
	}
	return inv, nil
}
