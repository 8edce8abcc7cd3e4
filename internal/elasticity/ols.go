package elasticity

import (
	"fmt"
	"math"
)

// LinRegress is an ordinary-least-squares fit of y on x with the two-sided
// t-test of the slope against zero.
type LinRegress struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"`
	PValue    float64 `json:"p_value"`
	StdErr    float64 `json:"std_err"`
	N         int     `json:"n"`
}

// Regress fits y = intercept + slope*x and tests the slope. Needs at least 3
// points and non-degenerate x.
func Regress(x, y []float64) (LinRegress, error) {
	n := len(x)
	if n != len(y) {
		return LinRegress{}, fmt.Errorf("regression: length mismatch %d vs %d", n, len(y))
	}
	if n < 3 {
		return LinRegress{}, fmt.Errorf("regression: need at least 3 points, got %d", n)
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 {
		return LinRegress{}, fmt.Errorf("regression: x has zero variance")
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	r := 0.0
	if syy > 0 {
		r = sxy / math.Sqrt(sxx*syy)
	}

	df := float64(n - 2)
	var pValue, stdErr float64
	switch {
	case syy == 0 || math.Abs(r) >= 1:
		pValue = 0
		stdErr = 0
	default:
		t := r * math.Sqrt(df/(1-r*r))
		pValue = tTestTwoSided(t, df)
		stdErr = math.Sqrt((syy/sxx - slope*slope) / df)
	}

	return LinRegress{
		Slope:     slope,
		Intercept: intercept,
		R:         r,
		PValue:    pValue,
		StdErr:    stdErr,
		N:         n,
	}, nil
}

// tTestTwoSided is P(|T| >= |t|) for a Student t with df degrees of freedom,
// computed through the regularized incomplete beta function.
func tTestTwoSided(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	return regIncBeta(df/2, 0.5, df/(df+t*t))
}

// regIncBeta is the regularized incomplete beta function I_x(a, b), evaluated
// with the Lentz continued fraction.
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lbeta, _ := math.Lgamma(a + b)
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	front := math.Exp(lbeta - la - lb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaCF(a, b, x) / a
	}
	return 1 - front*betaCF(b, a, 1-x)/b
}

// betaCF evaluates the continued fraction for the incomplete beta function.
func betaCF(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-30
	)

	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		m2 := float64(2 * m)
		aa := float64(m) * (b - float64(m)) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + float64(m)) * (qab + float64(m)) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < epsilon {
			break
		}
	}
	return h
}
