package cygrid

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// KernelKind names one of the five kernels in the closed registry. The set
// is fixed at compile time; there is no user-extensible kernel hierarchy.
type KernelKind int

const (
	KernelGauss1D KernelKind = iota
	KernelGauss2D
	KernelTaperedSinc
	KernelVector1D
	KernelMatrix2D
)

func (k KernelKind) String() string {
	switch k {
	case KernelGauss1D:
		return "gauss1d"
	case KernelGauss2D:
		return "gauss2d"
	case KernelTaperedSinc:
		return "tapered_sinc"
	case KernelVector1D:
		return "vector1d"
	case KernelMatrix2D:
		return "matrix2d"
	default:
		return "unknown"
	}
}

// ParseKernelKind maps a kernel name to its KernelKind, failing with
// UnknownKernelError if name is not in the closed registry.
func ParseKernelKind(name string) (KernelKind, error) {
	switch name {
	case "gauss1d":
		return KernelGauss1D, nil
	case "gauss2d":
		return KernelGauss2D, nil
	case "tapered_sinc":
		return KernelTaperedSinc, nil
	case "vector1d":
		return KernelVector1D, nil
	case "matrix2d":
		return KernelMatrix2D, nil
	default:
		return 0, NewUnknownKernelError(name)
	}
}

// Gauss1DParams parametrizes the 1D radial Gaussian: exp(-0.5*d^2/sigma^2),
// d in degrees.
type Gauss1DParams struct {
	SigmaDeg float64
}

// Gauss2DParams parametrizes the elliptical Gaussian in the frame rotated
// by PA. PA is stored at parameter index 2 of the documented (SigmaMaj,
// SigmaMin, PA) triple — see DESIGN.md for the resolved Open Question on
// this index.
type Gauss2DParams struct {
	SigmaMajDeg float64
	SigmaMinDeg float64
	PADeg       float64
}

// TaperedSincParams parametrizes sinc(d/(a*sigma)) * exp(-(d/(b*sigma))^2).
type TaperedSincParams struct {
	SigmaDeg float64
	A        float64
	B        float64
}

// Vector1DParams parametrizes a linear-interpolated lookup along distance.
// Vector[i] sits at distance (i - RefPix) * Dx degrees from the kernel
// center.
type Vector1DParams struct {
	Vector []float64
	RefPix float64
	Dx     float64
}

// Matrix2DParams parametrizes a bilinear lookup at
// (d*cos(bearing), d*sin(bearing)), with RefPix the (x,y) pixel holding the
// kernel center and Dx the (x,y) pixel spacing in degrees.
type Matrix2DParams struct {
	Matrix [][]float64
	RefPix [2]float64
	Dx     [2]float64
}

// Kernel is the tagged, closed-registry kernel the accumulation loop
// evaluates once per (output pixel, candidate input) pair. Dispatch happens
// once at SetKernel time via the eval closure; the inner loop never
// branches on Kind.
type Kernel struct {
	Kind             KernelKind
	BearingNeeded    bool
	SupportRadiusDeg float64
	eval             func(distDeg, bearingRad float64) float64
}

// Eval returns the kernel weight for a candidate at angular distance
// distDeg (degrees) and, for bearing-dependent kernels, bearingRad
// (radians, east of north).
func (k *Kernel) Eval(distDeg, bearingRad float64) float64 {
	return k.eval(distDeg, bearingRad)
}

func newKernel(kind KernelKind, params any, supportRadiusDeg float64) (*Kernel, error) {
	switch kind {
	case KernelGauss1D:
		return newGauss1DKernel(params, supportRadiusDeg)
	case KernelGauss2D:
		return newGauss2DKernel(params, supportRadiusDeg)
	case KernelTaperedSinc:
		return newTaperedSincKernel(params, supportRadiusDeg)
	case KernelVector1D:
		return newVector1DKernel(params, supportRadiusDeg)
	case KernelMatrix2D:
		return newMatrix2DKernel(params, supportRadiusDeg)
	default:
		return nil, NewUnknownKernelError(kind.String())
	}
}

func newGauss1DKernel(params any, supportRadiusDeg float64) (*Kernel, error) {
	p, ok := params.(Gauss1DParams)
	if !ok {
		return nil, NewArityMismatchError("gauss1d", "expected Gauss1DParams{SigmaDeg}")
	}
	if p.SigmaDeg <= 0 {
		return nil, NewArityMismatchError("gauss1d", "sigma must be positive")
	}
	sigma := p.SigmaDeg
	eval := func(d, _ float64) float64 {
		return math.Exp(-0.5 * (d * d) / (sigma * sigma))
	}
	return &Kernel{Kind: KernelGauss1D, BearingNeeded: false, SupportRadiusDeg: supportRadiusDeg, eval: eval}, nil
}

func newGauss2DKernel(params any, supportRadiusDeg float64) (*Kernel, error) {
	p, ok := params.(Gauss2DParams)
	if !ok {
		return nil, NewArityMismatchError("gauss2d", "expected Gauss2DParams{SigmaMajDeg, SigmaMinDeg, PADeg}")
	}
	if p.SigmaMajDeg <= 0 || p.SigmaMinDeg <= 0 {
		return nil, NewArityMismatchError("gauss2d", "sigma_maj and sigma_min must be positive")
	}

	paRad := deg2rad(p.PADeg)
	sinPA, cosPA := math.Sincos(paRad)
	sigmaMaj, sigmaMin := p.SigmaMajDeg, p.SigmaMinDeg

	// Rotation into the kernel's (major, minor) frame, built with gonum/mat
	// rather than hand-expanded trig identities.
	rot := mat.NewDense(2, 2, []float64{cosPA, sinPA, -sinPA, cosPA})

	eval := func(d, bearing float64) float64 {
		x := d * math.Sin(bearing)
		y := d * math.Cos(bearing)
		vec := mat.NewVecDense(2, []float64{x, y})
		var rotated mat.VecDense
		rotated.MulVec(rot, vec)
		xr, yr := rotated.AtVec(0), rotated.AtVec(1)
		// xr is the offset across the major axis, yr the offset along it.
		return math.Exp(-0.5 * ((xr*xr)/(sigmaMin*sigmaMin) + (yr*yr)/(sigmaMaj*sigmaMaj)))
	}
	return &Kernel{Kind: KernelGauss2D, BearingNeeded: true, SupportRadiusDeg: supportRadiusDeg, eval: eval}, nil
}

func newTaperedSincKernel(params any, supportRadiusDeg float64) (*Kernel, error) {
	p, ok := params.(TaperedSincParams)
	if !ok {
		return nil, NewArityMismatchError("tapered_sinc", "expected TaperedSincParams{SigmaDeg, A, B}")
	}
	if p.SigmaDeg <= 0 || p.A <= 0 || p.B <= 0 {
		return nil, NewArityMismatchError("tapered_sinc", "sigma, a and b must be positive")
	}
	a, b, sigma := p.A, p.B, p.SigmaDeg
	eval := func(d, _ float64) float64 {
		xa := d / (a * sigma)
		xb := d / (b * sigma)
		sinc := 1.0
		if xa != 0 {
			piXa := math.Pi * xa
			sinc = math.Sin(piXa) / piXa
		}
		return sinc * math.Exp(-(xb * xb))
	}
	return &Kernel{Kind: KernelTaperedSinc, BearingNeeded: false, SupportRadiusDeg: supportRadiusDeg, eval: eval}, nil
}

func newVector1DKernel(params any, supportRadiusDeg float64) (*Kernel, error) {
	p, ok := params.(Vector1DParams)
	if !ok {
		return nil, NewArityMismatchError("vector1d", "expected Vector1DParams{Vector, RefPix, Dx}")
	}
	if len(p.Vector) == 0 {
		return nil, NewArityMismatchError("vector1d", "lookup vector must not be empty")
	}
	if p.Dx <= 0 {
		return nil, NewArityMismatchError("vector1d", "dx must be positive")
	}
	xs := make([]float64, len(p.Vector))
	for i, v := range p.Vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, NewArityMismatchError("vector1d", "lookup vector must be finite")
		}
		xs[i] = (float64(i) - p.RefPix) * p.Dx
	}

	var lut interp.PiecewiseLinear
	if err := lut.Fit(xs, p.Vector); err != nil {
		return nil, NewArityMismatchError("vector1d", err.Error())
	}
	minX, maxX := xs[0], xs[len(xs)-1]

	eval := func(d, _ float64) float64 {
		if d < minX || d > maxX {
			return 0
		}
		return lut.Predict(d)
	}
	return &Kernel{Kind: KernelVector1D, BearingNeeded: false, SupportRadiusDeg: supportRadiusDeg, eval: eval}, nil
}

func newMatrix2DKernel(params any, supportRadiusDeg float64) (*Kernel, error) {
	p, ok := params.(Matrix2DParams)
	if !ok {
		return nil, NewArityMismatchError("matrix2d", "expected Matrix2DParams{Matrix, RefPix, Dx}")
	}
	if len(p.Matrix) == 0 || len(p.Matrix[0]) == 0 {
		return nil, NewArityMismatchError("matrix2d", "lookup matrix must not be empty")
	}
	ny := len(p.Matrix)
	nx := len(p.Matrix[0])
	for _, row := range p.Matrix {
		if len(row) != nx {
			return nil, NewArityMismatchError("matrix2d", "lookup matrix rows must be rectangular")
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, NewArityMismatchError("matrix2d", "lookup matrix must be finite")
			}
		}
	}
	if p.Dx[0] <= 0 || p.Dx[1] <= 0 {
		return nil, NewArityMismatchError("matrix2d", "dx must be positive in both dimensions")
	}

	eval := func(d, bearing float64) float64 {
		x := d * math.Cos(bearing)
		y := d * math.Sin(bearing)
		fx := x/p.Dx[0] + p.RefPix[0]
		fy := y/p.Dx[1] + p.RefPix[1]
		return bilinear(p.Matrix, nx, ny, fx, fy)
	}
	return &Kernel{Kind: KernelMatrix2D, BearingNeeded: true, SupportRadiusDeg: supportRadiusDeg, eval: eval}, nil
}

// bilinear samples matrix at fractional pixel coordinate (fx, fy), returning
// 0 outside the matrix bounds.
func bilinear(matrix [][]float64, nx, ny int, fx, fy float64) float64 {
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	ix0, iy0 := int(x0), int(y0)
	ix1, iy1 := ix0+1, iy0+1

	if ix0 < 0 || iy0 < 0 || ix1 >= nx || iy1 >= ny {
		return 0
	}

	tx := fx - x0
	ty := fy - y0

	v00 := matrix[iy0][ix0]
	v10 := matrix[iy0][ix1]
	v01 := matrix[iy1][ix0]
	v11 := matrix[iy1][ix1]

	top := v00*(1-tx) + v10*tx
	bot := v01*(1-tx) + v11*tx
	return top*(1-ty) + bot*ty
}
