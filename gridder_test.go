package cygrid

import (
	"math"
	"testing"
)

func flatProjection(ny, nx int, centerLon, centerLat, fovDeg float64) func(xs, ys []float64) (lons, lats []float64) {
	return func(xs, ys []float64) (lons, lats []float64) {
		lons = make([]float64, len(xs))
		lats = make([]float64, len(ys))
		for i := range xs {
			fx := (xs[i] - float64(nx)/2.0 - 0.5) / float64(nx) * fovDeg
			fy := (ys[i] - float64(ny)/2.0 - 0.5) / float64(ny) * fovDeg
			lons[i] = centerLon + fx
			lats[i] = centerLat + fy
		}
		return lons, lats
	}
}

func TestGridSinglePointGauss1D(t *testing.T) {
	ny, nx := 21, 21
	g, err := NewProjectionGridder(1, ny, nx, flatProjection(ny, nx, 180, 0, 2.0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.05}, 0.3, 0.02); err != nil {
		t.Fatal(err)
	}

	if err := g.Grid([]float64{180}, []float64{0}, [][]float64{{5.0}}, nil, "float64"); err != nil {
		t.Fatal(err)
	}

	cube, err := g.GetDatacube()
	if err != nil {
		t.Fatal(err)
	}
	values := cube.([]float64)

	centerIdx := (0*ny+ny/2)*nx + nx/2
	if math.Abs(values[centerIdx]-5.0) > 1e-6 {
		t.Errorf("expected the pixel under the single sample to read back ~5.0, got %v", values[centerIdx])
	}
}

func TestGridFluxConservation(t *testing.T) {
	ny, nx := 41, 41
	g, err := NewProjectionGridder(1, ny, nx, flatProjection(ny, nx, 180, 0, 4.0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.1}, 0.6, 0.03); err != nil {
		t.Fatal(err)
	}

	n := 500
	lons := make([]float64, n)
	lats := make([]float64, n)
	data := make([][]float64, n)
	for i := 0; i < n; i++ {
		lons[i] = 180
		lats[i] = 0
		data[i] = []float64{1.0}
	}
	if err := g.Grid(lons, lats, data, nil, "float64"); err != nil {
		t.Fatal(err)
	}

	avg, err := g.GetDatacube()
	if err != nil {
		t.Fatal(err)
	}
	values := avg.([]float64)
	centerIdx := (0*ny+ny/2)*nx + nx/2
	// All samples coincide with the same position, every one contributes
	// with the same kernel weight, so the flux-conserving average must
	// read back the input value regardless of how many samples landed
	// there.
	if math.Abs(values[centerIdx]-1.0) > 1e-6 {
		t.Errorf("expected flux-conserving average of 1.0 under repeated identical samples, got %v", values[centerIdx])
	}
}

func TestGridSightlineIdentity(t *testing.T) {
	lons := []float64{10, 20, 30}
	lats := []float64{0, 0, 0}
	g, err := NewSightlineGridder(lons, lats, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.01}, 0.05, 0.005); err != nil {
		t.Fatal(err)
	}

	data := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	if err := g.Grid(lons, lats, data, nil, "float64"); err != nil {
		t.Fatal(err)
	}

	cube, err := g.GetDatacube()
	if err != nil {
		t.Fatal(err)
	}
	values := cube.([]float64)
	n := len(lons)
	for i := 0; i < n; i++ {
		for z := 0; z < 2; z++ {
			idx := z*n + i
			want := data[i][z]
			if math.Abs(values[idx]-want) > 1e-6 {
				t.Errorf("sightline %d channel %d: expected %v, got %v", i, z, want, values[idx])
			}
		}
	}
}

func TestGridDeterministicAcrossThreadCounts(t *testing.T) {
	ny, nx := 31, 31
	build := func(threads int) []float64 {
		g, err := NewProjectionGridder(1, ny, nx, flatProjection(ny, nx, 180, 0, 3.0), nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.1}, 0.4, 0.02); err != nil {
			t.Fatal(err)
		}
		g.SetNumThreads(threads)

		n := 200
		lons := make([]float64, n)
		lats := make([]float64, n)
		data := make([][]float64, n)
		for i := 0; i < n; i++ {
			lons[i] = 180 + float64(i%20-10)*0.05
			lats[i] = float64(i/20-5) * 0.05
			data[i] = []float64{float64(i)}
		}
		if err := g.Grid(lons, lats, data, nil, "float64"); err != nil {
			t.Fatal(err)
		}
		cube, err := g.GetDatacube()
		if err != nil {
			t.Fatal(err)
		}
		return cube.([]float64)
	}

	single := build(1)
	multi := build(4)
	if len(single) != len(multi) {
		t.Fatalf("expected equal length cubes, got %d and %d", len(single), len(multi))
	}
	for i := range single {
		if math.Abs(single[i]-multi[i]) > 1e-9 {
			t.Errorf("cube differs at index %d between 1 and 4 threads: %v vs %v", i, single[i], multi[i])
		}
	}
}

func TestGridAccumulatesAcrossRepeatedCalls(t *testing.T) {
	ny, nx := 21, 21
	g, err := NewProjectionGridder(1, ny, nx, flatProjection(ny, nx, 180, 0, 2.0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.05}, 0.3, 0.02); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := g.Grid([]float64{180}, []float64{0}, [][]float64{{2.0}}, nil, "float64"); err != nil {
			t.Fatal(err)
		}
	}

	values, err := g.GetDatacube()
	if err != nil {
		t.Fatal(err)
	}
	cube := values.([]float64)
	centerIdx := (0*ny+ny/2)*nx + nx/2
	if math.Abs(cube[centerIdx]-2.0) > 1e-6 {
		t.Errorf("expected repeated identical grid() calls to still average to 2.0, got %v", cube[centerIdx])
	}
}

func TestGridRejectsBeforeSetKernel(t *testing.T) {
	ny, nx := 5, 5
	g, err := NewProjectionGridder(1, ny, nx, flatProjection(ny, nx, 180, 0, 1.0), nil)
	if err != nil {
		t.Fatal(err)
	}
	err = g.Grid([]float64{180}, []float64{0}, [][]float64{{1}}, nil, "float64")
	if err != ErrKernelNotSet {
		t.Errorf("expected ErrKernelNotSet, got %v", err)
	}
}

func TestGridRejectsShapeMismatch(t *testing.T) {
	ny, nx := 5, 5
	g, err := NewProjectionGridder(2, ny, nx, flatProjection(ny, nx, 180, 0, 1.0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.1}, 0.5, 0.05); err != nil {
		t.Fatal(err)
	}
	err = g.Grid([]float64{180}, []float64{0}, [][]float64{{1}}, nil, "float64")
	if _, ok := err.(*ShapeMismatchError); !ok {
		t.Errorf("expected *ShapeMismatchError for a data row shorter than the spectral axis, got %v", err)
	}
}

func TestGridRejectsInvalidDtype(t *testing.T) {
	ny, nx := 5, 5
	g, err := NewProjectionGridder(1, ny, nx, flatProjection(ny, nx, 180, 0, 1.0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.1}, 0.5, 0.05); err != nil {
		t.Fatal(err)
	}
	err = g.Grid([]float64{180}, []float64{0}, [][]float64{{1}}, nil, "int32")
	if _, ok := err.(*InvalidDtypeError); !ok {
		t.Errorf("expected *InvalidDtypeError, got %v", err)
	}
}

func TestSetKernelIdempotentSkipsRebuild(t *testing.T) {
	ny, nx := 9, 9
	g, err := NewProjectionGridder(1, ny, nx, flatProjection(ny, nx, 180, 0, 1.0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.1}, 0.5, 0.05); err != nil {
		t.Fatal(err)
	}
	firstHashes := g.hashes
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.1}, 0.5, 0.05); err != nil {
		t.Fatal(err)
	}
	if g.hashes != firstHashes {
		t.Error("expected an identical SetKernel call to leave the hash tables untouched")
	}
}

func TestSetKernelRebuildsOnResolutionChange(t *testing.T) {
	ny, nx := 9, 9
	g, err := NewProjectionGridder(1, ny, nx, flatProjection(ny, nx, 180, 0, 1.0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.1}, 0.5, 0.05); err != nil {
		t.Fatal(err)
	}
	firstHashes := g.hashes
	if err := g.SetKernel("gauss1d", Gauss1DParams{SigmaDeg: 0.1}, 0.5, 0.005); err != nil {
		t.Fatal(err)
	}
	if g.hashes == firstHashes {
		t.Error("expected a materially different max resolution to trigger a hash table rebuild")
	}
}

func TestNewProjectionGridderDropsNonFiniteCoordinates(t *testing.T) {
	ny, nx := 3, 3
	pixelToWorld := func(xs, ys []float64) (lons, lats []float64) {
		lons = make([]float64, len(xs))
		lats = make([]float64, len(ys))
		for i := range xs {
			if xs[i] == 2 && ys[i] == 2 {
				lons[i] = math.NaN()
				lats[i] = math.NaN()
				continue
			}
			lons[i] = xs[i]
			lats[i] = ys[i]
		}
		return lons, lats
	}
	g, err := NewProjectionGridder(1, ny, nx, pixelToWorld, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.pixelIDs) != ny*nx-1 {
		t.Errorf("expected one pixel dropped for non-finite coordinates, got %d target pixels", len(g.pixelIDs))
	}
}
