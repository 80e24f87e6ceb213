package cygrid

import (
	"math"
	"runtime"
)

// resolutionTolerance is the slack (radians, roughly 6 arcseconds) below
// which two HEALPix resolutions or disc sizes are treated as identical by
// SetKernel, so that calling it twice with the same arguments does not
// trigger a hash-table rebuild (spec.md §3 Lifecycle).
const resolutionTolerance = 3e-5

// PreallocatedCubes lets a caller supply its own datacube/weightscube
// backing storage instead of having Gridder allocate fresh ones on first
// Grid call — e.g. to grid repeated campaigns into the same buffers. Both
// fields must hold a []float32 or a []float64 of length C*Ny*Nx, and must
// agree with each other and with whatever dtype Grid is later called with.
type PreallocatedCubes struct {
	Datacube    any
	Weightscube any
}

// Gridder accumulates irregularly sampled sky data onto a fixed discrete
// target (a 2D WCS projection grid or a 1D sight-line list) via the
// HEALPix-indexed rendezvous scheme of spec.md §4. A zero Gridder is not
// usable; construct one with NewProjectionGridder or NewSightlineGridder.
type Gridder struct {
	shape [3]int // C, Ny, Nx ("Ny" is 1 for sight-line gridders)

	pixelIDs       []int
	pixelLonsRad   []float64
	pixelLatsRad   []float64
	pixelCoordsRad map[int][2]float64

	decode    func(p int) (x, y int)
	flatIndex func(z, x, y int) int

	kernelSet        bool
	kernel           *Kernel
	hpxRes           hpxResolution
	supportRadiusRad float64
	discSizeRad      float64

	hashes *hashTables

	numThreads int

	datacube    any
	weightscube any
}

func newGridder(shape [3]int, pixelIDs []int, lonsDeg, latsDeg []float64,
	decode func(p int) (x, y int), flatIndex func(z, x, y int) int, buffers *PreallocatedCubes) (*Gridder, error) {

	if len(pixelIDs) != len(lonsDeg) || len(pixelIDs) != len(latsDeg) {
		return nil, NewGeometryError("pixel id and coordinate arrays must have equal length")
	}

	g := &Gridder{
		shape:          shape,
		pixelIDs:       pixelIDs,
		pixelLonsRad:   make([]float64, len(pixelIDs)),
		pixelLatsRad:   make([]float64, len(pixelIDs)),
		pixelCoordsRad: make(map[int][2]float64, len(pixelIDs)),
		decode:         decode,
		flatIndex:      flatIndex,
		numThreads:     runtime.NumCPU(),
	}
	for i, p := range pixelIDs {
		lonRad := deg2rad(lonsDeg[i])
		latRad := deg2rad(latsDeg[i])
		g.pixelLonsRad[i] = lonRad
		g.pixelLatsRad[i] = latRad
		g.pixelCoordsRad[p] = [2]float64{lonRad, latRad}
	}

	totalLen := shape[0] * shape[1] * shape[2]
	if buffers != nil {
		dc, err := validateBufferDtype(buffers.Datacube, totalLen)
		if err != nil {
			return nil, err
		}
		wc, err := validateBufferDtype(buffers.Weightscube, totalLen)
		if err != nil {
			return nil, err
		}
		if dc != nil && wc != nil && dtypeName(dc) != dtypeName(wc) {
			return nil, NewDtypeMismatchError("preallocated datacube and weightscube element types differ")
		}
		g.datacube = dc
		g.weightscube = wc
	}

	log.Debug().Int("pixels", len(pixelIDs)).Ints("shape", shape[:]).Msg("gridder target prepared")
	return g, nil
}

func validateBufferDtype(buf any, totalLen int) (any, error) {
	switch b := buf.(type) {
	case nil:
		return nil, nil
	case []float32:
		if len(b) != totalLen {
			return nil, NewGeometryError("preallocated buffer length does not match target shape")
		}
		return b, nil
	case []float64:
		if len(b) != totalLen {
			return nil, NewGeometryError("preallocated buffer length does not match target shape")
		}
		return b, nil
	default:
		return nil, NewDtypeMismatchError("preallocated buffer must be []float32 or []float64")
	}
}

func dtypeName(buf any) string {
	switch buf.(type) {
	case []float32:
		return "float32"
	case []float64:
		return "float64"
	default:
		return "unknown"
	}
}

// SetKernel (re)configures the kernel and the HEALPix resolution used to
// build the rendezvous hash tables. It is idempotent: calling it twice with
// a resolution and support radius that are within resolutionTolerance of the
// previous call leaves the existing target hash table and disc-query cache
// untouched (spec.md §3 Lifecycle).
func (g *Gridder) SetKernel(kind string, params any, supportRadiusDeg, hpxMaxResolutionDeg float64) error {
	kk, err := ParseKernelKind(kind)
	if err != nil {
		return err
	}
	kernel, err := newKernel(kk, params, supportRadiusDeg)
	if err != nil {
		return err
	}

	newRes := nsideForResolution(deg2rad(hpxMaxResolutionDeg))
	newSupportRad := deg2rad(supportRadiusDeg)
	newDiscSize := newSupportRad + newRes.resolution

	resChanged := g.hashes == nil || math.Abs(newRes.resolution-g.hpxRes.resolution) > resolutionTolerance
	discChanged := math.Abs(newDiscSize-g.discSizeRad) > resolutionTolerance

	switch {
	case resChanged:
		g.hashes = newHashTables(newRes.nside)
		g.hashes.buildTargets(g.pixelIDs, g.pixelLonsRad, g.pixelLatsRad)
		log.Debug().Int("nside", newRes.nside).Msg("rebuilt target hash table")
	case discChanged:
		g.hashes.invalidateDiscCache()
		log.Debug().Float64("disc_size_rad", newDiscSize).Msg("invalidated disc cache")
	}

	g.hpxRes = newRes
	g.supportRadiusRad = newSupportRad
	g.discSizeRad = newDiscSize
	g.kernel = kernel
	g.kernelSet = true
	return nil
}

// SetNumThreads caps the number of goroutines the accumulation loop uses. A
// non-positive value resets it to runtime.NumCPU().
func (g *Gridder) SetNumThreads(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	g.numThreads = n
	log.Debug().Int("num_threads", n).Msg("set accumulation thread cap")
}

// Grid accumulates one batch of irregularly sampled data onto the target.
// lons/lats are sample positions in degrees, data/weights are
// (numSamples, numChannels) rows, and dtype selects the cube's output
// precision ("float32" or "float64"; the empty string defaults to
// "float32"). weights may be nil, in which case every sample/channel is
// implicitly weighted 1. Grid may be called repeatedly; contributions
// accumulate into the same datacube/weightscube across calls.
func (g *Gridder) Grid(lons, lats []float64, data, weights [][]float64, dtype string) error {
	if !g.kernelSet {
		return ErrKernelNotSet
	}
	switch dtype {
	case "float32", "":
		return gridTyped[float32](g, lons, lats, data, weights)
	case "float64":
		return gridTyped[float64](g, lons, lats, data, weights)
	default:
		return NewInvalidDtypeError(dtype)
	}
}

func gridTyped[T Real](g *Gridder, lons, lats []float64, data, weights [][]float64) error {
	if len(lons) != len(lats) {
		return NewShapeMismatchError("lons and lats must have equal length")
	}
	if len(data) != len(lons) {
		return NewShapeMismatchError("data must have one row per sample")
	}
	if weights != nil && len(weights) != len(lons) {
		return NewShapeMismatchError("weights must have one row per sample")
	}

	numChannels := g.shape[0]
	for i, row := range data {
		if len(row) != numChannels {
			return NewShapeMismatchError("data row length must match the target's spectral axis")
		}
		if weights != nil && len(weights[i]) != numChannels {
			return NewShapeMismatchError("weights row length must match the target's spectral axis")
		}
	}

	totalLen := g.shape[0] * g.shape[1] * g.shape[2]
	datacube, err := ensureCube[T](g.datacube, totalLen)
	if err != nil {
		return err
	}
	weightscube, err := ensureCube[T](g.weightscube, totalLen)
	if err != nil {
		return err
	}
	g.datacube = datacube
	g.weightscube = weightscube

	typedData := make([][]T, len(data))
	typedWeights := make([][]T, len(data))
	for i := range data {
		row := make([]T, numChannels)
		wrow := make([]T, numChannels)
		for z := 0; z < numChannels; z++ {
			row[z] = T(data[i][z])
			if weights == nil {
				wrow[z] = T(1)
			} else {
				wrow[z] = T(weights[i][z])
			}
		}
		typedData[i] = row
		typedWeights[i] = wrow
	}

	sampleLonsRad := make([]float64, len(lons))
	sampleLatsRad := make([]float64, len(lats))
	for i := range lons {
		sampleLonsRad[i] = deg2rad(lons[i])
		sampleLatsRad[i] = deg2rad(lats[i])
	}

	g.hashes.buildOutputToInputs(sampleLonsRad, sampleLatsRad, g.discSizeRad)
	touched := g.hashes.touchedOutputPixels()

	return accumulate[T](touched, g.hashes.outputToInputs, g.pixelCoordsRad,
		sampleLonsRad, sampleLatsRad, typedData, typedWeights, g.kernel, numChannels,
		g.decode, g.flatIndex, datacube, weightscube, g.numThreads)
}

func ensureCube[T Real](existing any, totalLen int) ([]T, error) {
	if existing == nil {
		return make([]T, totalLen), nil
	}
	typed, ok := existing.([]T)
	if !ok {
		return nil, NewDtypeMismatchError("preallocated buffer element type does not match requested dtype")
	}
	if len(typed) != totalLen {
		return nil, NewGeometryError("preallocated buffer length does not match target shape")
	}
	return typed, nil
}

// GetUnweightedDatacube returns the raw weighted-sum accumulator (the
// numerator of the flux-conserving average), in whatever dtype Grid was
// last called with.
func (g *Gridder) GetUnweightedDatacube() any {
	return g.datacube
}

// GetWeights returns the accumulated weight cube (the denominator).
func (g *Gridder) GetWeights() any {
	return g.weightscube
}

// GetDatacube returns the flux-conserving average: datacube / weightscube,
// element-wise, with zero-weight cells left at zero rather than producing
// NaN or Inf.
func (g *Gridder) GetDatacube() (any, error) {
	switch dc := g.datacube.(type) {
	case nil:
		return nil, NewGeometryError("no data has been gridded yet")
	case []float32:
		wc, ok := g.weightscube.([]float32)
		if !ok {
			return nil, NewDtypeMismatchError("datacube and weightscube element types differ")
		}
		return divideCube(dc, wc), nil
	case []float64:
		wc, ok := g.weightscube.([]float64)
		if !ok {
			return nil, NewDtypeMismatchError("datacube and weightscube element types differ")
		}
		return divideCube(dc, wc), nil
	default:
		return nil, NewDtypeMismatchError("unsupported cube element type")
	}
}

func divideCube[T Real](datacube, weightscube []T) []T {
	out := make([]T, len(datacube))
	for i := range out {
		if weightscube[i] != 0 {
			out[i] = datacube[i] / weightscube[i]
		}
	}
	return out
}
