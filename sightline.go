package cygrid

import "math"

// NewSightlineGridder builds a Gridder targeting a flat list of sight
// lines, each an independent (lon, lat) position with its own spectrum of
// length numChannels. The target shape is (numChannels, 1, len(lons)):
// a degenerate projection grid with ny fixed at 1, so the same rendezvous
// machinery as NewProjectionGridder applies unchanged.
//
// Sight lines at non-finite coordinates are dropped from the target set,
// matching the filtering rule used for projection grids.
func NewSightlineGridder(lons, lats []float64, numChannels int, buffers *PreallocatedCubes) (*Gridder, error) {
	if numChannels <= 0 {
		return nil, NewGeometryError("sight-line gridder requires a positive channel count")
	}
	if len(lons) != len(lats) {
		return nil, NewShapeMismatchError("lons and lats must have equal length")
	}

	pixelIDs := make([]int, 0, len(lons))
	lonsDeg := make([]float64, 0, len(lons))
	latsDeg := make([]float64, 0, len(lats))
	for i, lon := range lons {
		lat := lats[i]
		if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
			continue
		}
		pixelIDs = append(pixelIDs, packPixel(i, 0))
		lonsDeg = append(lonsDeg, lon)
		latsDeg = append(latsDeg, lat)
	}

	n := len(lons)
	shape := [3]int{numChannels, 1, n}
	decode := func(p int) (x, y int) { return unpackPixel(p) }
	flatIndex := func(z, x, y int) int { return z*n + x }

	return newGridder(shape, pixelIDs, lonsDeg, latsDeg, decode, flatIndex, buffers)
}
