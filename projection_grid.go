package cygrid

import "math"

// NewProjectionGridder builds a Gridder targeting a 2D WCS projection grid
// of shape (numChannels, ny, nx). pixelToWorld maps 1-indexed pixel
// coordinates (x, y) — matching the FITS/WCS convention where pixel (1, 1)
// is the first pixel — to (lon, lat) in degrees; it is called once at
// construction time with the coordinates of every pixel, not on the
// per-sample hot path.
//
// Pixels for which pixelToWorld returns a non-finite lon or lat (off the
// edge of the projection, e.g. outside a valid AIT or MOL footprint) are
// dropped from the target set: they can never be reached by Grid and never
// appear in target_pixels_by_hpx, matching spec.md §4.6's non-finite
// filtering rule.
func NewProjectionGridder(numChannels, ny, nx int, pixelToWorld func(x, y []float64) (lons, lats []float64), buffers *PreallocatedCubes) (*Gridder, error) {
	if numChannels <= 0 || ny <= 0 || nx <= 0 {
		return nil, NewGeometryError("projection grid shape must have positive dimensions")
	}

	total := ny * nx
	xs := make([]float64, total)
	ys := make([]float64, total)
	idx := 0
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			xs[idx] = float64(ix + 1)
			ys[idx] = float64(iy + 1)
			idx++
		}
	}

	lons, lats := pixelToWorld(xs, ys)
	if len(lons) != total || len(lats) != total {
		return nil, NewShapeMismatchError("pixel_to_world must return one (lon, lat) pair per grid pixel")
	}

	pixelIDs := make([]int, 0, total)
	lonsDeg := make([]float64, 0, total)
	latsDeg := make([]float64, 0, total)
	idx = 0
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			lon, lat := lons[idx], lats[idx]
			idx++
			if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
				continue
			}
			pixelIDs = append(pixelIDs, packPixel(ix, iy))
			lonsDeg = append(lonsDeg, lon)
			latsDeg = append(latsDeg, lat)
		}
	}

	shape := [3]int{numChannels, ny, nx}
	decode := func(p int) (x, y int) { return unpackPixel(p) }
	flatIndex := func(z, x, y int) int { return (z*ny+y)*nx + x }

	return newGridder(shape, pixelIDs, lonsDeg, latsDeg, decode, flatIndex, buffers)
}
