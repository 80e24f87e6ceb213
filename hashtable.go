package cygrid

import (
	"golang.org/x/exp/maps"
)

// hashTables holds the two rendezvous maps and the disc-query memoization
// cache described in spec.md §4.4. targetPixelsByHpx is stable across grid()
// calls as long as the target geometry and nside are unchanged; discCache
// persists across grid() calls as long as the kernel geometry (hence
// discSize) is unchanged; outputToInputs is rebuilt on every grid() call.
type hashTables struct {
	nside int

	// HEALPix cell id -> output-pixel indices P whose centers fall in
	// that cell.
	targetPixelsByHpx map[int][]int

	// HEALPix cell id (of an input sample's own cell) -> set of HEALPix
	// cell ids within discSize of that cell's center. Invalidated
	// whenever discSize changes.
	discCache map[int][]int

	// output-pixel index P -> input-sample indices that fall within
	// discSize of (lon_P, lat_P). Rebuilt every grid() call.
	outputToInputs map[int][]int
}

func newHashTables(nside int) *hashTables {
	return &hashTables{
		nside:             nside,
		targetPixelsByHpx: make(map[int][]int),
		discCache:         make(map[int][]int),
	}
}

// buildTargets computes target_pixels_by_hpx for the fixed set of output
// pixels (already filtered of non-finite coordinates by the caller). pixel
// IDs and their (lon, lat) in radians must be the same length.
func (h *hashTables) buildTargets(pixelIDs []int, lonsRad, latsRad []float64) {
	h.targetPixelsByHpx = make(map[int][]int, len(pixelIDs))
	for i, p := range pixelIDs {
		cell := ang2pix(h.nside, lonsRad[i], latsRad[i])
		h.targetPixelsByHpx[cell] = append(h.targetPixelsByHpx[cell], p)
	}
}

// neighborCells returns the disc of HEALPix cells within discSize of the
// center of cell, memoized in discCache.
func (h *hashTables) neighborCells(cell int, discSize float64) []int {
	if cells, ok := h.discCache[cell]; ok {
		return cells
	}
	lon, lat := pix2ang(h.nside, cell)
	cells := queryDisc(h.nside, lon, lat, discSize)
	h.discCache[cell] = cells
	return cells
}

// invalidateDiscCache drops all memoized query_disc results; called
// whenever the kernel geometry (and hence discSize) changes.
func (h *hashTables) invalidateDiscCache() {
	h.discCache = make(map[int][]int)
}

// buildOutputToInputs rebuilds output_to_inputs for one grid() call: for
// each input sample, find its own HEALPix cell, look up (or compute) the
// disc of neighbor cells at discSize, and for every output pixel living in
// one of those neighbor cells, record the sample as a candidate contributor.
func (h *hashTables) buildOutputToInputs(inputLonsRad, inputLatsRad []float64, discSize float64) {
	h.outputToInputs = make(map[int][]int)
	for i := range inputLonsRad {
		cell := ang2pix(h.nside, inputLonsRad[i], inputLatsRad[i])
		for _, neighbor := range h.neighborCells(cell, discSize) {
			for _, p := range h.targetPixelsByHpx[neighbor] {
				h.outputToInputs[p] = append(h.outputToInputs[p], i)
			}
		}
	}
}

// touchedOutputPixels returns the output-pixel indices that received at
// least one candidate input in the most recent buildOutputToInputs call.
func (h *hashTables) touchedOutputPixels() []int {
	return maps.Keys(h.outputToInputs)
}
