package cygrid

import (
	"golang.org/x/sync/errgroup"
)

// accumulateChunkSize is the scheduling granularity for the parallel
// accumulation loop (spec.md §5): large enough to amortize goroutine
// scheduling overhead, small enough to keep load reasonably balanced when
// some output pixels have far more candidate inputs than others.
const accumulateChunkSize = 100

// accumulate runs the flux-conserving accumulation loop of spec.md §4.5 in
// parallel across the touched output pixels. Each worker owns a disjoint
// slice of touched, and since output pixels never repeat across workers
// (touched holds each output-pixel index once), no two workers ever write
// the same (z, y, x) cell of datacube/weightscube — no locking required.
func accumulate[T Real](
	touched []int,
	outputToInputs map[int][]int,
	pixelCoordsRad map[int][2]float64,
	sampleLonsRad, sampleLatsRad []float64,
	data, weights [][]T,
	kernel *Kernel,
	numChannels int,
	decode func(p int) (x, y int),
	flatIndex func(z, x, y int) int,
	datacube, weightscube []T,
	numThreads int,
) error {
	g := new(errgroup.Group)
	if numThreads > 0 {
		g.SetLimit(numThreads)
	}

	for start := 0; start < len(touched); start += accumulateChunkSize {
		end := start + accumulateChunkSize
		if end > len(touched) {
			end = len(touched)
		}
		chunk := touched[start:end]

		g.Go(func() error {
			accumulateChunk(
				chunk, outputToInputs, pixelCoordsRad, sampleLonsRad, sampleLatsRad,
				data, weights, kernel, numChannels, decode, flatIndex, datacube, weightscube,
			)
			return nil
		})
	}

	return g.Wait()
}

func accumulateChunk[T Real](
	chunk []int,
	outputToInputs map[int][]int,
	pixelCoordsRad map[int][2]float64,
	sampleLonsRad, sampleLatsRad []float64,
	data, weights [][]T,
	kernel *Kernel,
	numChannels int,
	decode func(p int) (x, y int),
	flatIndex func(z, x, y int) int,
	datacube, weightscube []T,
) {
	for _, p := range chunk {
		coord, ok := pixelCoordsRad[p]
		if !ok {
			continue
		}
		lonP, latP := coord[0], coord[1]
		x, y := decode(p)

		for _, i := range outputToInputs[p] {
			dRad := trueAngularDistance(lonP, latP, sampleLonsRad[i], sampleLatsRad[i])
			dDeg := rad2deg(dRad)
			if dDeg >= kernel.SupportRadiusDeg {
				continue // candidate-but-not-hit
			}

			var bearing float64
			if kernel.BearingNeeded {
				bearing = greatCircleBearing(lonP, latP, sampleLonsRad[i], sampleLatsRad[i])
			}
			wKernel := T(kernel.Eval(dDeg, bearing))

			sampleData := data[i]
			sampleWeights := weights[i]
			for z := 0; z < numChannels; z++ {
				w := sampleWeights[z] * wKernel
				idx := flatIndex(z, x, y)
				datacube[idx] += sampleData[z] * w
				weightscube[idx] += w
			}
		}
	}
}
