package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/owlpinetech/cygrid"
	"github.com/spf13/cobra"
)

var (
	shape     string
	nSamples  int
	sigmaDeg  float64
	threads   int
	seed      int64
	dtypeName string
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Grid a synthetic set of samples onto a WCS-like projection grid",
	RunE:  runGrid,
}

func init() {
	gridCmd.Flags().StringVar(&shape, "shape", "1x512x512", "target shape as CxNYxNX")
	gridCmd.Flags().IntVar(&nSamples, "samples", 100000, "number of synthetic samples")
	gridCmd.Flags().Float64Var(&sigmaDeg, "sigma", 0.05, "gauss1d kernel sigma, in degrees")
	gridCmd.Flags().IntVar(&threads, "threads", 0, "accumulation thread cap (0 = runtime.NumCPU)")
	gridCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for synthetic samples")
	gridCmd.Flags().StringVar(&dtypeName, "dtype", "float32", "output cube precision: float32 or float64")
	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, args []string) error {
	var c, ny, nx int
	if _, err := fmt.Sscanf(shape, "%dx%dx%d", &c, &ny, &nx); err != nil {
		return fmt.Errorf("invalid --shape %q, expected CxNYxNX: %w", shape, err)
	}

	centerLonDeg, centerLatDeg := 180.0, 0.0
	fovDeg := 5.0

	pixelToWorld := func(xs, ys []float64) (lons, lats []float64) {
		lons = make([]float64, len(xs))
		lats = make([]float64, len(ys))
		for i := range xs {
			fx := (xs[i]-float64(nx)/2.0 - 0.5) / float64(nx) * fovDeg
			fy := (ys[i]-float64(ny)/2.0 - 0.5) / float64(ny) * fovDeg
			lons[i] = centerLonDeg + fx
			lats[i] = centerLatDeg + fy
		}
		return lons, lats
	}

	gridder, err := cygrid.NewProjectionGridder(c, ny, nx, pixelToWorld, nil)
	if err != nil {
		return err
	}

	if err := gridder.SetKernel("gauss1d", cygrid.Gauss1DParams{SigmaDeg: sigmaDeg}, 3*sigmaDeg, sigmaDeg/2); err != nil {
		return err
	}
	gridder.SetNumThreads(threads)

	rng := rand.New(rand.NewSource(seed))
	lons := make([]float64, nSamples)
	lats := make([]float64, nSamples)
	data := make([][]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		lons[i] = centerLonDeg + (rng.Float64()-0.5)*fovDeg
		lats[i] = centerLatDeg + (rng.Float64()-0.5)*fovDeg
		row := make([]float64, c)
		for z := 0; z < c; z++ {
			row[z] = 1.0
		}
		data[i] = row
	}

	log.Info().Int("samples", nSamples).Str("shape", shape).Msg("starting grid run")
	start := time.Now()
	if err := gridder.Grid(lons, lats, data, nil, dtypeName); err != nil {
		return err
	}
	elapsed := time.Since(start)

	weights := gridder.GetWeights()
	covered := 0
	total := 0
	switch w := weights.(type) {
	case []float32:
		total = len(w)
		for _, v := range w {
			if v > 0 {
				covered++
			}
		}
	case []float64:
		total = len(w)
		for _, v := range w {
			if v > 0 {
				covered++
			}
		}
	}

	rate := float64(nSamples) / math.Max(elapsed.Seconds(), 1e-9)
	log.Info().
		Dur("elapsed", elapsed).
		Float64("samples_per_sec", rate).
		Int("covered_pixels", covered).
		Int("total_pixels", total).
		Msg("grid run complete")

	fmt.Printf("gridded %d samples in %s (%.0f samples/sec), coverage %d/%d pixels\n",
		nSamples, elapsed, rate, covered, total)
	return nil
}
