package cygrid

// Real is the element type datacube and weightscube may be built from. The
// core never promotes to a wider type internally: the spec's "no Kahan
// summation, arithmetic happens in the selected output float type" note
// (spec.md §4.5) means float32 accumulation stays float32 end to end.
type Real interface {
	~float32 | ~float64
}

// MaxY is the packing constant for the P = x*MaxY + y output-pixel index
// (spec.md §3): a pragmatic way to hash a (x, y) pair as a single int key
// without a custom pair hasher. Any (x, y) used with this packing must
// satisfy y < MaxY.
const MaxY = 1 << 30

func packPixel(x, y int) int {
	return x*MaxY + y
}

func unpackPixel(p int) (x, y int) {
	return p / MaxY, p % MaxY
}
