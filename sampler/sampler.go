package sampler

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arloliu/mcint/types"
)

// Sampler holds one uniform distribution over [low, high) per dimension.
//
// The distributions carry no random source; workers obtain a Stream bound to their
// own generator.
type Sampler struct {
	dims []distuv.Uniform
}

// New builds the per-dimension samplers for bounds.
//
// Parameters:
//   - bounds: Validated bounds, one per dimension
//
// Returns:
//   - *Sampler: Immutable sampler parameters
func New(bounds []types.Bound) *Sampler {
	dims := make([]distuv.Uniform, len(bounds))
	for i, b := range bounds {
		dims[i] = distuv.Uniform{Min: b.Low, Max: b.High}
	}

	return &Sampler{dims: dims}
}

// Dimensions returns the number of dimensions.
func (s *Sampler) Dimensions() int {
	return len(s.dims)
}

// Stream returns a worker-private view drawing from src.
//
// The returned Stream must not be shared between goroutines.
func (s *Sampler) Stream(src rand.Source) *Stream {
	dims := make([]distuv.Uniform, len(s.dims))
	for i, d := range s.dims {
		d.Src = src
		dims[i] = d
	}

	return &Stream{dims: dims}
}

// Stream draws points using one worker's generator.
type Stream struct {
	dims []distuv.Uniform
}

// NewPoint allocates a point buffer sized for this stream.
func (st *Stream) NewPoint() []float64 {
	return make([]float64, len(st.dims))
}

// Draw fills point with one coordinate per dimension.
func (st *Stream) Draw(point []float64) {
	for i := range st.dims {
		point[i] = st.dims[i].Rand()
	}
}
