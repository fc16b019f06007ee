package nn

import (
	"math"
	"math/rand"

	"FinTrain/internal/domain/models"
)

// encoder maps a window to a fixed-size vector. Encoder weights are drawn
// from a seeded source and never trained, so a checkpoint only has to carry
// the seed to rebuild them.
type encoder interface {
	encode(w models.FeatureWindow) []float64
	dim() int
}

func uniformMatrix(rng *rand.Rand, rows, cols int, scale float64) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * scale
		}
	}
	return m
}

// reservoir is a leaky tanh recurrent layer. It stands in for the LSTM
// encoder: the output is the last state followed by the mean state.
type reservoir struct {
	in, hidden int
	leak       float64
	wIn, wRec  [][]float64
	bias       []float64
}

func newReservoir(rng *rand.Rand, in, hidden int) *reservoir {
	r := &reservoir{in: in, hidden: hidden, leak: 0.5}
	r.wIn = uniformMatrix(rng, hidden, in, 1/math.Sqrt(float64(in)))
	r.wRec = uniformMatrix(rng, hidden, hidden, 0.9/math.Sqrt(float64(hidden)))
	r.bias = make([]float64, hidden)
	for i := range r.bias {
		r.bias[i] = (rng.Float64()*2 - 1) * 0.1
	}
	return r
}

func (r *reservoir) dim() int { return 2 * r.hidden }

func (r *reservoir) encode(w models.FeatureWindow) []float64 {
	h := make([]float64, r.hidden)
	next := make([]float64, r.hidden)
	mean := make([]float64, r.hidden)
	for _, x := range w {
		for j := 0; j < r.hidden; j++ {
			s := r.bias[j]
			for i := 0; i < r.in && i < len(x); i++ {
				s += r.wIn[j][i] * x[i]
			}
			for k, hk := range h {
				s += r.wRec[j][k] * hk
			}
			next[j] = (1-r.leak)*h[j] + r.leak*math.Tanh(s)
		}
		h, next = next, h
		for j, v := range h {
			mean[j] += v
		}
	}
	if n := float64(len(w)); n > 0 {
		for j := range mean {
			mean[j] /= n
		}
	}
	return append(h, mean...)
}

// convReservoir applies a width-3 ReLU convolution over time with zero
// padding and feeds the channels into a reservoir.
type convReservoir struct {
	in, channels int
	kernel       [][][]float64 // channel x tap x input
	bias         []float64
	rec          *reservoir
}

const convTaps = 3

func newConvReservoir(rng *rand.Rand, in, hidden int) *convReservoir {
	c := &convReservoir{in: in, channels: hidden}
	scale := 1 / math.Sqrt(float64(in*convTaps))
	c.kernel = make([][][]float64, hidden)
	for ch := range c.kernel {
		c.kernel[ch] = uniformMatrix(rng, convTaps, in, scale)
	}
	c.bias = make([]float64, hidden)
	c.rec = newReservoir(rng, hidden, hidden)
	return c
}

func (c *convReservoir) dim() int { return c.rec.dim() }

func (c *convReservoir) encode(w models.FeatureWindow) []float64 {
	conv := make(models.FeatureWindow, len(w))
	for t := range w {
		out := make([]float64, c.channels)
		for ch := 0; ch < c.channels; ch++ {
			s := c.bias[ch]
			for k := 0; k < convTaps; k++ {
				src := t + k - 1
				if src < 0 || src >= len(w) {
					continue
				}
				x := w[src]
				for i := 0; i < c.in && i < len(x); i++ {
					s += c.kernel[ch][k][i] * x[i]
				}
			}
			if s > 0 {
				out[ch] = s
			}
		}
		conv[t] = out
	}
	return c.rec.encode(conv)
}

// attention is single-head scaled dot-product attention with sinusoidal
// positions, queried from the last step. The output is the attended context
// followed by the raw last row.
type attention struct {
	in, d      int
	wq, wk, wv [][]float64
}

func newAttention(rng *rand.Rand, in, d int) *attention {
	scale := 1 / math.Sqrt(float64(in))
	return &attention{
		in: in,
		d:  d,
		wq: uniformMatrix(rng, d, in, scale),
		wk: uniformMatrix(rng, d, in, scale),
		wv: uniformMatrix(rng, d, in, scale),
	}
}

func (a *attention) dim() int { return a.d + a.in }

func positional(t, i, width int) float64 {
	angle := float64(t) / math.Pow(10000, float64(2*(i/2))/float64(width))
	if i%2 == 0 {
		return math.Sin(angle)
	}
	return math.Cos(angle)
}

func project(m [][]float64, x []float64) []float64 {
	out := make([]float64, len(m))
	for j, row := range m {
		s := 0.0
		for i := 0; i < len(row) && i < len(x); i++ {
			s += row[i] * x[i]
		}
		out[j] = s
	}
	return out
}

func (a *attention) encode(w models.FeatureWindow) []float64 {
	out := make([]float64, a.dim())
	if len(w) == 0 {
		return out
	}
	pos := make(models.FeatureWindow, len(w))
	for t, x := range w {
		row := make([]float64, a.in)
		for i := 0; i < a.in && i < len(x); i++ {
			row[i] = x[i] + positional(t, i, a.in)
		}
		pos[t] = row
	}
	q := project(a.wq, pos[len(pos)-1])
	scores := make([]float64, len(pos))
	for t, x := range pos {
		k := project(a.wk, x)
		s := 0.0
		for j := range k {
			s += q[j] * k[j]
		}
		scores[t] = s / math.Sqrt(float64(a.d))
	}
	weights := softmax(scores)
	for t, x := range pos {
		v := project(a.wv, x)
		for j := range v {
			out[j] += weights[t] * v[j]
		}
	}
	last := w[len(w)-1]
	for i := 0; i < a.in && i < len(last); i++ {
		out[a.d+i] = last[i]
	}
	return out
}
