package nn

import (
	"math"
	"math/rand"
)

// head is a one hidden layer ReLU MLP with a softmax output. Parameters
// live in one flat slice: W1 (hidden x in), b1, W2 (classes x hidden), b2.
type head struct {
	in, hidden, classes int
	params              []float64
}

func newHead(in, hidden, classes int, rng *rand.Rand) *head {
	h := &head{in: in, hidden: hidden, classes: classes}
	h.params = make([]float64, h.size())
	lim1 := math.Sqrt(6.0 / float64(in))
	for i := 0; i < hidden*in; i++ {
		h.params[i] = (rng.Float64()*2 - 1) * lim1
	}
	lim2 := math.Sqrt(6.0 / float64(hidden+classes))
	off := h.w2Off()
	for i := 0; i < classes*hidden; i++ {
		h.params[off+i] = (rng.Float64()*2 - 1) * lim2
	}
	return h
}

func (h *head) size() int {
	return h.hidden*h.in + h.hidden + h.classes*h.hidden + h.classes
}

func (h *head) b1Off() int { return h.hidden * h.in }
func (h *head) w2Off() int { return h.b1Off() + h.hidden }
func (h *head) b2Off() int { return h.w2Off() + h.classes*h.hidden }

// forward returns the hidden pre-activations and the logits.
func (h *head) forward(f []float64) (z1, logits []float64) {
	p := h.params
	z1 = make([]float64, h.hidden)
	b1 := h.b1Off()
	for j := 0; j < h.hidden; j++ {
		s := p[b1+j]
		row := p[j*h.in : (j+1)*h.in]
		for i, x := range f {
			s += row[i] * x
		}
		z1[j] = s
	}
	logits = make([]float64, h.classes)
	w2, b2 := h.w2Off(), h.b2Off()
	for k := 0; k < h.classes; k++ {
		s := p[b2+k]
		row := p[w2+k*h.hidden : w2+(k+1)*h.hidden]
		for j, z := range z1 {
			if z > 0 {
				s += row[j] * z
			}
		}
		logits[k] = s
	}
	return z1, logits
}

// accumulate adds the cross-entropy gradient of one sample into grads and
// returns the sample loss.
func (h *head) accumulate(f []float64, label int, grads []float64, scale float64) float64 {
	z1, logits := h.forward(f)
	probs := softmax(logits)
	loss := crossEntropy(probs, label)

	p := h.params
	w2, b2, b1 := h.w2Off(), h.b2Off(), h.b1Off()
	dh := make([]float64, h.hidden)
	for k := 0; k < h.classes; k++ {
		d := probs[k]
		if k == label {
			d -= 1
		}
		d *= scale
		grads[b2+k] += d
		for j, z := range z1 {
			if z > 0 {
				grads[w2+k*h.hidden+j] += d * z
				dh[j] += d * p[w2+k*h.hidden+j]
			}
		}
	}
	for j, z := range z1 {
		if z <= 0 {
			continue
		}
		grads[b1+j] += dh[j]
		row := grads[j*h.in : (j+1)*h.in]
		for i, x := range f {
			row[i] += dh[j] * x
		}
	}
	return loss
}
