package nn

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// Loss scores a prediction against its target.
//
// Evaluate writes dL/dpred into grad (same shape as pred) and returns the
// scalar loss and the number of rows counted as correct.
type Loss interface {
	Evaluate(pred, target, grad *tensor.Matrix) (loss float32, correct int)
}

// MSE computes Mean Squared Error loss.
//
// Loss = mean((pred - target)²), gradient 2(pred - target)/n.
//
// A row is correct when every element is within Tolerance of its target.
type MSE struct {
	Tolerance float32
}

// Evaluate implements Loss.
func (m MSE) Evaluate(pred, target, grad *tensor.Matrix) (float32, int) {
	tensor.CheckShape("mse", target, pred.Shape())
	tensor.CheckShape("mse", grad, pred.Shape())

	p, y, g := pred.Data(), target.Data(), grad.Data()
	n := float32(len(p))
	var sum float32
	for i := range p {
		d := p[i] - y[i]
		sum += d * d
		g[i] = 2 * d / n
	}

	correct := 0
	for r := 0; r < pred.Rows(); r++ {
		pr, yr := pred.RowData(r), target.RowData(r)
		ok := true
		for i := range pr {
			if math32.Abs(pr[i]-yr[i]) > m.Tolerance {
				ok = false
				break
			}
		}
		if ok {
			correct++
		}
	}
	return sum / n, correct
}
