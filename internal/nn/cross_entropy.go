package nn

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// minProb keeps log(p) finite when a probability underflows.
const minProb = 1e-30

// SoftmaxCrossEntropy computes cross-entropy loss over per-row softmax.
//
// Mathematical formulation, for each row r with p = softmax(logits_r):
//
//	Loss = -(1/rows) Σ_r Σ_i target_ri · log(p_i)
//	∂L/∂logits_r = (p - target_r) / rows
//
// Targets are probability rows (one-hot for classification). A row is
// correct when the argmax of the logits equals the argmax of the target.
type SoftmaxCrossEntropy struct{}

// Evaluate implements Loss.
//
// A row whose logits are all -Inf has no defined softmax; it contributes an
// infinite loss and a zero gradient.
func (SoftmaxCrossEntropy) Evaluate(pred, target, grad *tensor.Matrix) (float32, int) {
	tensor.CheckShape("cross entropy", target, pred.Shape())
	tensor.CheckShape("cross entropy", grad, pred.Shape())

	rows := pred.Rows()
	inv := 1 / float32(rows)
	var loss float32
	correct := 0
	for r := 0; r < rows; r++ {
		logits, y, g := pred.Row(r), target.Row(r), grad.Row(r)
		if cpu.ArgMax(logits) == cpu.ArgMax(y) {
			correct++
		}
		if err := cpu.SoftmaxTo(g, logits); err != nil {
			g.Zero()
			loss = math32.Inf(1)
			continue
		}
		p, t := g.Data(), y.Data()
		for i := range p {
			if t[i] != 0 {
				loss -= t[i] * math32.Log(math32.Max(p[i], minProb)) * inv
			}
			p[i] = (p[i] - t[i]) * inv
		}
	}
	return loss, correct
}
