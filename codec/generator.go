package codec

import (
	u "github.com/mirovec/cauchyfec/util"
	"github.com/mirovec/cauchyfec/utils"
)

// Highest usable generator row index. The field has 256 elements, so the
// code cannot produce more than 256 linearly independent rows per batch.
const maxGeneratorRow = 255

// generatorRow writes row `row` of the conceptual generator matrix with k
// columns into target, a 1 x k matrix (typically a row view).
func generatorRow(target *utils.Matrix, row, k int) {
	// Identity part: the first k outputs copy the source packets.
	if row < k {
		for col := 0; col < k; col++ {
			if row == col {
				target.Set(0, col, 1)
			} else {
				target.Set(0, col, 0)
			}
		}
		return
	}

	// Row of ones: a single missing packet decodes by plain XOR.
	if row == k {
		for col := 0; col < k; col++ {
			target.Set(0, col, 1)
		}
		return
	}

	// Cauchy part. x and y come from disjoint ranges, so x+y is never zero
	// and every square submatrix is invertible. The element 255-k is not an
	// x value, its slot went to the row of ones.
	for col := 0; col < k; col++ {
		x := byte(255 - row)
		y := byte(255 - k + col + 1)
		target.Set(0, col, u.Div(1, u.Add(x, y)))
	}
}
