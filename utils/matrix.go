package utils

// Dense matrices over the galois field 2^8, specialised for erasure coding:
// element arithmetic goes through the util field ops and inversion is plain
// Gauss-Jordan, which is exact in a finite field.

import (
	"math/bits"

	u "github.com/mirovec/cauchyfec/util"
)

// Matrix stores its elements row-major in one backing array. Each row sits
// at a power of two stride so element offsets need only a shift and an or.
type Matrix struct {
	rows  int
	cols  int
	shift uint
	data  []byte
}

func NewMatrix(rows, cols int) *Matrix {
	m := &Matrix{rows: rows, cols: cols}
	if cols > 0 {
		m.shift = uint(bits.Len(uint(cols - 1)))
		m.data = make([]byte, rows<<m.shift)
	}
	return m
}

func (m *Matrix) Rows() int {
	return m.rows
}

func (m *Matrix) Columns() int {
	return m.cols
}

func (m *Matrix) At(row, col int) byte {
	return m.data[(row<<m.shift)|col]
}

func (m *Matrix) Set(row, col int, v byte) {
	m.data[(row<<m.shift)|col] = v
}

// Row returns a 1 x columns view aliasing the receiver's storage. Writes
// through the view land in the parent, and the view must not be used after
// the parent is gone; it owns nothing.
func (m *Matrix) Row(row int) *Matrix {
	return &Matrix{
		rows:  1,
		cols:  m.cols,
		shift: m.shift,
		data:  m.data[row<<m.shift : (row+1)<<m.shift],
	}
}

func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

func (m *Matrix) SetAll(v byte) {
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			m.Set(row, col, v)
		}
	}
}

// Identity puts v on the diagonal and zeroes everywhere else.
func (m *Matrix) Identity(v byte) {
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			if row == col {
				m.Set(row, col, v)
			} else {
				m.Set(row, col, 0)
			}
		}
	}
}

func (m *Matrix) SwapRows(a, b int) {
	for col := 0; col < m.cols; col++ {
		tmp := m.At(a, col)
		m.Set(a, col, m.At(b, col))
		m.Set(b, col, tmp)
	}
}

func (m *Matrix) Equal(b *Matrix) bool {
	if m.rows != b.rows || m.cols != b.cols {
		return false
	}
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			if m.At(row, col) != b.At(row, col) {
				return false
			}
		}
	}
	return true
}

func (m *Matrix) Add(b *Matrix) (*Matrix, error) {
	target := NewMatrix(m.rows, m.cols)
	if err := m.addWork(b, target, false); err != nil {
		return nil, err
	}
	return target, nil
}

func (m *Matrix) Sub(b *Matrix) (*Matrix, error) {
	target := NewMatrix(m.rows, m.cols)
	if err := m.addWork(b, target, true); err != nil {
		return nil, err
	}
	return target, nil
}

func (m *Matrix) addWork(b, target *Matrix, sub bool) error {
	if m.rows != b.rows || m.cols != b.cols {
		return u.WrapErr("add", u.ErrDimensionMismatch)
	}
	if m.rows != target.rows || m.cols != target.cols {
		return u.WrapErr("add target", u.ErrDimensionMismatch)
	}
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			if sub {
				target.Set(row, col, u.Sub(m.At(row, col), b.At(row, col)))
			} else {
				target.Set(row, col, u.Add(m.At(row, col), b.At(row, col)))
			}
		}
	}
	return nil
}

func (m *Matrix) Mul(b *Matrix) (*Matrix, error) {
	target := NewMatrix(m.rows, b.cols)
	if err := m.MulInto(b, target); err != nil {
		return nil, err
	}
	return target, nil
}

// MulInto writes m*b into target. The product is accumulated in a scratch
// buffer and moved over at the end, so target may alias either operand.
func (m *Matrix) MulInto(b, target *Matrix) error {
	if m.cols != b.rows {
		return u.WrapErr("mul", u.ErrDimensionMismatch)
	}
	if target.rows != m.rows || target.cols != b.cols {
		return u.WrapErr("mul target", u.ErrDimensionMismatch)
	}

	scratch := make([]byte, m.rows*b.cols)
	for row := 0; row < m.rows; row++ {
		for col := 0; col < b.cols; col++ {
			var acc byte
			for i := 0; i < m.cols; i++ {
				acc = u.Add(acc, u.Mul(m.At(row, i), b.At(i, col)))
			}
			scratch[row*b.cols+col] = acc
		}
	}

	for row := 0; row < m.rows; row++ {
		for col := 0; col < b.cols; col++ {
			target.Set(row, col, scratch[row*b.cols+col])
		}
	}
	return nil
}

// Invert replaces m with its inverse via Gauss-Jordan elimination, applying
// every row operation to an identity side matrix. Field arithmetic is exact,
// so any non-zero pivot is acceptable; there is no partial pivoting.
func (m *Matrix) Invert() error {
	if m.rows != m.cols {
		return u.WrapErr("invert", u.ErrNotSquare)
	}

	inverse := NewMatrix(m.rows, m.cols)
	inverse.Identity(1)

	for p := 0; p < m.cols; p++ {
		pivot := m.At(p, p)
		if pivot == 0 {
			for row := p + 1; row < m.rows; row++ {
				if m.At(row, p) != 0 {
					m.SwapRows(row, p)
					inverse.SwapRows(row, p)
					pivot = m.At(p, p)
					break
				}
			}
			if pivot == 0 {
				return u.WrapErr("invert", u.ErrSingularMatrix)
			}
		}

		// Normalise the pivot row. Columns left of the pivot are already
		// zero in m, only the side matrix needs the full sweep.
		for col := p; col < m.cols; col++ {
			m.Set(p, col, u.Div(m.At(p, col), pivot))
		}
		for col := 0; col < m.cols; col++ {
			inverse.Set(p, col, u.Div(inverse.At(p, col), pivot))
		}

		// Eliminate the pivot column from every other row.
		for row := 0; row < m.rows; row++ {
			if row == p {
				continue
			}
			factor := m.At(row, p)
			if factor == 0 {
				continue
			}
			for col := p; col < m.cols; col++ {
				m.Set(row, col, u.Sub(m.At(row, col), u.Mul(factor, m.At(p, col))))
			}
			for col := 0; col < m.cols; col++ {
				inverse.Set(row, col, u.Sub(inverse.At(row, col), u.Mul(factor, inverse.At(p, col))))
			}
		}
	}

	// m is identity now; take over the inverse's storage.
	m.data = inverse.data
	return nil
}
