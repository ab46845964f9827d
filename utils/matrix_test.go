package utils

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	u "github.com/mirovec/cauchyfec/util"
)

func TestStrideLayout(t *testing.T) {
	m := NewMatrix(3, 5)
	require.Equal(t, 3, m.Rows())
	require.Equal(t, 5, m.Columns())
	require.Equal(t, uint(3), m.shift) // stride 8 for 5 columns
	require.Len(t, m.data, 3*8)

	m1 := NewMatrix(2, 1)
	require.Equal(t, uint(0), m1.shift)
	require.Len(t, m1.data, 2)

	m4 := NewMatrix(2, 4)
	require.Equal(t, uint(2), m4.shift) // 4 is already a power of two
}

func TestAtSet(t *testing.T) {
	m := NewMatrix(4, 3)
	m.Set(2, 1, 0xAB)
	require.Equal(t, byte(0xAB), m.At(2, 1))
	require.Equal(t, byte(0), m.At(1, 2))
}

func TestRowViewAliasesParent(t *testing.T) {
	m := NewMatrix(3, 3)
	row := m.Row(1)
	require.Equal(t, 1, row.Rows())
	require.Equal(t, 3, row.Columns())

	row.Set(0, 2, 0x7F)
	require.Equal(t, byte(0x7F), m.At(1, 2))

	m.Set(1, 0, 0x11)
	require.Equal(t, byte(0x11), row.At(0, 0))
}

func TestIdentityAndSetAll(t *testing.T) {
	m := NewMatrix(3, 3)
	m.SetAll(0x55)
	require.Equal(t, byte(0x55), m.At(2, 0))

	m.Identity(1)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := byte(0)
			if i == j {
				want = 1
			}
			require.Equal(t, want, m.At(i, j))
		}
	}
}

func TestSwapRowsAndEqual(t *testing.T) {
	m := NewMatrix(2, 2)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.Set(1, 0, 3)
	m.Set(1, 1, 4)

	c := m.Clone()
	require.True(t, m.Equal(c))

	m.SwapRows(0, 1)
	require.False(t, m.Equal(c))
	require.Equal(t, byte(3), m.At(0, 0))
	require.Equal(t, byte(2), m.At(1, 1))

	require.False(t, m.Equal(NewMatrix(2, 3)))
}

func TestAddSub(t *testing.T) {
	a := NewMatrix(2, 2)
	b := NewMatrix(2, 2)
	a.SetAll(0x0F)
	b.Set(0, 0, 0xF0)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, byte(0xFF), sum.At(0, 0))
	require.Equal(t, byte(0x0F), sum.At(1, 1))

	diff, err := sum.Sub(b)
	require.NoError(t, err)
	require.True(t, diff.Equal(a))

	_, err = a.Add(NewMatrix(2, 3))
	require.ErrorIs(t, err, u.ErrDimensionMismatch)
	_, err = a.Sub(NewMatrix(3, 2))
	require.ErrorIs(t, err, u.ErrDimensionMismatch)
}

func TestMul(t *testing.T) {
	id := NewMatrix(3, 3)
	id.Identity(1)

	m := NewMatrix(3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, byte(rand.Intn(256)))
		}
	}

	prod, err := id.Mul(m)
	require.NoError(t, err)
	require.True(t, prod.Equal(m))

	_, err = m.Mul(NewMatrix(2, 3))
	require.ErrorIs(t, err, u.ErrDimensionMismatch)

	err = m.MulInto(id, NewMatrix(3, 4))
	require.ErrorIs(t, err, u.ErrDimensionMismatch)
}

func TestMulIntoAliasing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewMatrix(4, 4)
	b := NewMatrix(4, 4)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a.Set(i, j, byte(rng.Intn(256)))
			b.Set(i, j, byte(rng.Intn(256)))
		}
	}

	want, err := a.Mul(b)
	require.NoError(t, err)

	// Multiply in place into the left operand.
	require.NoError(t, a.MulInto(b, a))
	require.True(t, a.Equal(want))
}

func TestInvertIdentityLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	id := NewMatrix(6, 6)
	id.Identity(1)

	tried := 0
	for trial := 0; trial < 50; trial++ {
		m := NewMatrix(6, 6)
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				m.Set(i, j, byte(rng.Intn(256)))
			}
		}
		orig := m.Clone()

		if err := m.Invert(); err != nil {
			require.ErrorIs(t, err, u.ErrSingularMatrix)
			continue
		}
		tried++

		prod, err := m.Mul(orig)
		require.NoError(t, err)
		require.True(t, prod.Equal(id))
	}
	require.Greater(t, tried, 0)
}

func TestInvertPivotSwap(t *testing.T) {
	// Zero on the first diagonal element forces a row swap.
	m := NewMatrix(2, 2)
	m.Set(0, 0, 0)
	m.Set(0, 1, 1)
	m.Set(1, 0, 1)
	m.Set(1, 1, 0)
	orig := m.Clone()

	require.NoError(t, m.Invert())
	prod, err := m.Mul(orig)
	require.NoError(t, err)

	id := NewMatrix(2, 2)
	id.Identity(1)
	require.True(t, prod.Equal(id))
}

func TestInvertErrors(t *testing.T) {
	err := NewMatrix(2, 3).Invert()
	require.ErrorIs(t, err, u.ErrNotSquare)

	singular := NewMatrix(3, 3)
	err = singular.Invert()
	require.ErrorIs(t, err, u.ErrSingularMatrix)

	// Two identical rows are just as singular.
	m := NewMatrix(2, 2)
	m.Set(0, 0, 5)
	m.Set(0, 1, 9)
	m.Set(1, 0, 5)
	m.Set(1, 1, 9)
	require.ErrorIs(t, m.Invert(), u.ErrSingularMatrix)
}
