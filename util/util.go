package util

import "golang.org/x/xerrors"

// Error kinds shared across the codec packages. Callers match them with
// xerrors.Is; the codec wraps them with context via WrapErr.
var (
	ErrInvalidArgument   = xerrors.New("invalid argument")
	ErrWrongState        = xerrors.New("wrong state")
	ErrCapacityExceeded  = xerrors.New("capacity exceeded")
	ErrOutOfCodeSpace    = xerrors.New("out of code space")
	ErrDimensionMismatch = xerrors.New("matrix dimensions are mismatched")
	ErrNotSquare         = xerrors.New("matrix is not square")
	ErrSingularMatrix    = xerrors.New("matrix is singular")
)

func WrapErr(msg string, err error) error {
	return xerrors.Errorf("%s: %w", msg, err)
}
