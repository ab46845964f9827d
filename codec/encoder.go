package codec

import (
	u "github.com/mirovec/cauchyfec/util"
	"github.com/mirovec/cauchyfec/utils"
)

// Encoder turns up to k source packets into a stream of output packets. The
// first k outputs are the sources themselves with a two byte trailer, every
// later one is a parity row of the generator matrix. Any k distinct outputs
// suffice to rebuild the batch.
type Encoder struct {
	k              int
	source         [][]byte
	longest        int
	reading_source bool
	row_ix         int
	message        *utils.Matrix
}

func NewEncoder(k int) (*Encoder, error) {
	e := &Encoder{}
	if err := e.Reset(k); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset clears the encoder for a new batch of k source packets.
func (e *Encoder) Reset(k int) error {
	if k < 1 || k > 256 {
		return u.WrapErr("reset encoder", u.ErrInvalidArgument)
	}
	e.k = k
	e.source = e.source[:0]
	e.longest = 0
	e.reading_source = true
	e.row_ix = 0
	e.message = nil
	return nil
}

// Feed appends one source packet. A failed feed leaves the encoder unchanged.
func (e *Encoder) Feed(packet []byte) error {
	if len(packet) == 0 || len(packet) > 0xFFFF {
		return u.WrapErr("bad source packet size", u.ErrInvalidArgument)
	}
	if !e.reading_source {
		return u.WrapErr("parity already drawn, reset required", u.ErrWrongState)
	}
	if len(e.source) >= e.k {
		return u.WrapErr("encoder is full", u.ErrCapacityExceeded)
	}

	if len(packet) > e.longest {
		e.longest = len(packet)
	}
	cp := make([]byte, len(packet))
	copy(cp, packet)
	e.source = append(e.source, cp)
	return nil
}

func (e *Encoder) FeedAll(packets [][]byte) error {
	for _, p := range packets {
		if err := e.Feed(p); err != nil {
			return err
		}
	}
	return nil
}

// Draw produces up to n output packets. It returns fewer when the systematic
// phase runs out of fed sources; that is not an error, the caller feeds more
// and draws again. Drawing past generator row 255 returns ErrOutOfCodeSpace
// together with the packets that still fit.
func (e *Encoder) Draw(n int) ([][]byte, error) {
	if n < 1 {
		return nil, nil
	}
	out := make([][]byte, 0, n)

	// Systematic part: sources go out as they are.
	for len(out) < n && e.row_ix < e.k {
		if e.row_ix >= len(e.source) {
			return out, nil
		}
		src := e.source[e.row_ix]
		packet := make([]byte, 0, len(src)+2)
		packet = append(packet, src...)
		packet = append(packet, byte(e.row_ix), byte(e.k-1))
		out = append(out, packet)
		e.row_ix++
	}

	if len(out) == n {
		return out, nil
	}

	// Parity from here on. Building the message matrix freezes the sources;
	// it is delayed until now so callers that only ever draw the systematic
	// packets never pay for it.
	if e.reading_source {
		e.buildMessageMatrix()
		e.reading_source = false
	}

	to_generate := n - len(out)
	overflow := false
	if e.row_ix+to_generate-1 > maxGeneratorRow {
		to_generate = maxGeneratorRow - e.row_ix + 1
		overflow = true
	}
	if to_generate <= 0 {
		return out, u.WrapErr("draw", u.ErrOutOfCodeSpace)
	}

	first_row := e.row_ix
	gen := utils.NewMatrix(to_generate, e.k)
	for i := 0; i < to_generate; i++ {
		generatorRow(gen.Row(i), e.row_ix, e.k)
		e.row_ix++
	}

	encoded, err := gen.Mul(e.message)
	if err != nil {
		return out, err
	}

	for i := 0; i < encoded.Rows(); i++ {
		packet := make([]byte, encoded.Columns()+2)
		for j := 0; j < encoded.Columns(); j++ {
			packet[j] = encoded.At(i, j)
		}
		packet[encoded.Columns()] = byte(first_row + i)
		packet[encoded.Columns()+1] = byte(e.k - 1)
		out = append(out, packet)
	}

	if overflow {
		return out, u.WrapErr("draw", u.ErrOutOfCodeSpace)
	}
	return out, nil
}

// The message matrix is k x longest+2: each source packet left aligned and
// zero padded, with its original length big-endian in the last two columns.
func (e *Encoder) buildMessageMatrix() {
	e.message = utils.NewMatrix(e.k, e.longest+2)
	for ix, src := range e.source {
		for i, b := range src {
			e.message.Set(ix, i, b)
		}
		e.message.Set(ix, e.longest, byte(len(src)>>8))
		e.message.Set(ix, e.longest+1, byte(len(src)&0xFF))
	}
}
