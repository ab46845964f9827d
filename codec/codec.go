package codec

// A systematic Cauchy Reed-Solomon erasure code over GF(2^8) for batches of
// up to 256 variable length packets. Every output packet carries a two byte
// trailer [generator row index, k-1]; any k distinct outputs recover the
// batch.

import (
	u "github.com/mirovec/cauchyfec/util"
)

// Mode selects which half of the codec a handle drives.
type Mode int

const (
	ModeIdle Mode = iota
	ModeEncode
	ModeDecode
)

// Init precomputes the field tables. Calling it during startup is optional
// but keeps the cost out of the first codec operation.
func Init() {
	u.Init()
}

// Codec is a single handle usable as encoder or decoder. Reset picks the
// mode, Feed and Draw dispatch to the active half; operations in the wrong
// mode fail with ErrWrongState. One handle serves one goroutine at a time.
type Codec struct {
	mode Mode
	enc  Encoder
	dec  Decoder
}

func NewCodec() *Codec {
	return &Codec{}
}

// Reset clears the handle and switches it into mode. k is the batch size
// and applies only to ModeEncode; the decoder learns k from the first
// packet it sees.
func (c *Codec) Reset(mode Mode, k int) error {
	switch mode {
	case ModeEncode:
		if err := c.enc.Reset(k); err != nil {
			return err
		}
	case ModeDecode:
		c.dec.Reset()
	case ModeIdle:
	default:
		return u.WrapErr("reset codec", u.ErrInvalidArgument)
	}
	c.mode = mode
	return nil
}

func (c *Codec) Feed(packet []byte) error {
	switch c.mode {
	case ModeEncode:
		return c.enc.Feed(packet)
	case ModeDecode:
		c.dec.Feed(packet)
		return nil
	}
	return u.WrapErr("feed", u.ErrWrongState)
}

func (c *Codec) FeedAll(packets [][]byte) error {
	switch c.mode {
	case ModeEncode:
		return c.enc.FeedAll(packets)
	case ModeDecode:
		c.dec.FeedAll(packets)
		return nil
	}
	return u.WrapErr("feed", u.ErrWrongState)
}

// Draw produces up to n packets: encoded output in ModeEncode, recovered
// source packets in ModeDecode. Fewer than n is not an error, it means the
// codec needs more input.
func (c *Codec) Draw(n int) ([][]byte, error) {
	switch c.mode {
	case ModeEncode:
		return c.enc.Draw(n)
	case ModeDecode:
		return c.dec.Draw(n), nil
	}
	return nil, u.WrapErr("draw", u.ErrWrongState)
}

// DrawOne pulls a single packet; ok reports whether one was produced.
func (c *Codec) DrawOne() (packet []byte, ok bool, err error) {
	packets, err := c.Draw(1)
	if err != nil {
		return nil, false, err
	}
	if len(packets) == 0 {
		return nil, false, nil
	}
	return packets[0], true, nil
}

// Stuck reports whether a decoding handle latched an unrecoverable state.
func (c *Codec) Stuck() bool {
	return c.mode == ModeDecode && c.dec.Stuck()
}
