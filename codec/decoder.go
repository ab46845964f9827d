package codec

import (
	u "github.com/mirovec/cauchyfec/util"
	"github.com/mirovec/cauchyfec/utils"
)

// Decoder rebuilds a batch from whatever packets arrive, in any order and
// with duplicates. Invalid input is dropped silently rather than reported:
// a lossy channel legitimately delivers garbage, and the decoder's contract
// is to tolerate it without disturbing reconstruction state.
type Decoder struct {
	k             int
	waiting_first bool
	stuck         bool
	received      int
	returned      int
	slots         [][]byte
	parity        [][]byte
}

func NewDecoder() *Decoder {
	d := &Decoder{}
	d.Reset()
	return d
}

// Reset clears the decoder; the next packet fed fixes the batch size.
func (d *Decoder) Reset() {
	d.k = 0
	d.waiting_first = true
	d.stuck = false
	d.received = 0
	d.returned = 0
	d.slots = nil
	d.parity = nil
}

// Stuck reports whether the decoder latched an unrecoverable inconsistency.
// Once stuck, all feeds and draws are no-ops until Reset.
func (d *Decoder) Stuck() bool {
	return d.stuck
}

func (d *Decoder) Feed(packet []byte) {
	if d.stuck {
		return
	}
	// Trailer plus at least one payload byte.
	if len(packet) <= 2 {
		return
	}

	if d.waiting_first {
		d.waiting_first = false
		d.k = int(packet[len(packet)-1]) + 1
		d.slots = make([][]byte, d.k)
	} else if int(packet[len(packet)-1])+1 != d.k {
		// Different batch.
		return
	}

	packet_ix := int(packet[len(packet)-2])
	if packet_ix < d.k {
		// Systematic packet, first copy wins.
		if d.slots[packet_ix] == nil {
			payload := make([]byte, len(packet)-2)
			copy(payload, packet)
			d.slots[packet_ix] = payload
			d.received++
		}
	} else {
		cp := make([]byte, len(packet))
		copy(cp, packet)
		d.parity = append(d.parity, cp)
	}
}

func (d *Decoder) FeedAll(packets [][]byte) {
	for _, p := range packets {
		d.Feed(p)
	}
}

// Draw returns up to n recovered source packets in index order. A short
// return means the decoder needs more input; the caller either accepts the
// loss or feeds more packets and draws again.
func (d *Decoder) Draw(n int) [][]byte {
	if d.stuck || n < 1 {
		return nil
	}
	out := make([][]byte, 0, n)
	for len(out) < n {
		if d.waiting_first || d.returned >= d.k {
			break
		}
		if d.slots[d.returned] == nil && !d.run() {
			break
		}
		packet := make([]byte, len(d.slots[d.returned]))
		copy(packet, d.slots[d.returned])
		out = append(out, packet)
		d.returned++
	}
	return out
}

// run fills every empty slot from the buffered parity packets, or reports
// that it cannot yet.
func (d *Decoder) run() bool {
	missing := d.k - d.received
	if missing == 0 {
		return true
	}
	if missing > len(d.parity) {
		return false
	}

	// Pick parity packets with pairwise distinct generator rows, in arrival
	// order. Duplicates stay in the tail and are simply never chosen.
	var seen [4]uint64
	chosen := make([][]byte, 0, missing)
	chosen_rows := make([]int, 0, missing)
	for _, parity := range d.parity {
		row := parity[len(parity)-2]
		mask := uint64(1) << (row & 0x3F)
		if seen[row>>6]&mask != 0 {
			continue
		}
		seen[row>>6] |= mask
		chosen = append(chosen, parity)
		chosen_rows = append(chosen_rows, int(row))
		if len(chosen) == missing {
			break
		}
	}
	if len(chosen) < missing {
		return false
	}

	// All parity rows of one batch have the same padded length; a mismatch
	// means the stream is malformed beyond repair.
	parity_len := len(chosen[0])
	for _, p := range chosen[1:] {
		if len(p) != parity_len {
			d.stuck = true
			return false
		}
	}
	parity_len -= 2
	if parity_len < 2 {
		// Too short to even carry the length suffix.
		d.stuck = true
		return false
	}

	// Generator rows of the chosen parity packets.
	gen := utils.NewMatrix(missing, d.k)
	for i, row := range chosen_rows {
		generatorRow(gen.Row(i), row, d.k)
	}

	// Their payloads form the right hand side.
	rhs := utils.NewMatrix(missing, parity_len)
	for i, p := range chosen {
		for j := 0; j < parity_len; j++ {
			rhs.Set(i, j, p[j])
		}
	}

	// Subtract the contribution of every known source packet from the right
	// hand side and collect the generator columns of the unknown ones into a
	// square system.
	sub := utils.NewMatrix(missing, missing)
	sub_col := 0
	for s := 0; s < d.k; s++ {
		known := d.slots[s]
		if known == nil {
			for i := 0; i < missing; i++ {
				sub.Set(i, sub_col, gen.At(i, s))
			}
			sub_col++
			continue
		}
		for i := 0; i < missing; i++ {
			factor := gen.At(i, s)
			if factor == 0 {
				continue
			}
			for j := 0; j < parity_len; j++ {
				// The virtual message row of a known packet: its bytes, zero
				// padding, then the original length big-endian.
				var c byte
				switch {
				case j < len(known):
					c = known[j]
				case j == parity_len-2:
					c = byte(len(known) >> 8)
				case j == parity_len-1:
					c = byte(len(known) & 0xFF)
				}
				rhs.Set(i, j, u.Sub(rhs.At(i, j), u.Mul(factor, c)))
			}
		}
	}

	// A singular system cannot come out of the Cauchy construction; it
	// signals corrupted input.
	if err := sub.Invert(); err != nil {
		d.stuck = true
		return false
	}

	decoded, err := sub.Mul(rhs)
	if err != nil {
		d.stuck = true
		return false
	}

	decoded_ix := 0
	for s := 0; s < d.k; s++ {
		if d.slots[s] != nil {
			continue
		}
		size := int(decoded.At(decoded_ix, parity_len-2))<<8 |
			int(decoded.At(decoded_ix, parity_len-1))
		if size > parity_len-2 {
			d.stuck = true
			return false
		}
		packet := make([]byte, size)
		for j := 0; j < size; j++ {
			packet[j] = decoded.At(decoded_ix, j)
		}
		d.slots[s] = packet
		d.received++
		decoded_ix++
	}

	return true
}
