package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mirovec/cauchyfec/codec"
	"github.com/mirovec/cauchyfec/io"
	u "github.com/mirovec/cauchyfec/util"
)

var (
	k        int
	n        int
	file_in  string
	file_out string
	batches  int

	root_cmd = &cobra.Command{
		Use:   "cfec",
		Short: "Protect packet batches with a Cauchy Reed-Solomon erasure code.",
		Long: `cfec splits a file into k source packets and emits n output packets
such that any k of them rebuild the file. The first k outputs are the
source packets themselves; the rest is parity.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			codec.Init()
		},
	}

	cmd_encode = &cobra.Command{
		Use: "encode",
		Run: func(cmd *cobra.Command, args []string) {
			data, err := io.ReadAll(file_in)
			check(err)
			source, err := splitPackets(data, k)
			check(err)

			c := codec.NewCodec()
			check(c.Reset(codec.ModeEncode, k))
			check(c.FeedAll(source))

			packets, err := c.Draw(n)
			check(err)
			for i, p := range packets {
				check(io.WriteFile(file_in+"_"+strconv.Itoa(i)+".pkt", p))
			}
		},
	}

	cmd_decode = &cobra.Command{
		Use: "decode",
		Run: func(cmd *cobra.Command, args []string) {
			paths := viper.GetStringSlice("packets")

			c := codec.NewCodec()
			check(c.Reset(codec.ModeDecode, 0))

			expect := 0
			for _, path := range paths {
				p, err := io.ReadAll(path)
				check(err)
				if expect == 0 && len(p) > 2 {
					expect = int(p[len(p)-1]) + 1
				}
				check(c.Feed(p))
			}

			recovered, err := c.Draw(expect)
			check(err)
			if len(recovered) < expect {
				check(u.WrapErr(
					fmt.Sprintf("recovered %d of %d packets, need more input", len(recovered), expect),
					u.ErrInvalidArgument))
			}

			var buf bytes.Buffer
			for _, p := range recovered {
				buf.Write(p)
			}
			check(io.WriteFile(file_out, buf.Bytes()))
		},
	}

	cmd_roundtrip = &cobra.Command{
		Use: "roundtrip",
		Run: func(cmd *cobra.Command, args []string) {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			for i := 0; i < batches; i++ {
				check(runRoundtrip(rng))
				fmt.Println("OK")
			}
		},
	}
)

func Execute() error {
	iit()
	return root_cmd.Execute()
}

func iit() {
	root_cmd.AddCommand(cmd_encode, cmd_decode, cmd_roundtrip)

	// Cmd Encode
	cmd_encode.Flags().IntVarP(&k, "k", "", 4, "Number of source packets per batch")
	cmd_encode.Flags().IntVarP(&n, "n", "", 6, "Total number of output packets to emit")
	cmd_encode.Flags().StringVarP(&file_in, "input", "i", "", "Input file")
	cmd_encode.MarkFlagRequired("input")

	// Cmd Decode
	cmd_decode.Flags().StringVarP(&file_out, "output", "o", "", "Output file")
	cmd_decode.Flags().StringSlice("packets", []string{}, "List of packet file names, any k of the emitted n")
	viper.BindPFlag("packets", cmd_decode.Flags().Lookup("packets"))
	cmd_decode.MarkFlagRequired("output")
	cmd_decode.MarkFlagRequired("packets")

	// Cmd Roundtrip
	cmd_roundtrip.Flags().IntVarP(&batches, "batches", "", 1000, "Number of random batches to run")
}

// splitPackets cuts data into exactly k non-empty pieces.
func splitPackets(data []byte, k int) ([][]byte, error) {
	if k < 1 || k > 256 || len(data) < k {
		return nil, u.WrapErr("input must hold at least one byte per packet", u.ErrInvalidArgument)
	}
	base := len(data) / k
	rem := len(data) % k
	largest := base
	if rem > 0 {
		largest++
	}
	if largest > 0xFFFF {
		return nil, u.WrapErr("packets would exceed 65535 bytes, raise k", u.ErrInvalidArgument)
	}

	source := make([][]byte, 0, k)
	off := 0
	for i := 0; i < k; i++ {
		size := base
		if i < rem {
			size++
		}
		source = append(source, data[off:off+size])
		off += size
	}
	return source, nil
}

// runRoundtrip encodes one random batch, feeds a random subset of the output
// back through a decoder and verifies the sources come out intact.
func runRoundtrip(rng *rand.Rand) error {
	source_packets := rng.Intn(256) + 1
	total_packets := rng.Intn(256) + 1
	if total_packets < source_packets {
		total_packets = source_packets
	}
	fmt.Printf("Source packets: %d Total: %d ", source_packets, total_packets)

	fec := codec.NewCodec()
	if err := fec.Reset(codec.ModeEncode, source_packets); err != nil {
		return err
	}

	source := make([][]byte, source_packets)
	for i := range source {
		source[i] = make([]byte, rng.Intn(1024)+1)
		rng.Read(source[i])
		if err := fec.Feed(source[i]); err != nil {
			return err
		}
	}

	output, err := fec.Draw(total_packets)
	if err != nil {
		return err
	}

	// Feed a random subset of size k to the decoder.
	if err := fec.Reset(codec.ModeDecode, 0); err != nil {
		return err
	}
	selector := rng.Perm(total_packets)[:source_packets]
	for _, ix := range selector {
		if err := fec.Feed(output[ix]); err != nil {
			return err
		}
	}

	recovered, err := fec.Draw(source_packets)
	if err != nil {
		return err
	}
	if len(recovered) != source_packets {
		return u.WrapErr("short decode", u.ErrInvalidArgument)
	}
	for i := range source {
		if !bytes.Equal(source[i], recovered[i]) {
			return u.WrapErr("packet "+strconv.Itoa(i)+" mismatch", u.ErrInvalidArgument)
		}
	}
	return nil
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
