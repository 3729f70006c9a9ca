package gzidx

import (
	"hash/crc32"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksumLedgerMatchesStdlib(t *testing.T) {
	data := make([]byte, 10_000)
	r := rand.New(rand.NewPCG(1, 2))
	for i := range data {
		data[i] = byte(r.Uint32())
	}

	var ledger checksumLedger
	ledger.reset()
	ledger.update(data[:4096])
	ledger.update(data[4096:])

	require.Equal(t, crc32.ChecksumIEEE(data), ledger.sum())
}

func TestCombineCRC32MatchesWholeStreamChecksum(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 9))
	data := make([]byte, 50_000)
	for i := range data {
		data[i] = byte(r.Uint32())
	}

	splits := []int{0, 1, 17_000, 25_000, 49_999, len(data)}
	for _, split := range splits {
		a, b := data[:split], data[split:]
		want := crc32.ChecksumIEEE(data)
		got := combineCRC32(crc32.ChecksumIEEE(a), crc32.ChecksumIEEE(b), int64(len(b)))
		require.Equalf(t, want, got, "split at %d", split)
	}
}

func TestCombineCRC32ZeroLengthTail(t *testing.T) {
	a := crc32.ChecksumIEEE([]byte("hello world"))
	require.Equal(t, a, combineCRC32(a, 0, 0))
}

func TestCombineChainMatchesSequentialCombine(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	runs := make([][]byte, 5)
	pairs := make([]checksumRun, 5)
	var all []byte
	for i := range runs {
		n := 100 + r.IntN(500)
		runs[i] = make([]byte, n)
		for j := range runs[i] {
			runs[i][j] = byte(r.Uint32())
		}
		all = append(all, runs[i]...)
		pairs[i] = checksumRun{crc: crc32.ChecksumIEEE(runs[i]), length: int64(n)}
	}

	require.Equal(t, crc32.ChecksumIEEE(all), combineChain(pairs))
}
