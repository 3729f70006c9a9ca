package gzidx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckpointStoreAddRejectsNonMonotone(t *testing.T) {
	s := newCheckpointStore()
	require.NoError(t, s.add(Checkpoint{Offset: Offset{Uncomp: 100}}))
	err := s.add(Checkpoint{Offset: Offset{Uncomp: 100}})
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, InvalidOp, code)

	err = s.add(Checkpoint{Offset: Offset{Uncomp: 50}})
	require.Error(t, err)
}

func TestCheckpointStoreAddRejectsOversizeWindow(t *testing.T) {
	s := newCheckpointStore()
	err := s.add(Checkpoint{Offset: Offset{Uncomp: 1}, Window: make([]byte, maxWindowLength+1)})
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, Params, code)
}

func TestCheckpointStoreAddRejectsInconsistentBitsCount(t *testing.T) {
	s := newCheckpointStore()
	err := s.add(Checkpoint{Offset: Offset{Uncomp: 1, BitsCount: 0, Byte: 0xAB}})
	require.Error(t, err)
}

func TestLowerBoundByUncompEmptyStore(t *testing.T) {
	s := newCheckpointStore()
	_, err := s.lowerBoundByUncomp(0)
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, NotFound, code)
}

func TestLowerBoundByUncompNegativeTarget(t *testing.T) {
	s := newCheckpointStore()
	require.NoError(t, s.add(Checkpoint{Offset: Offset{Uncomp: 0}}))
	_, err := s.lowerBoundByUncomp(-1)
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, Params, code)
}

func TestLowerBoundByUncompBeforeFirst(t *testing.T) {
	s := newCheckpointStore()
	require.NoError(t, s.add(Checkpoint{Offset: Offset{Uncomp: 10}}))
	_, err := s.lowerBoundByUncomp(5)
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, NotFound, code)
}

func TestLowerBoundByUncompFindsExactAndBetween(t *testing.T) {
	s := newCheckpointStore()
	offsets := []int64{0, 100, 200, 300, 1000}
	for _, o := range offsets {
		require.NoError(t, s.add(Checkpoint{Offset: Offset{Uncomp: o}}))
	}

	cases := []struct {
		target int64
		want   int64
	}{
		{0, 0},
		{50, 0},
		{100, 100},
		{150, 100},
		{999, 300},
		{1000, 1000},
		{5000, 1000}, // last-element shortcut
	}

	for _, c := range cases {
		idx, err := s.lowerBoundByUncomp(c.target)
		require.NoErrorf(t, err, "target=%d", c.target)
		ckp, ok := s.get(idx)
		require.True(t, ok)
		require.Equalf(t, c.want, ckp.Offset.Uncomp, "target=%d", c.target)
	}
}

func TestCheckpointStoreFitTrimsCapacity(t *testing.T) {
	s := newCheckpointStore()
	s.extend(64)
	require.GreaterOrEqual(t, cap(s.items), 64)
	require.NoError(t, s.add(Checkpoint{Offset: Offset{Uncomp: 1}}))
	s.fit()
	require.Equal(t, len(s.items), cap(s.items))
}

func TestSortedRunLengthsCoversPrecedingRuns(t *testing.T) {
	s := newCheckpointStore()
	require.NoError(t, s.add(Checkpoint{Offset: Offset{Uncomp: 0}, Checksum: 1}))
	require.NoError(t, s.add(Checkpoint{Offset: Offset{Uncomp: 100}, Checksum: 2}))
	require.NoError(t, s.add(Checkpoint{Offset: Offset{Uncomp: 250}, Checksum: 3}))

	runs := s.sortedRunLengths()
	require.Len(t, runs, 3)
	// Each checkpoint's checksum covers the run preceding it: [0,0), [0,100), [100,250).
	require.Equal(t, int64(0), runs[0].length)
	require.Equal(t, uint32(1), runs[0].crc)
	require.Equal(t, int64(100), runs[1].length)
	require.Equal(t, uint32(2), runs[1].crc)
	require.Equal(t, int64(150), runs[2].length)
	require.Equal(t, uint32(3), runs[2].crc)
}
