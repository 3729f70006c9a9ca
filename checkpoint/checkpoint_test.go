package checkpoint

import (
	"compress/gzip"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dselans/gzidx"
)

func writeGzipFixture(t *testing.T, n int) (path string, original []byte) {
	t.Helper()

	data := make([]byte, n)
	r := rand.New(rand.NewPCG(61, 62))
	for i := range data {
		data[i] = byte(r.Uint32())
	}

	path = filepath.Join(t.TempDir(), "source.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	require.NoError(t, err)
	for off := 0; off < len(data); off += 4096 {
		end := off + 4096
		if end > len(data) {
			end = len(data)
		}
		_, err := w.Write(data[off:end])
		require.NoError(t, err)
		require.NoError(t, w.Flush())
	}
	require.NoError(t, w.Close())

	return path, data
}

func TestLoadBuildsFreshIndexWhenIndexFileMissing(t *testing.T) {
	sourcePath, original := writeGzipFixture(t, 60_000)
	indexPath := filepath.Join(t.TempDir(), "source.zidx")

	res, err := Load(indexPath, sourcePath, gzidx.Gzip, 32768, 4096, true)
	require.NoError(t, err)
	require.Equal(t, indexPath, res.IndexFile)
	require.Equal(t, int64(len(original)), res.Index.UncompressedSize())

	info, err := os.Stat(indexPath)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestLoadReusesExistingIndexFileOnSecondCall(t *testing.T) {
	sourcePath, original := writeGzipFixture(t, 60_000)
	indexPath := filepath.Join(t.TempDir(), "source.zidx")

	first, err := Load(indexPath, sourcePath, gzidx.Gzip, 32768, 4096, true)
	require.NoError(t, err)
	firstCheckpointCount := len(first.Index.Checkpoints())

	second, err := Load(indexPath, sourcePath, gzidx.Gzip, 32768, 4096, true)
	require.NoError(t, err)
	require.Equal(t, firstCheckpointCount, len(second.Index.Checkpoints()))
	require.Equal(t, int64(len(original)), second.Index.UncompressedSize())
}

func TestLoadReadSecondIndexMatchesOriginalAtOffset(t *testing.T) {
	sourcePath, original := writeGzipFixture(t, 60_000)
	indexPath := filepath.Join(t.TempDir(), "source.zidx")

	_, err := Load(indexPath, sourcePath, gzidx.Gzip, 32768, 4096, true)
	require.NoError(t, err)

	res, err := Load(indexPath, sourcePath, gzidx.Gzip, 32768, 4096, true)
	require.NoError(t, err)

	require.NoError(t, res.Index.Seek(30_000, nil))
	buf := make([]byte, 1000)
	n, err := res.Index.Read(buf, nil)
	require.NoError(t, err)
	require.Equal(t, original[30_000:30_000+int64(n)], buf[:n])
}

func TestLoadErrorsWhenSourceFileMissing(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "source.zidx")
	_, err := Load(indexPath, filepath.Join(t.TempDir(), "missing.gz"), gzidx.Gzip, 32768, 4096, true)
	require.Error(t, err)
}
