package httpstream

import (
	"bytes"
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dselans/gzidx"
	"github.com/stretchr/testify/require"
)

func serveBlob(data []byte) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "blob", time.Time{}, bytes.NewReader(data))
	})
	return httptest.NewServer(mux)
}

func TestStreamReadMatchesSource(t *testing.T) {
	data := make([]byte, 200_000)
	src := rand.New(rand.NewPCG(1, 1))
	for i := range data {
		data[i] = byte(src.Uint32())
	}

	srv := serveBlob(data)
	defer srv.Close()

	s := New(context.Background(), srv.URL+"/blob", srv.Client().Transport)

	r := rand.New(rand.NewPCG(2, 2))
	for i := 0; i < 20; i++ {
		start := int64(r.IntN(len(data)))
		length := 1 + r.IntN(min(5000, len(data)-int(start)))

		_, err := s.Seek(start, gzidx.SeekSet)
		require.NoError(t, err)

		out := make([]byte, length)
		n, err := s.Read(out)
		require.NoError(t, err)
		require.Equal(t, data[start:start+int64(n)], out[:n])
	}
}

func TestStreamLengthMatchesSourceSize(t *testing.T) {
	data := make([]byte, 12_345)

	srv := serveBlob(data)
	defer srv.Close()

	s := New(context.Background(), srv.URL+"/blob", srv.Client().Transport)
	length, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), length)
}

func TestStreamSeekEndUsesProbeLength(t *testing.T) {
	data := make([]byte, 1000)
	srv := serveBlob(data)
	defer srv.Close()

	s := New(context.Background(), srv.URL+"/blob", srv.Client().Transport)
	pos, err := s.Seek(-10, gzidx.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(990), pos)
}
