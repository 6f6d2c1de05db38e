package archive

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFileGZRoundTrip(t *testing.T) {
	src := []byte(`{"event_id":"e1"}` + "\n" + `{"event_id":"e2"}` + "\n")
	path := filepath.Join(t.TempDir(), "sess.log")
	require.NoError(t, os.WriteFile(path, src, 0o644))

	data, err := EncodeFileGZ(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	out, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestEncodeFileGZOwnedSlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n"), 0o644))

	first, err := EncodeFileGZ(path)
	require.NoError(t, err)
	snapshot := make([]byte, len(first))
	copy(snapshot, first)

	// pool 버퍼 재사용이 앞선 결과를 훼손하지 않는다
	path2 := filepath.Join(t.TempDir(), "b.log")
	require.NoError(t, os.WriteFile(path2, []byte("{\"b\":2}\n"), 0o644))
	_, err = EncodeFileGZ(path2)
	require.NoError(t, err)

	assert.Equal(t, snapshot, first)
}

func TestEncodeFileGZMissingFile(t *testing.T) {
	_, err := EncodeFileGZ(filepath.Join(t.TempDir(), "absent.log"))
	assert.Error(t, err)
}
