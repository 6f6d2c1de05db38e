package archive

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"audit-collect/internal/config"
	"audit-collect/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		PendingDir:          t.TempDir(),
		PendingMaxAge:       24 * time.Hour,
		PendingMaxSizeBytes: 1 << 20,
		ArchivePrefix:       "audit/raw",
	}
}

func listDataFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var out []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" { // .meta.json 제외
			out = append(out, e.Name())
		}
	}
	return out
}

func TestPendingSaveWritesDataAndMeta(t *testing.T) {
	cfg := pendingConfig(t)
	m := metrics.New()
	q := NewPendingQueue(cfg, m, nil)

	payload := []byte("gzip-bytes")
	require.NoError(t, q.Save(payload, "sess"))

	data := listDataFiles(t, cfg.PendingDir)
	require.Len(t, data, 1)

	// meta 파일에는 세션 이름이 기록된다
	meta, err := os.ReadFile(filepath.Join(cfg.PendingDir, data[0]+".meta.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"session":"sess"}`, string(meta))

	assert.Equal(t, int64(1), atomic.LoadInt64(&m.PendingFilesCurrent))
	assert.Equal(t, int64(len(payload)), atomic.LoadInt64(&m.PendingSizeBytes))
}

func TestPendingSaveIgnoresEmptyInput(t *testing.T) {
	cfg := pendingConfig(t)
	q := NewPendingQueue(cfg, metrics.New(), nil)

	require.NoError(t, q.Save(nil, "sess"))
	require.NoError(t, q.Save([]byte("x"), ""))

	assert.Empty(t, listDataFiles(t, cfg.PendingDir))
}

func TestNewPendingQueueCleansMetaOrphans(t *testing.T) {
	cfg := pendingConfig(t)

	// data 없는 meta orphan + 정상 data/meta 쌍
	orphan := filepath.Join(cfg.PendingDir, "1_gone_000001.log.gz.meta.json")
	require.NoError(t, os.WriteFile(orphan, []byte(`{"session":"gone"}`), 0o600))

	dataPath := filepath.Join(cfg.PendingDir, "2_kept_000002.log.gz")
	require.NoError(t, os.WriteFile(dataPath, []byte("payload"), 0o600))
	require.NoError(t, os.WriteFile(dataPath+".meta.json", []byte(`{"session":"kept"}`), 0o600))

	m := metrics.New()
	NewPendingQueue(cfg, m, nil)

	_, err := os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dataPath)
	assert.NoError(t, err)

	// 스캔으로 gauge가 복원된다
	assert.Equal(t, int64(1), atomic.LoadInt64(&m.PendingFilesCurrent))
	assert.Equal(t, int64(len("payload")), atomic.LoadInt64(&m.PendingSizeBytes))
}

func TestPendingCapacityEvictsOldest(t *testing.T) {
	cfg := pendingConfig(t)
	cfg.PendingMaxSizeBytes = 150

	m := metrics.New()
	q := NewPendingQueue(cfg, m, nil)

	require.NoError(t, q.Save(make([]byte, 100), "old"))
	require.NoError(t, q.Save(make([]byte, 100), "new"))

	// 합계 200 > 150 → 먼저 저장된 파일이 밀려난다
	data := listDataFiles(t, cfg.PendingDir)
	require.Len(t, data, 1)

	meta, err := os.ReadFile(filepath.Join(cfg.PendingDir, data[0]+".meta.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"session":"new"}`, string(meta))

	assert.Equal(t, int64(1), atomic.LoadInt64(&m.PendingFilesExpiredTotal))
}

func TestProcessOneCtxExpiresByFilenameTimestamp(t *testing.T) {
	cfg := pendingConfig(t)
	cfg.PendingMaxAge = time.Hour

	// 파일명 timestamp가 TTL보다 오래된 파일 → 업로드 없이 삭제
	stale := filepath.Join(cfg.PendingDir, "1000000_sess_000001.log.gz")
	require.NoError(t, os.WriteFile(stale, []byte("payload"), 0o600))
	require.NoError(t, os.WriteFile(stale+".meta.json", []byte(`{"session":"sess"}`), 0o600))

	m := metrics.New()
	q := NewPendingQueue(cfg, m, nil)

	q.ProcessOneCtx(context.Background())

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(stale + ".meta.json")
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, int64(1), atomic.LoadInt64(&m.PendingFilesExpiredTotal))
	assert.Equal(t, int64(0), atomic.LoadInt64(&m.PendingFilesCurrent))
}

func TestProcessOneCtxCancelledContextIsNoop(t *testing.T) {
	cfg := pendingConfig(t)
	q := NewPendingQueue(cfg, metrics.New(), nil)
	require.NoError(t, q.Save([]byte("payload"), "sess"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.ProcessOneCtx(ctx)

	// 취소된 context에서는 아무것도 건드리지 않는다
	assert.Len(t, listDataFiles(t, cfg.PendingDir), 1)
}
