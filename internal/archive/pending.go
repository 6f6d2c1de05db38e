// internal/archive/pending.go
package archive

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"audit-collect/internal/config"
	"audit-collect/internal/metrics"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// PendingQueue 는 S3 업로드에 최종 실패한 아카이브를 로컬 디스크에
// 보관하고, 이후 재업로드를 담당한다.
// 로컬 세션 로그 원본은 어차피 남아 있으므로 pending은
// "아카이브 사본을 잃지 않기 위한" 완충 장치다.
// TTL 판단은 "파일명 prefix 의 Unix timestamp" 기준으로 한다.
type PendingQueue struct {
	cfg      config.Config
	metrics  *metrics.Metrics
	uploader *Uploader

	// 현재 pending 디렉토리에 저장된 data 파일 총 바이트 수
	sizeBytes int64
}

// NewPendingQueue 는 pending 디렉토리를 초기화하고, 기존 파일을 스캔하여
// PendingSizeBytes / PendingFilesCurrent 를 복원한다.
// 이때 meta orphan (data 없이 .meta.json 만 남은 경우) 도 정리한다.
func NewPendingQueue(cfg config.Config, m *metrics.Metrics, uploader *Uploader) *PendingQueue {
	_ = os.MkdirAll(cfg.PendingDir, 0o755)

	q := &PendingQueue{
		cfg:      cfg,
		metrics:  m,
		uploader: uploader,
	}

	var total int64
	var count int64

	entries, err := os.ReadDir(cfg.PendingDir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}

			name := e.Name()
			full := filepath.Join(cfg.PendingDir, name)

			// meta orphan 제거: *.meta.json 이고, 같은 이름의 data 파일이 없으면 삭제
			if strings.HasSuffix(name, ".meta.json") {
				dataName := strings.TrimSuffix(name, ".meta.json")
				if _, err := os.Stat(filepath.Join(cfg.PendingDir, dataName)); os.IsNotExist(err) {
					_ = os.Remove(full)
				}
				continue
			}

			// data 파일만 카운트
			info, err := e.Info()
			if err == nil {
				total += info.Size()
				count++
			}
		}
	}

	atomic.StoreInt64(&q.sizeBytes, total)
	if total > 0 {
		atomic.AddInt64(&m.PendingSizeBytes, total)
	}
	if count > 0 {
		atomic.AddInt64(&m.PendingFilesCurrent, count)
	}

	return q
}

// Save 는 업로드에 실패한 gzip 아카이브를 로컬 pending 에 저장한다.
// session 은 해당 아카이브의 세션 이름이며, 메타 파일(.meta.json)에 기록된다.
//
// TTL 판단은 파일명 prefix 의 Unix timestamp 기반이므로
// 별도로 mtime 을 조정할 필요는 없다.
func (q *PendingQueue) Save(data []byte, session string) error {
	if len(data) == 0 || session == "" {
		return nil
	}

	size := int64(len(data))
	if !q.ensureCapacity(size) {
		// 용량 부족: 가장 오래된 파일들 정리했지만 여전히 공간 부족 → drop
		log.Error().Int64("bytes", size).Str("session", session).Msg("pending full, archive dropped")
		return nil
	}

	filename := NewFilename(session)                      // "<unix>_<session>_<counter>.log.gz"
	dataPath := filepath.Join(q.cfg.PendingDir, filename) // data 파일
	metaPath := dataPath + ".meta.json"                   // 메타 파일

	if err := os.WriteFile(dataPath, data, 0o600); err != nil {
		return err
	}

	meta := []byte(fmt.Sprintf(`{"session":%q}`, session))
	_ = os.WriteFile(metaPath, meta, 0o600)

	atomic.AddInt64(&q.sizeBytes, size)
	atomic.AddInt64(&q.metrics.PendingSizeBytes, size)
	atomic.AddInt64(&q.metrics.PendingFilesCurrent, 1)

	return nil
}

// ensureCapacity 는 PendingMaxSizeBytes 를 초과하지 않도록
// 가장 오래된 data/meta 파일부터 삭제한다.
// data 파일이 더 이상 없으면 false 를 반환한다.
func (q *PendingQueue) ensureCapacity(incoming int64) bool {
	max := q.cfg.PendingMaxSizeBytes
	if max <= 0 {
		return true
	}

	for {
		curr := atomic.LoadInt64(&q.sizeBytes)
		if curr+incoming <= max {
			return true
		}

		oldest := q.pickOldest()
		if oldest == "" {
			return false
		}

		dataPath := filepath.Join(q.cfg.PendingDir, oldest)
		metaPath := dataPath + ".meta.json"

		info, err := os.Stat(dataPath)
		if err == nil {
			atomic.AddInt64(&q.sizeBytes, -info.Size())
			atomic.AddInt64(&q.metrics.PendingSizeBytes, -info.Size())
		}

		_ = os.Remove(dataPath)
		_ = os.Remove(metaPath)

		atomic.AddInt64(&q.metrics.PendingFilesCurrent, -1)
		atomic.AddInt64(&q.metrics.PendingFilesExpiredTotal, 1)

		log.Warn().Str("file", oldest).Msg("pending capacity, removed oldest")
	}
}

// ProcessOneCtx 는 가장 오래된 data/meta 파일 1개를 재업로드한다.
// TTL 판단도 여기에서 수행한다.
// TTL 기준은 파일명 prefix 의 Unix timestamp 이며, archive.Unix() 기준으로 비교한다.
func (q *PendingQueue) ProcessOneCtx(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	name := q.pickOldest()
	if name == "" {
		return
	}

	dataPath := filepath.Join(q.cfg.PendingDir, name)
	metaPath := dataPath + ".meta.json"

	info, err := os.Stat(dataPath)
	if err != nil {
		// 파일이 사라진 경우 정리만 수행
		_ = os.Remove(dataPath)
		_ = os.Remove(metaPath)
		atomic.AddInt64(&q.metrics.PendingFilesCurrent, -1)
		return
	}

	size := info.Size()

	// --- TTL 판단: 파일명 prefix 의 Unix timestamp 기반 ---
	if q.cfg.PendingMaxAge > 0 {
		if sec, ok := extractUnixFromFilename(name); ok && sec > 0 {
			age := time.Duration(Unix()-sec) * time.Second
			if age > q.cfg.PendingMaxAge {
				_ = os.Remove(dataPath)
				_ = os.Remove(metaPath)

				atomic.AddInt64(&q.sizeBytes, -size)
				atomic.AddInt64(&q.metrics.PendingSizeBytes, -size)
				atomic.AddInt64(&q.metrics.PendingFilesCurrent, -1)
				atomic.AddInt64(&q.metrics.PendingFilesExpiredTotal, 1)

				log.Info().Str("file", name).Str("age", age.String()).Msg("pending TTL expired, deleted")
				return
			}
		}
		// filename 에서 unix 를 읽지 못하면 TTL 판단은 skip 하고 계속 진행
	}

	f, err := os.Open(dataPath)
	if err != nil {
		log.Warn().Str("file", name).Err(err).Msg("pending open failed")
		return
	}
	defer f.Close()

	// gzip+JSONL 파일 유효성 검사 (첫 라인 JSON 확인)
	valid := q.validateFile(f, size)

	// 재업로드 전에 rewind
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Warn().Str("file", name).Err(err).Msg("pending seek failed")
		return
	}

	// 유효하면 정상 prefix, 아니면 corrupt 하위 prefix 로 보낸다.
	var key string
	if valid {
		key = BuildKey(q.cfg.ArchivePrefix, name)
	} else {
		key = BuildKey(path.Join(q.cfg.ArchivePrefix, "corrupt"), name)
	}

	if err := q.uploader.UploadFileWithRetryCtx(ctx, key, f, size); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("pending reupload failed")
		return
	}

	// meta 에서 session 읽기 (없거나 깨져 있으면 로그에서 생략)
	session := ""
	if meta, err := os.ReadFile(metaPath); err == nil {
		var v struct {
			Session string `json:"session"`
		}
		if json.Unmarshal(meta, &v) == nil {
			session = v.Session
		}
	}

	// 업로드 성공 → 로컬 파일 제거
	_ = os.Remove(dataPath)
	_ = os.Remove(metaPath)

	atomic.AddInt64(&q.sizeBytes, -size)
	atomic.AddInt64(&q.metrics.PendingSizeBytes, -size)
	atomic.AddInt64(&q.metrics.PendingFilesCurrent, -1)
	atomic.AddInt64(&q.metrics.PendingReuploadsTotal, 1)

	log.Info().Str("key", key).Str("session", session).Msg("pending reupload success")
}

// validateFile 은 gzip 을 풀어 첫 번째 JSONL 라인이 유효한 JSON 인지 검사한다.
// 유효하면 정상 파티션으로, 아니면 corrupt 파티션으로 보낸다.
func (q *PendingQueue) validateFile(f *os.File, size int64) bool {
	if size <= 0 {
		return false
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		return false
	}
	defer gz.Close()

	reader := bufio.NewReader(gz)
	line, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return false
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false
	}

	var tmp map[string]interface{}
	return json.Unmarshal(line, &tmp) == nil
}

// pickOldest는 pending 디렉토리에 있는 data 파일 중
// 파일명 기준(=timestamp 기준)으로 가장 오래된 파일을 반환한다.
//
// 주의:
//   - 파일 시스템은 엔트리 목록을 정렬해주지 않는다.
//   - pending 파일명은 <unix>_<session>_<counter>.log.gz 이므로
//     문자열 정렬 = 시간 정렬 = 처리 순서 보장이 가능하다.
func (q *PendingQueue) pickOldest() string {
	entries, err := os.ReadDir(q.cfg.PendingDir)
	if err != nil {
		return ""
	}

	files := make([]string, 0, len(entries))

	for _, e := range entries {
		name := e.Name()

		// meta 파일은 제외
		if strings.HasSuffix(name, ".meta.json") {
			continue
		}

		// 숨김 파일, 비정상 파일 제외
		if name == "" || name[0] == '.' {
			continue
		}

		files = append(files, name)
	}

	if len(files) == 0 {
		return ""
	}

	// lexicographical sort → timestamp 순 정렬
	sort.Strings(files)

	return files[0]
}

// extractUnixFromFilename 은 파일명 prefix 에서 Unix seconds 를 파싱한다.
// 파일명 형식: "<unix>_<session>_<counter>.log.gz"
func extractUnixFromFilename(name string) (int64, bool) {
	idx := strings.IndexByte(name, '_')
	if idx <= 0 {
		return 0, false
	}
	sec, err := strconv.ParseInt(name[:idx], 10, 64)
	if err != nil || sec <= 0 {
		return 0, false
	}
	return sec, true
}
