// internal/collector/logwriter.go
package collector

import (
	"bytes"
	"os"

	"audit-collect/internal/model"
	"audit-collect/internal/pool"

	json "github.com/goccy/go-json"
)

// LogWriter
// ------------------------------------------------------------
// 세션 로그(append-only JSONL) 기록기.
//   - 레코드 1건 = JSON 한 줄 + '\n'
//   - O_APPEND 쓰기 후 매 레코드 Sync → crash 시 잃는 것은
//     기록 중이던 레코드 1건뿐
//   - 파일은 "첫 레코드가 기록될 때" 생성된다 (lazy open).
//     세션이 페이지를 하나도 받지 못하고 실패하면 빈 파일을 남기지 않음.
//   - 세션당 단일 writer 전제. 동시 쓰기는 모델링하지 않는다.
type LogWriter struct {
	path string
	f    *os.File
}

// NewLogWriter 는 기록기를 만든다. 파일은 아직 열지 않는다.
func NewLogWriter(path string) *LogWriter {
	return &LogWriter{path: path}
}

// Path 는 세션 로그 파일 경로를 반환한다.
func (w *LogWriter) Path() string {
	return w.path
}

// Append 는 레코드 1건을 JSON 한 줄로 직렬화해 덧붙이고,
// 반환 전에 디스크까지 flush한다.
func (w *LogWriter) Append(rec model.AuditRecord) error {
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		w.f = f
	}

	buf := pool.LinePool.Get().(*bytes.Buffer)
	buf.Reset()
	defer pool.PutLine(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	// Encode는 '\n'을 직접 붙여준다 → 정확히 한 줄
	if err := enc.Encode(rec); err != nil {
		return err
	}

	if _, err := w.f.Write(buf.Bytes()); err != nil {
		return err
	}

	return w.f.Sync()
}

// Close 는 파일 핸들을 닫는다. 한 번도 기록하지 않았다면 no-op.
func (w *LogWriter) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
