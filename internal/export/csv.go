// internal/export/csv.go
package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"audit-collect/internal/model"

	json "github.com/goccy/go-json"
)

// ErrCorruptLog 는 세션 로그에서 JSON으로 디코딩되지 않는 줄을
// 만났을 때 반환된다. 부분 변환/건너뛰기 모드는 없다 —
// 한 줄이라도 깨져 있으면 export 전체가 실패한다.
var ErrCorruptLog = errors.New("corrupt session log")

// columns 는 고정된 6열 순서. 헤더와 데이터 행이 모두 이 순서를 따른다.
var columns = []string{"time", "action", "actor_name", "actor_email", "ip", "event_id"}

// 한 줄의 최대 허용 길이. 평탄화된 audit 레코드 기준으로 충분히 크다.
const maxLineBytes = 1 * 1024 * 1024

// ToCSV 는 완료된 세션 로그(JSONL)를 CSV로 다시 그린다.
//   - 헤더 1행 + 로그 한 줄당 데이터 1행, null은 빈 문자열
//   - 반환값은 기록한 데이터 행 수
//   - 결과는 먼저 csvPath+".tmp"에 쓰고 전체 성공 시에만 rename한다.
//     중간 실패로 잘린 표가 남는 일이 없도록 하기 위함.
//   - 같은 로그에 두 번 실행하면 바이트 단위로 동일한 결과가 나온다.
//
// Exporter는 세션이 끝난 뒤에만 로그를 읽는다(동시 쓰기 없음 전제).
func ToCSV(logPath, csvPath string) (int, error) {
	fin, err := os.Open(logPath)
	if err != nil {
		return 0, err
	}
	defer fin.Close()

	tmpPath := csvPath + ".tmp"
	fout, err := os.Create(tmpPath)
	if err != nil {
		return 0, err
	}

	// 실패 경로 공통 정리: tmp 파일을 남기지 않는다.
	fail := func(err error) (int, error) {
		fout.Close()
		_ = os.Remove(tmpPath)
		return 0, err
	}

	w := csv.NewWriter(fout)
	if err := w.Write(columns); err != nil {
		return fail(err)
	}

	sc := bufio.NewScanner(fin)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	count := 0
	lineNo := 0

	for sc.Scan() {
		lineNo++

		raw := bytes.TrimSpace(sc.Bytes())

		var rec model.AuditRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fail(fmt.Errorf("%w: line %d: %v", ErrCorruptLog, lineNo, err))
		}

		row := []string{
			deref(rec.Time),
			deref(rec.Action),
			deref(rec.ActorName),
			deref(rec.ActorEmail),
			deref(rec.IP),
			deref(rec.EventID),
		}
		if err := w.Write(row); err != nil {
			return fail(err)
		}
		count++
	}

	if err := sc.Err(); err != nil {
		return fail(err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fail(err)
	}
	if err := fout.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	// 전체 성공 → 최종 경로로 승격
	if err := os.Rename(tmpPath, csvPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	return count, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
