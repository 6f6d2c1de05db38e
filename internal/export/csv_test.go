package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audit-collect/internal/collector"
	"audit-collect/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sess.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestToCSVWriterRoundTrip(t *testing.T) {
	// LogWriter가 쓴 로그를 그대로 읽어 6열 표로 복원한다
	dir := t.TempDir()
	logPath := filepath.Join(dir, "sess.log")

	w := collector.NewLogWriter(logPath)
	require.NoError(t, w.Append(model.AuditRecord{
		Time:       strp("2026-08-01T00:00:00Z"),
		Action:     strp("user_login"),
		ActorName:  strp("hong"),
		ActorEmail: strp("hong@example.com"),
		IP:         strp("203.0.113.9"),
		EventID:    strp("ev-1"),
	}))
	require.NoError(t, w.Append(model.AuditRecord{EventID: strp("ev-2")}))
	require.NoError(t, w.Close())

	csvPath := filepath.Join(dir, "sess.csv")
	cnt, err := ToCSV(logPath, csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, cnt)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "time,action,actor_name,actor_email,ip,event_id", lines[0])
	assert.Equal(t, "2026-08-01T00:00:00Z,user_login,hong,hong@example.com,203.0.113.9,ev-1", lines[1])

	// null 필드는 빈 문자열
	assert.Equal(t, ",,,,,ev-2", lines[2])
}

func TestToCSVIdempotent(t *testing.T) {
	logPath := writeLog(t,
		`{"time":"t1","action":"a1","actor_name":null,"actor_email":null,"ip":null,"event_id":"e1"}`,
		`{"time":"t2","action":"a2","actor_name":"n","actor_email":"m","ip":"1.2.3.4","event_id":"e2"}`,
	)
	dir := filepath.Dir(logPath)

	p1 := filepath.Join(dir, "out1.csv")
	p2 := filepath.Join(dir, "out2.csv")

	c1, err := ToCSV(logPath, p1)
	require.NoError(t, err)
	c2, err := ToCSV(logPath, p2)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	b1, err := os.ReadFile(p1)
	require.NoError(t, err)
	b2, err := os.ReadFile(p2)
	require.NoError(t, err)

	// 같은 로그 → 바이트 단위로 동일한 CSV
	assert.Equal(t, b1, b2)
}

func TestToCSVCorruptLineAbortsWholeExport(t *testing.T) {
	logPath := writeLog(t,
		`{"time":"t1","action":null,"actor_name":null,"actor_email":null,"ip":null,"event_id":"e1"}`,
		`{not json`,
		`{"time":"t3","action":null,"actor_name":null,"actor_email":null,"ip":null,"event_id":"e3"}`,
	)
	csvPath := filepath.Join(filepath.Dir(logPath), "out.csv")

	_, err := ToCSV(logPath, csvPath)
	require.ErrorIs(t, err, ErrCorruptLog)
	assert.Contains(t, err.Error(), "line 2")

	// 부분 결과물도, tmp 파일도 남기지 않는다
	_, err = os.Stat(csvPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(csvPath + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestToCSVMissingLog(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "out.csv")
	_, err := ToCSV(filepath.Join(t.TempDir(), "no-such.log"), csvPath)
	assert.Error(t, err)
}
