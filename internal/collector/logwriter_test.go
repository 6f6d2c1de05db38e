package collector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audit-collect/internal/model"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestLogWriterAppendsOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	w := NewLogWriter(path)
	defer w.Close()

	require.NoError(t, w.Append(model.AuditRecord{EventID: strp("e1"), Action: strp("login")}))
	require.NoError(t, w.Append(model.AuditRecord{EventID: strp("e2")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	var rec model.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "e1", *rec.EventID)
	assert.Equal(t, "login", *rec.Action)
	assert.Nil(t, rec.Time)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "e2", *rec.EventID)
}

func TestLogWriterNullFieldsSerializeAsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	w := NewLogWriter(path)
	defer w.Close()

	require.NoError(t, w.Append(model.AuditRecord{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"time":null,"action":null,"actor_name":null,"actor_email":null,"ip":null,"event_id":null}`,
		strings.TrimSpace(string(data)))
}

func TestLogWriterLazyCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.log")
	w := NewLogWriter(path)

	// 한 번도 append하지 않으면 파일이 생기지 않는다
	require.NoError(t, w.Close())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLogWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")

	w1 := NewLogWriter(path)
	require.NoError(t, w1.Append(model.AuditRecord{EventID: strp("e1")}))
	require.NoError(t, w1.Close())

	// 같은 경로를 다시 열어도 기존 내용 뒤에 덧붙는다
	w2 := NewLogWriter(path)
	require.NoError(t, w2.Append(model.AuditRecord{EventID: strp("e2")}))
	require.NoError(t, w2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
}
