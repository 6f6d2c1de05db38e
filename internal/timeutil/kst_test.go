package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayStartMS(t *testing.T) {
	ms, err := DayStartMS("2026-08-01")
	require.NoError(t, err)

	// KST 자정 = UTC 전날 15:00
	want := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, want, ms)
}

func TestDayEndMS(t *testing.T) {
	ms, err := DayEndMS("2026-08-01")
	require.NoError(t, err)

	// 23:59:59.999 = 다음 날 자정 - 1ms
	next, err := DayStartMS("2026-08-02")
	require.NoError(t, err)
	assert.Equal(t, next-1, ms)

	got := time.UnixMilli(ms).In(KST)
	assert.Equal(t, 23, got.Hour())
	assert.Equal(t, 59, got.Minute())
	assert.Equal(t, 59, got.Second())
	assert.Equal(t, 999, got.Nanosecond()/1e6)
}

func TestDayWindowSingleDate(t *testing.T) {
	start, end, err := DayWindow("2026-08-01", "2026-08-01")
	require.NoError(t, err)

	// 단일 날짜 구간 = 정확히 하루(86,400,000ms)에서 1ms 뺀 폭
	assert.Equal(t, int64(86_400_000-1), end-start)
}

func TestDayWindowRejectsBadFormat(t *testing.T) {
	_, _, err := DayWindow("2026/08/01", "2026-08-02")
	assert.Error(t, err)

	_, _, err = DayWindow("2026-08-01", "not-a-date")
	assert.Error(t, err)
}
