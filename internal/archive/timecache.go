// internal/archive/timecache.go
package archive

import (
	"sync/atomic"
	"time"

	"audit-collect/internal/timeutil"
)

//
// timecache.go
// ------------------------------------------------------------
// 현재 UTC epoch seconds와 KST 기준 날짜/시간 파티션을 캐싱하는 모듈.
//
// 아카이브 키(dt=YYYY-MM-DD/hr=HH)와 파일명 prefix가 모두 현재 시각을
// 쓰는데, pending 스윕 중에는 짧은 간격으로 반복 호출되므로
// 1초 ticker로 캐싱 후 초단위 정밀도만 유지한다.
//
// 사용처:
//   - 아카이브 파일명 prefix (<unix>_...)
//   - S3 파티션 prefix (dt=YYYY-MM-DD / hr=HH)
// ------------------------------------------------------------

var (
	unixSec atomic.Int64

	// 날짜/시간 파티션 (KST 기준)
	dtVal atomic.Value // "YYYY-MM-DD"
	hrVal atomic.Value // "HH"
)

func init() {
	update()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for range ticker.C {
			update()
		}
	}()
}

func update() {
	now := time.Now()
	unixSec.Store(now.Unix())

	kst := now.In(timeutil.KST)
	dtVal.Store(kst.Format("2006-01-02"))
	hrVal.Store(kst.Format("15"))
}

// Unix returns current UTC epoch seconds (cached, 1-second precision).
func Unix() int64 {
	return unixSec.Load()
}

// DT returns "YYYY-MM-DD" (KST 기준).
func DT() string {
	return dtVal.Load().(string)
}

// HR returns "HH" (KST 기준).
func HR() string {
	return hrVal.Load().(string)
}
