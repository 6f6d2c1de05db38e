// internal/archive/key.go
package archive

import (
	"fmt"
	"sync/atomic"
)

// key.go
// ------------------------------------------------------------
// 아카이브 및 pending 파일 저장 시 사용하는 이름 규칙.
// pending 스윕의 "오래된 것 먼저" 정렬과 TTL 판단이
// 파일명에 의존하므로 deterministic 패턴을 유지해야 한다.
//
// 파일명 규칙:
//
//	<unix>_<session>_<counter>.log.gz
//
// 예:
//
//	1764721594_august-audit_000042.log.gz
//
// 정렬하면 곧 시간 순 정렬이므로,
// pending에서 파일을 다시 업로드할 때 가장 오래된 파일 선처리에 사용한다.
var globalCounter uint64

// NextCounter
// ------------------------------------------------------------
// 원자적 증가 값으로 순차 번호를 생성한다.
// 1,000,000에서 다시 0으로 돌아가 파일명이 지나치게 커지는 것을 방지.
// wrap-around 되어도 timestamp·세션명 조합으로
// 전체 파일명 충돌 가능성은 사실상 0에 가깝다.
func NextCounter() uint64 {
	return atomic.AddUint64(&globalCounter, 1) % 1_000_000
}

// NewFilename
// ------------------------------------------------------------
// 새로운 아카이브 파일명을 생성한다.
// <unix>_<session>_<counter>.log.gz 형태.
func NewFilename(session string) string {
	sec := Unix()
	c := NextCounter()
	return fmt.Sprintf("%d_%s_%06d.log.gz", sec, session, c)
}

// BuildKey
// ------------------------------------------------------------
// 표준화된 S3 Key 생성기.
// S3 폴더 구조(Partitioning):
//
//	<prefix>/dt=<YYYY-MM-DD>/hr=<HH>/<filename>
//
// Athena / Glue 파티션 스캔 비용을 줄이기 위한 표준적인 구조.
func BuildKey(prefix, filename string) string {
	return fmt.Sprintf("%s/dt=%s/hr=%s/%s", prefix, DT(), HR(), filename)
}
