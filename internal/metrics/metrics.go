package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics 는 수집기 상태를 나타내는 카운터 모음이다.
// 세션 종료 시 debug 레벨로 덤프되어 장애 원인 분석에 사용된다.
type Metrics struct {
	// ======================
	// 수집(fetch) 레벨 지표
	// ======================

	// PagesFetchedTotal
	// - 성공적으로 수신·디코딩된 페이지 수 (빈 페이지 포함).
	PagesFetchedTotal int64

	// EventsStoredTotal
	// - 세션 로그에 append 된 레코드 수의 누적 합.
	// - 단위는 "이벤트 수"이며, "페이지 수"가 아니다.
	EventsStoredTotal int64

	// RateLimitedTotal
	// - 429 응답을 받은 "시도(attempt)" 횟수.
	// - retry 가 있으므로 한 페이지 요청에서도 여러 번 증가할 수 있다.
	RateLimitedTotal int64

	// RequestErrorsTotal
	// - transport 에러 또는 2xx/429 이외 상태를 받은 시도 횟수.
	// - RateLimitedTotal 과 합쳐 보면 재시도 압력 전체를 알 수 있다.
	RequestErrorsTotal int64

	// EmptyPagesTotal
	// - 2xx 인데 body 가 비어있거나 JSON 파싱이 안 된 횟수.
	// - upstream 이 일부 응답에 body 를 주지 않는 특성의 관측용.
	EmptyPagesTotal int64

	// ======================
	// 아카이브(S3) 지표
	// ======================

	// ArchiveUploadsTotal
	// - S3 에 성공 저장된 아카이브 파일 수.
	ArchiveUploadsTotal int64

	// ArchivePutErrorsTotal
	// - S3 PutObject 호출이 실패한 "시도" 횟수.
	// - 3회 재시도 모두 실패 → +3.
	ArchivePutErrorsTotal int64

	// ======================
	// pending 큐 지표
	// ======================

	// PendingFilesCurrent
	// - 현재 pending 디렉토리에 존재하는 파일 개수 (gauge).
	PendingFilesCurrent int64

	// PendingSizeBytes
	// - 현재 pending 디렉토리의 전체 용량 (gauge, bytes).
	PendingSizeBytes int64

	// PendingFilesExpiredTotal
	// - TTL 또는 용량 제한에 의해 삭제된 pending 파일 수.
	// - 이 값이 0이 아니라는 것은 아카이브를 영구적으로 잃기 시작했다는 신호.
	PendingFilesExpiredTotal int64

	// PendingReuploadsTotal
	// - pending 에 있던 아카이브를 S3 로 재업로드하는 데 성공한 파일 수.
	PendingReuploadsTotal int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(256)

	fmt.Fprintf(&sb, "pages_fetched_total=%d\n", atomic.LoadInt64(&m.PagesFetchedTotal))
	fmt.Fprintf(&sb, "events_stored_total=%d\n", atomic.LoadInt64(&m.EventsStoredTotal))
	fmt.Fprintf(&sb, "rate_limited_total=%d\n", atomic.LoadInt64(&m.RateLimitedTotal))
	fmt.Fprintf(&sb, "request_errors_total=%d\n", atomic.LoadInt64(&m.RequestErrorsTotal))
	fmt.Fprintf(&sb, "empty_pages_total=%d\n", atomic.LoadInt64(&m.EmptyPagesTotal))

	fmt.Fprintf(&sb, "archive_uploads_total=%d\n", atomic.LoadInt64(&m.ArchiveUploadsTotal))
	fmt.Fprintf(&sb, "archive_put_errors_total=%d\n", atomic.LoadInt64(&m.ArchivePutErrorsTotal))

	fmt.Fprintf(&sb, "pending_files_current=%d\n", atomic.LoadInt64(&m.PendingFilesCurrent))
	fmt.Fprintf(&sb, "pending_size_bytes=%d\n", atomic.LoadInt64(&m.PendingSizeBytes))
	fmt.Fprintf(&sb, "pending_files_expired_total=%d\n", atomic.LoadInt64(&m.PendingFilesExpiredTotal))
	fmt.Fprintf(&sb, "pending_reuploads_total=%d\n", atomic.LoadInt64(&m.PendingReuploadsTotal))

	return sb.String()
}
