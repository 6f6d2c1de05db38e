// internal/model/record.go
package model

// CollectionRequest
// ------------------------------------------------------------
// 하나의 수집 세션을 시작할 때 외부(쉘)에서 전달받는 요청.
// Orchestrator가 시작된 이후에는 변경되지 않는 불변 값이다.
//
// WindowStartMS / WindowEndMS 는 KST(UTC+9) 기준 날짜 경계를
// epoch 밀리초로 변환한 값이다 (timeutil.DayWindow 참고).
// WindowStartMS <= WindowEndMS 는 호출자 책임(전제조건)이며
// 여기서 런타임 검사를 하지 않는다.
type CollectionRequest struct {
	SessionName   string // 세션 이름 = 로그 파일 이름 (확장자 제외)
	WindowStartMS int64  // 조회 구간 시작 (epoch ms)
	WindowEndMS   int64  // 조회 구간 끝 (epoch ms)
}

// RawEvent
// ------------------------------------------------------------
// upstream API가 반환하는 이벤트 객체 1건.
// 스키마 검증 없이 opaque하게 다루며, 아래 경로만 읽는다.
//
//	attributes.time / attributes.action
//	attributes.actor.{name,email}
//	attributes.location.ip
//	id
//
// 어떤 깊이에서든 경로가 없으면 해당 필드만 null이 된다.
type RawEvent map[string]any

// AuditRecord
// ------------------------------------------------------------
// 세션 로그에 영구 저장되는 평탄화된 레코드.
// 파이프라인 전체에서 데이터의 "기본 단위"가 된다.
// Normalizer → LogWriter → (이후) Exporter까지 그대로 전달된다.
//
// 모든 필드는 nullable이며, 없는 값은 JSON null로 직렬화된다.
// 한 번 기록된 레코드는 수정/삭제되지 않는다 (append-only).
type AuditRecord struct {
	Time       *string `json:"time"`
	Action     *string `json:"action"`
	ActorName  *string `json:"actor_name"`
	ActorEmail *string `json:"actor_email"`
	IP         *string `json:"ip"`
	EventID    *string `json:"event_id"`
}
