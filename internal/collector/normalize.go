// internal/collector/normalize.go
package collector

import (
	"strconv"

	"audit-collect/internal/model"
)

// Normalize 는 upstream 이벤트 1건을 저장용 평탄 레코드로 변환한다.
// 전(total) 함수이며 어떤 입력에도 실패하지 않는다:
// 경로 중간 객체가 없으면 그 필드만 null이 되고,
// 형제 필드 추출에는 영향을 주지 않는다.
func Normalize(ev model.RawEvent) model.AuditRecord {
	attrs, _ := ev["attributes"].(map[string]any)
	actor, _ := attrs["actor"].(map[string]any)
	location, _ := attrs["location"].(map[string]any)

	return model.AuditRecord{
		Time:       strField(attrs, "time"),
		Action:     strField(attrs, "action"),
		ActorName:  strField(actor, "name"),
		ActorEmail: strField(actor, "email"),
		IP:         strField(location, "ip"),
		EventID:    strField(ev, "id"),
	}
}

// strField 는 map에서 문자열 값을 best-effort로 꺼낸다.
//   - 키 없음 / null → nil
//   - 숫자·불리언 스칼라는 문자열화한다
//     (일부 응답에서 time이 epoch 숫자로 오는 경우가 있음)
//   - 그 외 타입(객체/배열)은 nil
func strField(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}

	switch t := v.(type) {
	case string:
		return &t
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	case bool:
		s := strconv.FormatBool(t)
		return &s
	default:
		return nil
	}
}
