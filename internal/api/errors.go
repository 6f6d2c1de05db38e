// internal/api/errors.go
package api

import (
	"errors"
	"fmt"
)

// ErrExhausted 는 재시도 한도를 모두 소진한 뒤 반환되는 에러다.
// errors.Is(err, ErrExhausted) 로 판별하고,
// 마지막 실패 원인은 래핑된 메시지에 포함된다.
var ErrExhausted = errors.New("retry budget exhausted")

// StatusError 는 2xx가 아닌 HTTP 상태를 나타낸다.
// 429(rate limit)도 한도 소진 시 이 타입으로 전파된다.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
