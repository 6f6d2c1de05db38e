// internal/collector/feed.go
package collector

import (
	"sync"
	"time"
)

// Notice 는 진행 상황 한 줄이다.
// At 은 발행 시각이며, 표시 측은 도착 순서를 그대로 유지해야 한다.
type Notice struct {
	At  time.Time
	Msg string
}

// Feed
// ------------------------------------------------------------
// worker → 표시 측 방향의 단방향 진행 상황 큐.
//   - 다중 생산자(클라이언트, 세션) / 단일 소비자(쉘)
//   - 순서 보장, 무제한(backpressure 없음 — 사람용 상태 라인 수준의
//     발생량이므로 허용)
//   - 어떤 알림도 버리지 않는다
//
// 소비자는 주기적으로 Drain을 호출해 쌓인 알림을 가져간다.
type Feed struct {
	mu    sync.Mutex
	items []Notice
}

func NewFeed() *Feed {
	return &Feed{}
}

// Publish 는 알림 한 줄을 큐 끝에 추가한다. 어느 goroutine에서 불러도 안전.
func (f *Feed) Publish(msg string) {
	f.mu.Lock()
	f.items = append(f.items, Notice{At: time.Now(), Msg: msg})
	f.mu.Unlock()
}

// Drain 은 쌓인 알림 전체를 도착 순서 그대로 반환하고 큐를 비운다.
// 비어있으면 nil을 반환한다.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) == 0 {
		return nil
	}

	out := f.items
	f.items = nil
	return out
}
