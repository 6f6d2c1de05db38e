// internal/collector/runner.go
package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"audit-collect/internal/api"
	"audit-collect/internal/config"
	"audit-collect/internal/metrics"
	"audit-collect/internal/model"
)

// ErrBusy 는 이미 세션이 진행 중일 때 Start가 반환하는 에러다.
var ErrBusy = errors.New("collection already in progress")

// Runner
// ------------------------------------------------------------
// 세션 worker goroutine의 소유자.
// 표시/상호작용 측과 분리된 전용 worker에서 Session.Run을 돌리므로
// 네트워크 호출과 backoff sleep이 쉘을 멈추게 하지 않는다.
//
// 불변식: 동시에 최대 1개의 세션만 진행된다.
// 진행 중에 Start를 다시 부르면 ErrBusy로 거절한다.
// 시작된 세션의 중도 취소는 지원하지 않는다 —
// 완료 또는 최종 실패까지 달린다.
type Runner struct {
	cfg     config.Config
	metrics *metrics.Metrics
	feed    *Feed

	running atomic.Bool
	wg      sync.WaitGroup

	mu     sync.Mutex
	result Result
}

func NewRunner(cfg config.Config, m *metrics.Metrics, feed *Feed) *Runner {
	return &Runner{
		cfg:     cfg,
		metrics: m,
		feed:    feed,
	}
}

// Running 은 세션 진행 여부를 반환한다.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Start 는 새 세션 worker를 시작한다.
// 이미 진행 중이면 ErrBusy를 반환하고 아무것도 하지 않는다.
func (r *Runner) Start(ctx context.Context, req model.CollectionRequest) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrBusy
	}

	sess := NewSession(r.cfg, api.New(r.cfg, r.metrics, r.feed), r.feed, r.metrics)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Store(false)

		res := sess.Run(ctx, req)

		r.mu.Lock()
		r.result = res
		r.mu.Unlock()
	}()

	return nil
}

// Wait 는 진행 중인 세션이 끝날 때까지 막고 최종 결과를 반환한다.
func (r *Runner) Wait() Result {
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}
