// internal/collector/session.go
package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"audit-collect/internal/api"
	"audit-collect/internal/config"
	"audit-collect/internal/metrics"
	"audit-collect/internal/model"

	"github.com/rs/zerolog/log"
)

// State 는 세션의 상태 기계 값이다.
//
//	Idle → Requesting → Persisting → (Requesting | Done | Failed)
type State int32

const (
	StateIdle State = iota
	StateRequesting
	StatePersisting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result 는 세션의 최종 결과이다.
// Err != nil 이면 Failed 종료이며, 그 전까지 append된 레코드는
// 로그 파일에 그대로 남는다 (부분 성공의 별도 상태는 없다).
type Result struct {
	Total   int    // 저장된 레코드 수
	LogPath string // 세션 로그 경로
	Err     error
}

// Session
// ------------------------------------------------------------
// 수집 파이프라인의 Orchestrator.
// fetch → normalize → append → cursor 해석 루프를 소진까지 돌린다.
//
// 부수 효과는 엄격히 두 가지뿐이다:
//   - Feed로의 진행 알림
//   - 세션 로그 append
//
// 에러 재시도는 전부 api.Client 안에 있고,
// 여기서는 한도 소진만 받아 즉시 Failed로 종료한다.
type Session struct {
	cfg     config.Config
	client  *api.Client
	feed    *Feed
	metrics *metrics.Metrics

	state atomic.Int32
}

func NewSession(cfg config.Config, client *api.Client, feed *Feed, m *metrics.Metrics) *Session {
	return &Session{
		cfg:     cfg,
		client:  client,
		feed:    feed,
		metrics: m,
	}
}

// State 는 현재 상태를 반환한다.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(v State) {
	s.state.Store(int32(v))
}

// Run 은 하나의 수집 세션을 끝(Done/Failed)까지 수행한다.
// req는 시작 이후 불변이다. WindowStartMS <= WindowEndMS 는
// 호출자 책임이며 여기서 검사하지 않는다.
//
// 페이지는 엄격히 순차적으로 가져온다:
// N페이지의 레코드가 전부 durable하게 append되고 커서가 해석되기 전에는
// N+1페이지를 요청하지 않는다.
func (s *Session) Run(ctx context.Context, req model.CollectionRequest) Result {
	logPath := filepath.Join(s.cfg.LogsDir, req.SessionName+".log")
	writer := NewLogWriter(logPath)
	defer writer.Close()

	s.feed.Publish(fmt.Sprintf("시작: %s | 파일: %s | limit=%d",
		time.Now().Format(time.RFC3339), logPath, s.cfg.PageSize))

	// 최초 요청: 전체 window + 설정된 페이지 크기, cursor 없음.
	// opaque cursor 재구성의 기준으로도 계속 사용되므로 보존한다.
	initial := api.PageRequest{
		URL: api.EventsStreamURL(s.cfg.BaseURL, s.cfg.OrgID),
		Query: &api.PageQuery{
			Limit: s.cfg.PageSize,
			From:  req.WindowStartMS,
			To:    req.WindowEndMS,
		},
	}

	current := &initial
	total := 0

	for {
		s.setState(StateRequesting)

		page, err := s.client.FetchPage(ctx, *current)
		if err != nil {
			// 재시도 한도 소진 → 즉시 종료. 이미 저장된 페이지는 유지된다.
			s.setState(StateFailed)
			s.feed.Publish(fmt.Sprintf("[에러] 수집 중 예외 발생: %v", err))
			log.Error().Err(err).Str("session", req.SessionName).Msg("collection failed")
			return Result{Total: total, LogPath: logPath, Err: err}
		}

		s.setState(StatePersisting)
		s.feed.Publish(fmt.Sprintf("수신: %d 이벤트", len(page.Events)))

		// 응답 순서 그대로 normalize → append
		for _, ev := range page.Events {
			rec := Normalize(ev)
			if err := writer.Append(rec); err != nil {
				s.setState(StateFailed)
				s.feed.Publish(fmt.Sprintf("[에러] 수집 중 예외 발생: %v", err))
				log.Error().Err(err).Str("path", logPath).Msg("append failed")
				return Result{Total: total, LogPath: logPath, Err: err}
			}
			total++
			atomic.AddInt64(&s.metrics.EventsStoredTotal, 1)
		}

		next := api.ResolveNext(page, initial)
		if next == nil {
			s.feed.Publish("다음 토큰 없음: 수집 완료 조건 충족")
			break
		}
		current = next
	}

	s.setState(StateDone)
	s.feed.Publish(fmt.Sprintf("수집 완료: %d개의 이벤트를 저장했습니다.", total))
	s.feed.Publish(fmt.Sprintf("결과 파일: %s", logPath))
	log.Info().Int("total", total).Str("path", logPath).Msg("collection done")

	return Result{Total: total, LogPath: logPath}
}
