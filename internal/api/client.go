// internal/api/client.go
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"audit-collect/internal/config"
	"audit-collect/internal/metrics"
	"audit-collect/internal/model"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Notifier 는 진행 상황 한 줄을 외부 관찰자에게 전달한다.
// 실제 구현은 collector.Feed (스레드 안전 순서 보장 큐).
type Notifier interface {
	Publish(msg string)
}

// sleep 은 backoff 대기에 사용된다.
// 테스트에서 대기 시간을 기록/단축하기 위해 교체 가능하게 둔다.
var sleep = time.Sleep

// Client 는 events-stream 엔드포인트에 대한 재시도 클라이언트이다.
//   - 429: soft failure. Retry-After(유효한 음이 아닌 정수) 또는
//     base * 2^(attempt-1) 만큼 "먼저 대기"한 뒤 재시도/포기를 판단한다.
//   - transport 에러, 2xx/429 이외 상태: hard failure.
//     한도 확인 후 base * 2^(attempt-1) 대기하고 재시도한다.
//   - 429와 hard failure는 하나의 attempt 카운터를 공유한다.
//
// 재시도는 전부 이 레벨에 갇혀 있고,
// 한도 소진(ErrExhausted)만 Orchestrator로 올라간다.
type Client struct {
	cfg     config.Config
	metrics *metrics.Metrics
	feed    Notifier
	http    *http.Client
}

// New 는 재시도 클라이언트를 생성한다.
// timeout은 http.Client가 아니라 시도(attempt)당 컨텍스트로 건다.
func New(cfg config.Config, m *metrics.Metrics, feed Notifier) *Client {
	return &Client{
		cfg:     cfg,
		metrics: m,
		feed:    feed,
		http:    &http.Client{},
	}
}

// FetchPage 는 한 페이지를 가져온다.
// 재시도 한도 소진 시에만 에러를 반환하며,
// 그 외의 모든 실패는 내부에서 대기/재시도로 흡수된다.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) (*PageResponse, error) {
	u, err := req.RequestURL()
	if err != nil {
		return nil, err
	}

	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {

		// 기본 대기값: base * 2^(attempt-1)
		backoff := c.cfg.RetryBase * time.Duration(1<<(attempt-1))

		status, retryAfter, body, err := c.do(ctx, u)

		// ----------------------------------------------------------------
		// transport 에러 (연결 실패, per-attempt timeout 등) → hard failure
		// ----------------------------------------------------------------
		if err != nil {
			lastErr = err
			atomic.AddInt64(&c.metrics.RequestErrorsTotal, 1)
			c.feed.Publish(fmt.Sprintf("[Request error] attempt %d: %v", attempt, err))
			log.Warn().Err(err).Int("attempt", attempt).Msg("request failed")

			if attempt >= c.cfg.MaxRetries {
				break
			}
			c.feed.Publish(fmt.Sprintf("Waiting %s before retry", backoff))
			sleep(backoff)
			continue
		}

		// ----------------------------------------------------------------
		// 429 → soft failure. 포기 판단 "전에" 항상 대기한다.
		// Retry-After가 유효한 음이 아닌 정수면 서버 제안값을 따른다.
		// ----------------------------------------------------------------
		if status == http.StatusTooManyRequests {
			lastErr = &StatusError{Code: status}
			atomic.AddInt64(&c.metrics.RateLimitedTotal, 1)

			wait := backoff
			if d, ok := parseRetryAfter(retryAfter); ok {
				wait = d
			}

			c.feed.Publish(fmt.Sprintf("[429] Rate limited. Waiting %s (attempt %d/%d)",
				wait, attempt, c.cfg.MaxRetries))
			sleep(wait)

			if attempt >= c.cfg.MaxRetries {
				break
			}
			continue
		}

		// ----------------------------------------------------------------
		// 2xx/429 이외 상태 → hard failure
		// ----------------------------------------------------------------
		if status < 200 || status > 299 {
			lastErr = &StatusError{Code: status}
			atomic.AddInt64(&c.metrics.RequestErrorsTotal, 1)
			c.feed.Publish(fmt.Sprintf("[Request error] attempt %d: unexpected status %d", attempt, status))
			log.Warn().Int("status", status).Int("attempt", attempt).Msg("unexpected status")

			if attempt >= c.cfg.MaxRetries {
				break
			}
			c.feed.Publish(fmt.Sprintf("Waiting %s before retry", backoff))
			sleep(backoff)
			continue
		}

		// ----------------------------------------------------------------
		// 2xx 성공. body가 비어있거나 JSON이 아니면 "빈 페이지"로 취급한다.
		// (일부 rate-limit 직후 응답은 200인데 body가 없는 경우가 있음)
		// ----------------------------------------------------------------
		page, ok := decodePage(body)
		if !ok {
			atomic.AddInt64(&c.metrics.EmptyPagesTotal, 1)
			c.feed.Publish(fmt.Sprintf("[Error] The result of request is empty (attempt %d)", attempt))
			return &PageResponse{}, nil
		}

		atomic.AddInt64(&c.metrics.PagesFetchedTotal, 1)
		return page, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, c.cfg.MaxRetries, lastErr)
}

// do 는 HTTP GET 1회 시도를 수행한다.
//   - 시도당 RequestTimeout 컨텍스트 적용
//   - Bearer 토큰 / Accept 헤더 부착
//   - body는 여기서 전부 읽어 반환한다 (timeout 컨텍스트 수명 안에서)
func (c *Client) do(ctx context.Context, url string) (status int, retryAfter string, body []byte, err error) {
	ctx2, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx2, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, err
	}

	return resp.StatusCode, resp.Header.Get("Retry-After"), body, nil
}

// pageBody 는 upstream 응답의 wire 형태.
// data 외 최상위 필드는 meta.next / links.next 만 읽는다.
type pageBody struct {
	Data []model.RawEvent `json:"data"`
	Meta struct {
		Next string `json:"next"`
	} `json:"meta"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// decodePage 는 body를 PageResponse로 디코딩한다.
// 빈 body 또는 구문 오류는 (nil, false)로 알린다 — 에러가 아니다.
func decodePage(body []byte) (*PageResponse, bool) {
	if len(body) == 0 {
		return nil, false
	}

	var pb pageBody
	if err := json.Unmarshal(body, &pb); err != nil {
		return nil, false
	}

	return &PageResponse{
		Events:    pb.Data,
		MetaNext:  pb.Meta.Next,
		LinksNext: pb.Links.Next,
	}, true
}

// parseRetryAfter 는 Retry-After 헤더를 해석한다.
// "유효한 음이 아닌 정수(초)"일 때만 서버 제안값으로 인정한다.
func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
