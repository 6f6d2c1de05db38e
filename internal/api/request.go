// internal/api/request.go
package api

import (
	"net/url"
	"strconv"
	"strings"
)

// PageQuery
// ------------------------------------------------------------
// base URL에 붙여서 보내는 질의 상태.
// 최초 요청과 "opaque cursor" 후속 요청에서 사용된다.
type PageQuery struct {
	Limit  int    // 페이지당 이벤트 수
	From   int64  // 조회 구간 시작 (epoch ms)
	To     int64  // 조회 구간 끝 (epoch ms)
	Cursor string // 페이지네이션 토큰 ("" = 첫 페이지)
}

// PageRequest
// ------------------------------------------------------------
// 한 페이지를 가져오기 위한 논리적 요청.
// 두 가지 표현 중 정확히 하나만 활성화된다.
//
//   - Query == nil: URL이 limit/window/cursor를 모두 포함한
//     절대 URL이며, 추가 파라미터를 붙이지 않고 그대로 호출한다.
//     (upstream links.next가 완전한 URL을 주는 경우)
//   - Query != nil: URL은 events-stream base이고
//     Query를 인코딩해서 붙인다.
type PageRequest struct {
	URL   string
	Query *PageQuery
}

// EventsStreamURL 은 조직의 events-stream 엔드포인트 URL을 만든다.
//
//	{base}/{orgID}/events-stream
func EventsStreamURL(baseURL, orgID string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + orgID + "/events-stream"
}

// RequestURL 은 실제 HTTP 호출에 사용할 URL 문자열을 만든다.
// 절대 URL 표현이면 그대로 반환한다 (파라미터 추가 금지).
func (r PageRequest) RequestURL() (string, error) {
	if r.Query == nil {
		return r.URL, nil
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("limit", strconv.Itoa(r.Query.Limit))
	q.Set("from", strconv.FormatInt(r.Query.From, 10))
	q.Set("to", strconv.FormatInt(r.Query.To, 10))
	if r.Query.Cursor != "" {
		q.Set("cursor", r.Query.Cursor)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
