// internal/api/cursor.go
package api

import (
	"strings"

	"audit-collect/internal/model"
)

// PageResponse
// ------------------------------------------------------------
// 디코딩된 한 페이지 분량의 응답.
// MetaNext / LinksNext 는 upstream 응답의 meta.next / links.next 값이며,
// 커서 해석은 ResolveNext 가 담당한다.
type PageResponse struct {
	Events    []model.RawEvent
	MetaNext  string
	LinksNext string
}

// NextToken 은 다음 페이지 토큰을 반환한다.
// 우선순위: meta.next → links.next → "" (소진).
func (p *PageResponse) NextToken() string {
	if p.MetaNext != "" {
		return p.MetaNext
	}
	return p.LinksNext
}

// ResolveNext 는 응답에서 다음 페이지 요청을 만든다.
// 반환이 nil이면 더 가져올 페이지가 없다는 뜻이다.
//
//   - 토큰이 http(s) 스킴으로 시작하면 이미 limit/window/cursor가
//     모두 인코딩된 절대 URL이므로 그대로 사용한다.
//   - 그 외에는 opaque cursor 값으로 보고, "최초 요청"의 base URL과
//     window/limit에 cursor만 더해 재구성한다.
//
// initial 은 항상 세션 최초의 PageRequest여야 한다. 절대 URL을
// 따라간 다음 페이지에서도 재구성 기준은 최초 요청의 질의 상태다.
func ResolveNext(p *PageResponse, initial PageRequest) *PageRequest {
	token := p.NextToken()
	if token == "" {
		return nil
	}

	if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
		return &PageRequest{URL: token}
	}

	q := *initial.Query
	q.Cursor = token
	return &PageRequest{URL: initial.URL, Query: &q}
}
