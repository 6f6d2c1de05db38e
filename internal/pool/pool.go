package pool

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// ---------------------------------------------------------------
// Pool 구성 목적
//
// 수집기는 레코드 단위로 JSON 직렬화를 반복하고,
// 세션 종료 시에는 로그 파일 전체를 gzip으로 인코딩한다.
// 아래 Pool들은 "GC 줄이기, 메모리 재사용" 목적.
// ---------------------------------------------------------------

var (
	// LinePool:
	//   - 레코드 1건을 JSON 한 줄로 직렬화할 때 쓰는 버퍼
	//   - 초기 용량 1KB (평탄화된 audit 레코드는 대부분 여기에 수용됨)
	LinePool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 1024))
		},
	}

	// BufferPool:
	//   - gzip 인코딩 결과를 담는 임시 버퍼
	//   - 초기 용량 256KB (일반적인 세션 로그 크기에 최적화)
	//   - 1MB 초과 버퍼는 메모리 폭주 방지를 위해 풀에 넣지 않음
	BufferPool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 256*1024))
		},
	}

	// GzipPool:
	//   - gzip.Writer 재사용 (매번 new 하면 비용 매우 큼)
	//   - BestSpeed 옵션: 아카이브는 속도 우선 전략
	GzipPool = sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
			return w
		},
	}
)

// Pool에 되돌려줄 최대 버퍼 용량
// 이보다 큰 버퍼는 Pool에 넣지 않고 GC에게 위임해
// 메모리 폭발을 예방.
const MaxBufferCap = 1 * 1024 * 1024 // 1MB

// PutLine:
//   - 직렬화 버퍼 반환. 크기 제한은 MaxBufferCap과 동일 기준.
func PutLine(buf *bytes.Buffer) {
	if buf.Cap() <= MaxBufferCap {
		buf.Reset()
		LinePool.Put(buf)
	}
}

// PutBuffer:
//   - gzip 결과 버퍼 반환
//   - 1MB 이하이면 풀에 재사용
//   - 초대형 로그의 gzip 결과는 풀로 돌리지 않음 → 메모리 안정화 목적
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= MaxBufferCap {
		buf.Reset()
		BufferPool.Put(buf)
	}
}
