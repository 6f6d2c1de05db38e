// internal/archive/encoder.go
package archive

import (
	"bytes"
	"io"
	"os"

	"audit-collect/internal/pool"

	"github.com/klauspost/compress/gzip"
)

// EncodeFileGZ 는 완료된 세션 로그 파일을 통째로 gzip 인코딩한다.
//
// 특징:
//   - gzip.Writer + bytes.Buffer 재사용(pool 기반, BestSpeed)
//   - 결과는 최종적으로 새로운 []byte 로 복사해 호출자에게 소유권을 넘김
//     (pool 버퍼를 그대로 반환하면 데이터 corruption 위험)
//
// 로그 파일은 이미 JSONL이므로 압축 결과(.log.gz)는
// 그대로 S3 파티션에 올릴 수 있는 형태가 된다.
func EncodeFileGZ(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := pool.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	gz := pool.GzipPool.Get().(*gzip.Writer)
	gz.Reset(buf)

	if _, err := io.Copy(gz, f); err != nil {
		_ = gz.Close()
		pool.GzipPool.Put(gz)
		pool.PutBuffer(buf)
		return nil, err
	}

	// Close() 시 gzip footer가 기록되며 압축 스트림이 완성됨
	if err := gz.Close(); err != nil {
		pool.GzipPool.Put(gz)
		pool.PutBuffer(buf)
		return nil, err
	}
	pool.GzipPool.Put(gz)

	// caller 소유의 새로운 slice로 복사 후 pool 반환
	raw := buf.Bytes()
	data := make([]byte, len(raw))
	copy(data, raw)

	pool.PutBuffer(buf)

	return data, nil
}
