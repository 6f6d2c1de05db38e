// internal/archive/uploader.go
package archive

import (
	"bytes"
	"context"
	"io"
	"log"
	"sync/atomic"
	"time"

	"audit-collect/internal/config"
	"audit-collect/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader는 아카이브 S3 업로드를 담당하는 구성 요소이다.
// - 메모리 내 gzip 바이트 업로드 (UploadBytesWithRetryCtx)
// - 로컬 pending 파일 업로드 (UploadFileWithRetryCtx)
// - 내부적으로 AWS SDK v2 client 사용
//
// 모든 업로드는 컨텍스트 기반(timeout + cancel-safe)으로 이루어지며,
// 재시도(backoff) 로직을 포함한다.
type Uploader struct {
	cfg     config.Config
	metrics *metrics.Metrics
	client  *s3.Client
}

// NewUploader는 AWS SDK Config를 초기화하고 S3 client를 생성한다.
func NewUploader(cfg config.Config, m *metrics.Metrics) *Uploader {
	return &Uploader{
		cfg:     cfg,
		metrics: m,
		client:  newS3Client(cfg),
	}
}

// newS3Client는 AWS 리전과 Retry 설정 등 기본 옵션을 로드한다.
// 실패 시 fatal 로그 후 즉시 종료한다 (아카이브 활성 시에만 호출됨).
func newS3Client(cfg config.Config) *s3.Client {
	awsCfg, err := awsCfgLib.LoadDefaultConfig(
		context.TODO(),
		awsCfgLib.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		log.Fatalf("[FATAL] failed to load AWS config: %v", err)
	}

	// SDK 자체 retry는 끄고 재시도는 애플리케이션 레벨로 단일화한다.
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 0
	})

	return client
}

// UploadBytesWithRetryCtx
// -----------------------
// 메모리에 이미 존재하는 gzip 바이트 배열을 S3로 업로드한다.
// - 각 업로드는 ArchiveTimeout timeout
// - retry + exponential backoff 포함
// - ctx.Done() 시 즉시 중단
//
// body는 매 재시도마다 reader를 새로 만들어야 하므로 bytes.NewReader 사용.
func (u *Uploader) UploadBytesWithRetryCtx(
	ctx context.Context,
	key string,
	body []byte,
) error {

	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 1; attempt <= u.cfg.ArchiveRetries; attempt++ {

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reader := bytes.NewReader(body)

		if err := u.putObject(ctx, key, reader, int64(len(body))); err == nil {
			return nil
		} else {
			lastErr = err
			atomic.AddInt64(&u.metrics.ArchivePutErrorsTotal, 1)
		}

		// backoff 적용 (최대 2초)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 2*time.Second {
				backoff = 2 * time.Second
			}
		}
	}

	return lastErr
}

// UploadFileWithRetryCtx
// -----------------------
// 로컬 pending에 저장된 파일을 그대로 S3로 업로드할 때 사용한다.
// - io.ReadSeeker를 사용하여 retry 시 Seek(0)으로 rewind 가능
// - retry/backoff 동일 적용
// - 파일 크기는 caller에서 받아 전달한다.
func (u *Uploader) UploadFileWithRetryCtx(
	ctx context.Context,
	key string,
	f io.ReadSeeker,
	size int64,
) error {

	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 1; attempt <= u.cfg.ArchiveRetries; attempt++ {

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := u.putObject(ctx, key, f, size); err == nil {
			return nil
		} else {
			lastErr = err
			atomic.AddInt64(&u.metrics.ArchivePutErrorsTotal, 1)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 2*time.Second {
				backoff = 2 * time.Second
			}
		}

		// retry 시 파일 포인터를 처음으로 되돌린다 (반드시 필요)
		f.Seek(0, io.SeekStart)
	}

	return lastErr
}

// putObject
// ---------
// 실제 AWS S3 PutObject 호출을 수행한다.
// - retries는 caller에서 제어하며 여기서는 1회 호출만 담당
// - 각 호출은 컨텍스트 기반 ArchiveTimeout을 가진다
func (u *Uploader) putObject(
	ctx context.Context,
	key string,
	body io.Reader,
	size int64,
) error {

	ctx2, cancel := context.WithTimeout(ctx, u.cfg.ArchiveTimeout)
	defer cancel()

	_, err := u.client.PutObject(ctx2, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.ArchiveBucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})

	return err
}
