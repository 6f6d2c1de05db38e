// internal/archive/archiver.go
package archive

import (
	"context"
	"fmt"
	"sync/atomic"

	"audit-collect/internal/config"
	"audit-collect/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Notifier 는 진행 상황 한 줄을 외부 관찰자에게 전달한다 (collector.Feed).
type Notifier interface {
	Publish(msg string)
}

// Archiver
// ------------------------------------------------------------
// Done으로 끝난 세션 로그를 gzip으로 인코딩해 S3 파티션에 올린다.
// ARCHIVE_BUCKET이 비어있으면 전체 기능이 비활성화된다.
//
// 아카이브는 세션의 최종 상태에 영향을 주지 않는다:
// 업로드가 끝내 실패해도 로컬 로그는 남고,
// gzip 사본은 pending 큐에 들어가 다음 실행 때 재시도된다.
type Archiver struct {
	cfg      config.Config
	metrics  *metrics.Metrics
	feed     Notifier
	uploader *Uploader
	pending  *PendingQueue
}

// New 는 Archiver를 생성한다. 비활성(bucket 미설정)이면 nil을 반환하며,
// caller는 Enabled 체크 대신 nil 체크를 해도 된다.
func New(cfg config.Config, m *metrics.Metrics, feed Notifier) *Archiver {
	if cfg.ArchiveBucket == "" {
		return nil
	}

	uploader := NewUploader(cfg, m)
	return &Archiver{
		cfg:      cfg,
		metrics:  m,
		feed:     feed,
		uploader: uploader,
		pending:  NewPendingQueue(cfg, m, uploader),
	}
}

// Enabled 는 아카이브 활성 여부를 반환한다.
func (a *Archiver) Enabled() bool {
	return a != nil
}

// ArchiveSession 은 완료된 세션 로그 1개를 업로드한다.
//  1. 이전 실행에서 남은 pending 파일 재업로드 (starvation 방지, 최대 3건)
//  2. 로그 파일 gzip 인코딩
//  3. S3 업로드 (실패 시 pending 저장)
func (a *Archiver) ArchiveSession(ctx context.Context, logPath, session string) error {
	if !a.Enabled() {
		return nil
	}

	// --- 1) pending 선처리 ---
	for i := 0; i < 3; i++ {
		a.pending.ProcessOneCtx(ctx)
	}

	// --- 2) gzip 인코딩 ---
	data, err := EncodeFileGZ(logPath)
	if err != nil {
		a.feed.Publish(fmt.Sprintf("[에러] 아카이브 인코딩 실패: %v", err))
		log.Error().Err(err).Str("path", logPath).Msg("archive encode failed")
		return err
	}

	// --- 3) S3 업로드 ---
	name := NewFilename(session)
	key := BuildKey(a.cfg.ArchivePrefix, name)

	if err := a.uploader.UploadBytesWithRetryCtx(ctx, key, data); err != nil {
		// 업로드 실패 → pending 저장. 로컬 로그는 어차피 남아 있으므로
		// 여기서 세션을 실패로 바꾸지 않는다.
		if err2 := a.pending.Save(data, session); err2 != nil {
			log.Error().Err(err2).Msg("pending save failed")
		}
		a.feed.Publish(fmt.Sprintf("[경고] S3 업로드 실패, pending 보관: %v", err))
		return err
	}

	atomic.AddInt64(&a.metrics.ArchiveUploadsTotal, 1)
	a.feed.Publish(fmt.Sprintf("아카이브 업로드 완료: s3://%s/%s", a.cfg.ArchiveBucket, key))
	log.Info().Str("key", key).Str("session", session).Msg("archive uploaded")

	return nil
}
