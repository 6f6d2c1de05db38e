package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audit-collect/internal/archive"
	"audit-collect/internal/collector"
	"audit-collect/internal/config"
	"audit-collect/internal/export"
	"audit-collect/internal/logger"
	"audit-collect/internal/metrics"
	"audit-collect/internal/model"
	"audit-collect/internal/timeutil"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// 수집기 CLI 쉘.
//
// 코어(수집 엔진) 입장에서 이 파일은 "외부 협력자"다:
//   - CollectionRequest(세션 이름 + 날짜 구간)를 공급하고
//   - 진행 알림 큐(Feed)를 주기적으로 비워 화면에 그린다
//
// 코어는 전용 worker goroutine에서 돌기 때문에
// 네트워크 대기나 backoff sleep 동안에도 진행 출력이 멈추지 않는다.
func main() {

	// ====================================================================
	// 입력 파라미터
	// ====================================================================
	//
	// 세션 이름과 날짜 구간(YYYY-MM-DD)은 필수.
	// 날짜는 KST(UTC+9) 기준 하루의 시작/끝으로 확장되어
	// epoch 밀리초 window가 된다.
	// ====================================================================
	var (
		name    = flag.String("name", "", "세션 이름 (로그 파일명, 필수)")
		from    = flag.String("from", "", "시작 날짜 YYYY-MM-DD (필수)")
		to      = flag.String("to", "", "종료 날짜 YYYY-MM-DD (필수)")
		csvOut  = flag.Bool("csv", false, "수집 완료 후 .csv로 내보내기")
		csvPath = flag.String("csv-path", "", "csv 출력 경로 (기본: 로그와 같은 위치, 확장자만 교체)")
	)
	flag.Parse()

	if *name == "" || *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "usage: collector -name <session> -from YYYY-MM-DD -to YYYY-MM-DD [-csv]")
		os.Exit(2)
	}
	sessionName := strings.TrimSuffix(*name, ".log")

	// ====================================================================
	// Config & Logger 초기화
	// ====================================================================
	//
	// .env가 있으면 먼저 읽는다 (없어도 에러 아님).
	// ORG_ID / API_TOKEN 이 없으면 Load()가 fail-fast로 종료한다.
	// ====================================================================
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg)

	if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.LogsDir).Msg("failed to create logs dir")
	}

	// 날짜 → KST 기준 epoch ms window
	startMS, endMS, err := timeutil.DayWindow(*from, *to)
	if err != nil {
		log.Fatal().Err(err).Msg("날짜는 YYYY-MM-DD 형식으로 입력해주세요")
	}

	req := model.CollectionRequest{
		SessionName:   sessionName,
		WindowStartMS: startMS,
		WindowEndMS:   endMS,
	}

	// ====================================================================
	// 수집 세션 시작
	// ====================================================================
	//
	// Runner는 worker goroutine을 소유하며 동시에 1개 세션만 허용한다.
	// 진행 알림은 Feed에 쌓이고, 아래 polling 루프가 주기적으로 비운다.
	// ====================================================================
	m := metrics.New()
	feed := collector.NewFeed()
	runner := collector.NewRunner(cfg, m, feed)

	ctx := context.Background()

	if err := runner.Start(ctx, req); err != nil {
		log.Fatal().Err(err).Msg("failed to start collection")
	}
	feed.Publish("백그라운드 수집 작업이 시작되었습니다.")

	// ====================================================================
	// 진행 알림 polling (200ms 간격)
	// ====================================================================
	done := make(chan struct{})
	go func() {
		runner.Wait()
		close(done)
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

poll:
	for {
		select {
		case <-done:
			break poll
		case <-ticker.C:
			printNotices(feed)
		}
	}

	// 종료 직전에 쌓인 알림까지 전부 출력
	printNotices(feed)

	res := runner.Wait()
	if res.Err != nil {
		log.Debug().Msg("metrics:\n" + m.String())
		os.Exit(1)
	}

	// ====================================================================
	// 후처리: CSV 내보내기 / S3 아카이브 (둘 다 선택)
	// ====================================================================
	if *csvOut {
		dst := *csvPath
		if dst == "" {
			dst = strings.TrimSuffix(res.LogPath, filepath.Ext(res.LogPath)) + ".csv"
		}

		cnt, err := export.ToCSV(res.LogPath, dst)
		if err != nil {
			log.Error().Err(err).Msg("CSV 변환 실패")
			os.Exit(1)
		}
		fmt.Printf("CSV로 내보내기 완료: %s (레코드 %d)\n", dst, cnt)
	}

	if arch := archive.New(cfg, m, feed); arch.Enabled() {
		if err := arch.ArchiveSession(ctx, res.LogPath, sessionName); err != nil {
			// 아카이브 실패는 세션 결과를 바꾸지 않는다 (pending에 보관됨)
			log.Warn().Err(err).Msg("archive failed, kept in pending")
		}
		printNotices(feed)
	}

	log.Debug().Msg("metrics:\n" + m.String())
}

// printNotices 는 Feed에 쌓인 알림을 도착 순서 그대로,
// 타임스탬프를 붙여 stdout에 그린다.
func printNotices(feed *collector.Feed) {
	for _, n := range feed.Drain() {
		fmt.Printf("[%s] %s\n", n.At.Format("2006-01-02 15:04:05"), n.Msg)
	}
}
