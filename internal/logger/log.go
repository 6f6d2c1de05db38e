// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"audit-collect/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init
//
// 애플리케이션 시작 시 한 번만 호출되는 로거 초기화 함수입니다.
// Config 설정(환경변수)에 따라 '개발자용 화면' 또는 '파이프라인용 JSON 로그'로
// 자동으로 형태를 바꾸어 설정합니다.
//
// [주요 기능]
//
//  1. 로그 포맷 자동 전환:
//     - 로컬 실행 (LOG_PRETTY=true): 컬러 텍스트로 출력 (가독성 위주)
//     - 배치/서버 실행 (LOG_PRETTY=false): JSON 포맷으로 출력 (검색/분석 위주)
//
//  2. 공통 필드 자동 추가:
//     - 모든 로그에 "service" 정보가 자동으로 붙습니다.
//     - 진행 상황(progress feed)과 달리 이 로그는 진단용이므로
//       수집 결과 해석에는 feed 쪽을 보면 됩니다.
//
// 사용 예:
//
//	logger.Init(cfg)
//	log.Info().Msg("수집을 시작합니다")
func Init(cfg config.Config) {

	// -------------------------------------------------------------------
	// 1) 로그 레벨 결정 (최소 출력 기준)
	// -------------------------------------------------------------------
	// 설정된 레벨보다 낮은 중요도의 로그는 아예 출력하지 않습니다.
	// 예: "info"로 설정하면 "debug" 로그는 무시됩니다.
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil {
		level = l
	}

	zerolog.SetGlobalLevel(level)

	// -------------------------------------------------------------------
	// 2) 출력 방식 결정 (사람 vs 기계)
	// -------------------------------------------------------------------
	var w io.Writer

	if cfg.LogPretty {
		// [로컬 실행]
		// 사람이 눈으로 터미널을 볼 때 편하도록 색상과 정렬을 적용합니다.
		// 진단 로그는 stderr로 보내 진행 상황 출력(stdout)과 섞이지 않게 합니다.
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		}
	} else {
		// [배치/자동화 실행]
		// 로그 수집 시스템이 분석하기 좋은 '표준 JSON' 포맷을 그대로 내보냅니다.
		w = os.Stderr
	}

	// -------------------------------------------------------------------
	// 3) 기본 Logger 생성 (공통 태그 부착)
	// -------------------------------------------------------------------
	zlog.Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "audit-collect").
		Logger()

	// Go 언어의 기본 라이브러리(log.Println 등)를 쓰더라도
	// 우리가 만든 zerolog 설정을 따르도록 연결해줍니다.
	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)
}
