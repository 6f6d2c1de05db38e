// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config
//
// 수집기 실행 시 필요한 모든 환경 변수 값을 보관하는 구조체.
// 모든 값은 프로세스 시작 시점에 Load() 에 의해 초기화되며,
// 이후에는 변경되지 않는 불변(read-only) 설정들이다.
type Config struct {

	// ---------------------------
	// upstream API 접속 정보
	// ---------------------------

	OrgID    string // 조직 ID (events-stream 경로에 포함됨)
	APIToken string // Bearer 토큰 (사전 발급 전제, 갱신 흐름 없음)
	BaseURL  string // API base URL (예: https://api.atlassian.com/admin/v1/orgs)

	// ---------------------------
	// 수집 파라미터
	// ---------------------------

	PageSize       int           // 페이지당 이벤트 수 (limit 파라미터)
	MaxRetries     int           // 요청 재시도 한도 (429/transport 공용 카운터)
	RetryBase      time.Duration // 지수 backoff 기준값 (base * 2^(attempt-1))
	RequestTimeout time.Duration // 요청 1회당 timeout

	// ---------------------------
	// 로컬 저장
	// ---------------------------

	LogsDir string // 세션 로그(.log) 저장 디렉토리

	// ---------------------------
	// 로깅
	// ---------------------------

	LogLevel  string // zerolog 레벨 문자열 (debug/info/warn/error)
	LogPretty bool   // true면 컬러 콘솔 출력, false면 JSON

	// ---------------------------
	// S3 아카이브 (선택)
	// ---------------------------
	// Retry 정책 단일화
	// --------------------------------------------
	// AWS SDK v2 기본 retry는 상황에 따라 3회까지 수행되며,
	// 코드 레벨 retry 와 겹치면 예측 불가능한 처리 지연이 발생한다.
	//
	// → SDK Retry는 코드에서 0으로 고정한다.
	// → "재시도 횟수"는 오직 애플리케이션 레벨(ArchiveRetries)만 사용한다.
	// --------------------------------------------
	// ArchiveBucket이 비어있으면 아카이브 기능 전체가 비활성화된다.

	AWSRegion      string        // AWS 리전 (아카이브 사용 시 필수)
	ArchiveBucket  string        // 완료된 세션 로그를 업로드할 버킷 ("" = 비활성)
	ArchivePrefix  string        // S3 key prefix (예: audit)
	ArchiveTimeout time.Duration // PutObject 시도당 timeout
	ArchiveRetries int           // 업로드 재시도 횟수 (SDK retry는 항상 0)

	// ---------------------------
	// 로컬 pending 큐 (업로드 실패분 보관)
	// ---------------------------

	PendingDir          string        // 업로드 실패한 아카이브 보관 디렉토리
	PendingMaxAge       time.Duration // pending 파일 TTL (초과 시 삭제)
	PendingMaxSizeBytes int64         // pending 전체 허용 용량 (바이트)
}

// Load
//
// 환경 변수 기반으로 Config 값을 초기화한다.
// ORG_ID / API_TOKEN 이 비어있으면 즉시 프로세스를 종료(fail-fast).
// 나머지 키는 원본 운영값 기준의 기본값을 가진다.
func Load() Config {
	cfg := Config{
		OrgID:    must("ORG_ID"),
		APIToken: must("API_TOKEN"),
		BaseURL:  getenv("API_BASE_URL", "https://api.atlassian.com/admin/v1/orgs"),

		PageSize:       getenvInt("PAGE_SIZE", 500),
		MaxRetries:     getenvInt("MAX_RETRIES", 5),
		RetryBase:      time.Duration(getenvInt("RETRY_BASE_SECONDS", 3)) * time.Second,
		RequestTimeout: time.Duration(getenvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,

		LogsDir: getenv("LOGS_DIR", "./logs"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogPretty: getenvBool("LOG_PRETTY", true),

		AWSRegion:      os.Getenv("AWS_REGION"),
		ArchiveBucket:  os.Getenv("ARCHIVE_BUCKET"),
		ArchivePrefix:  getenv("ARCHIVE_PREFIX", "audit"),
		ArchiveTimeout: getenvDur("ARCHIVE_TIMEOUT", 5*time.Second),
		ArchiveRetries: getenvInt("ARCHIVE_RETRIES", 3),

		PendingDir:          getenv("PENDING_DIR", "./pending"),
		PendingMaxAge:       getenvDur("PENDING_MAX_AGE", 72*time.Hour),
		PendingMaxSizeBytes: getenvInt64("PENDING_MAX_SIZE_BYTES", 256*1024*1024),
	}

	// 아카이브를 켰는데 리전이 없으면 업로드가 전부 실패하므로 여기서 잡는다.
	if cfg.ArchiveBucket != "" && cfg.AWSRegion == "" {
		log.Fatalf("missing required env: AWS_REGION (required when ARCHIVE_BUCKET is set)")
	}

	return cfg
}

// must / getenv*
//
// 공통 패턴.
// 필수 환경변수가 없으면 즉시 로그 출력 후 종료(fail-fast).
// 선택 키는 기본값으로 대체하되, 형식이 잘못된 경우에도 종료한다.
// 런타임 중 설정 오류를 겪지 않도록 하기 위한 보호 전략.
func must(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required env: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int env %s=%q: %v", key, v, err)
	}
	return n
}

func getenvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid int64 env %s=%q: %v", key, v, err)
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid bool env %s=%q: %v", key, v, err)
	}
	return b
}

func getenvDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration env %s=%q: %v", key, v, err)
	}
	return d
}
