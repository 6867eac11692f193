// 환경변수 기반 설정 로더
//
// 로드 순서:
//  1. .env 파일 (있으면) → godotenv
//  2. 환경변수 + 기본값 → viper
//  3. validate 태그 검증 → validator
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Postgres    PostgresConfig
	Agent       AgentConfig
	Vercel      VercelConfig
	GitHub      GitHubConfig
	Auth        AuthConfig
	Embedding   EmbeddingConfig
	Remediation RemediationConfig
	Log         LogConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Port string `validate:"required"`
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type AgentConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
	// Analysis.llm_model 컬럼에 기록되는 모델 식별자
	Model string
}

type VercelConfig struct {
	Token         string
	APIURL        string `validate:"required,url"`
	WebhookSecret string
}

type GitHubConfig struct {
	// 비어 있으면 github.com 공개 API 사용
	APIURL string
}

type AuthConfig struct {
	JWTSecret string `validate:"required"`
}

type EmbeddingConfig struct {
	APIKey string
	Model  string
}

type RemediationConfig struct {
	// 자동 수정 커밋에 붙는 예약 태그 (원인 후보에서 제외)
	CommitTag    string `validate:"required"`
	BranchPrefix string `validate:"required"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

func Load() (Config, error) {
	// .env는 로컬 개발용, 없으면 무시
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        v.GetString("PGHOST"),
			Port:        v.GetString("PGPORT"),
			User:        v.GetString("PGUSER"),
			Password:    v.GetString("PGPASSWORD"),
			Database:    v.GetString("PGDATABASE"),
			SSLMode:     v.GetString("PGSSLMODE"),
		},
		Agent: AgentConfig{
			BaseURL: v.GetString("AGENT_URL"),
			Timeout: v.GetDuration("AGENT_TIMEOUT"),
			Model:   v.GetString("AGENT_MODEL"),
		},
		Vercel: VercelConfig{
			Token:         v.GetString("VERCEL_TOKEN"),
			APIURL:        v.GetString("VERCEL_API_URL"),
			WebhookSecret: v.GetString("VERCEL_WEBHOOK_SECRET"),
		},
		GitHub: GitHubConfig{
			APIURL: v.GetString("GITHUB_API_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Embedding: EmbeddingConfig{
			APIKey: v.GetString("AI_API_KEY"),
			Model:  v.GetString("EMBEDDING_MODEL"),
		},
		Remediation: RemediationConfig{
			CommitTag:    v.GetString("COMMIT_TAG"),
			BranchPrefix: v.GetString("BRANCH_PREFIX"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("PGHOST", "localhost")
	v.SetDefault("PGPORT", "5432")
	v.SetDefault("PGSSLMODE", "disable")
	v.SetDefault("AGENT_URL", "http://sanos-agent:8000")
	v.SetDefault("AGENT_TIMEOUT", 10*time.Minute)
	v.SetDefault("AGENT_MODEL", "anthropic/claude-sonnet-4-20250514")
	v.SetDefault("VERCEL_API_URL", "https://api.vercel.com")
	v.SetDefault("EMBEDDING_MODEL", "text-embedding-004")
	v.SetDefault("COMMIT_TAG", "[Sanos]")
	v.SetDefault("BRANCH_PREFIX", "sanos")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
