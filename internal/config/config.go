// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// セッションミラーの保存先
const (
	SessionBackendRedis  = "redis"
	SessionBackendDB     = "db"
	SessionBackendMemory = "memory"
)

// データベースドライバー
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port           string // APIサーバーのポート番号
	GinMode        string // Ginの実行モード (debug, release, test)
	RequestTimeout time.Duration

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// セッション設定
	SessionSecret   string        // クッキー署名用の秘密鍵
	TokenSecret     string        // セッショントークン(JWT)署名用の秘密鍵
	SessionTTL      time.Duration // セッションの有効期間
	SessionBackend  string        // redis, db, memory
	SessionRedisURL string        // セッションミラー用Redis接続URL

	// 認証設定
	BcryptCost int

	// データベース設定
	DatabaseDriver string // sqlite, postgres
	DatabaseDSN    string

	// ジョブ/キュー設定
	QueueRedisURL string        // Asynq用Redis接続URL（空なら期限切れセッションの掃除は無効）
	SweepInterval time.Duration // 期限切れセッション掃除の間隔
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// セッション設定
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		TokenSecret:     getEnv("TOKEN_SECRET", ""),
		SessionTTL:      time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 7*24)) * time.Hour,
		SessionBackend:  getEnv("SESSION_BACKEND", SessionBackendRedis),
		SessionRedisURL: getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/0"),

		// 認証設定
		BcryptCost: getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),

		// データベース設定
		DatabaseDriver: getEnv("DATABASE_DRIVER", DriverSQLite),
		DatabaseDSN:    getEnv("DATABASE_DSN", "file:issuehub.db?cache=shared"),

		// ジョブ/キュー設定
		QueueRedisURL: getEnv("QUEUE_REDIS_URL", ""),
		SweepInterval: time.Duration(getEnvAsInt("SWEEP_INTERVAL_MINUTES", 30)) * time.Minute,
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// ローカル開発では秘密鍵を起動ごとに生成する（再起動でセッションは失効する）
	if config.SessionSecret == "" {
		config.SessionSecret = randomSecret()
	}
	if config.TokenSecret == "" {
		config.TokenSecret = randomSecret()
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendRedis, SessionBackendDB, SessionBackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of redis, db, memory: %q", c.SessionBackend)
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres: %q", c.DatabaseDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	// 本番環境では厳格にチェックする
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.TokenSecret == "" {
			return fmt.Errorf("TOKEN_SECRET is required in release mode")
		}
		if c.SessionBackend == SessionBackendMemory {
			return fmt.Errorf("SESSION_BACKEND=memory is not allowed in release mode")
		}
		if c.SessionBackend == SessionBackendRedis && c.SessionRedisURL == "" {
			return fmt.Errorf("SESSION_REDIS_URL is required in release mode")
		}
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required in release mode")
		}
	}

	return nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("config: failed to generate secret: %v", err))
	}
	return hex.EncodeToString(buf)
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
