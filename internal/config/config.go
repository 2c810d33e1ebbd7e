// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// セッションストアの種類
const (
	SessionStoreRedis  = "redis"
	SessionStoreCookie = "cookie"
)

// データベースドライバーの種類
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// アプリケーション設定
	AppName string // 画面タイトルに使うアプリ名

	// サーバー設定
	Port     string // HTTPサーバーのポート番号
	GinMode  string // Ginの実行モード (debug, release, test)
	LogLevel string // zerolog のログレベル

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り、空なら無効）

	// セッション設定
	SessionSecret        string // セッションCookie署名用の秘密鍵
	SessionStore         string // redis または cookie
	RedisURL             string // セッション保存用Redis接続URL
	SessionMaxAgeMinutes int    // ログインからの最大有効期間（分）
	SessionIdleMinutes   int    // 無操作でセッションを失効させるまでの時間（分）

	// パスワードハッシュ設定
	BcryptCost int

	// データベース設定
	DatabaseDriver string // sqlite または postgres
	DatabaseDSN    string // SQLite はファイルパス、PostgreSQL は接続文字列
	DatabaseLogSQL bool   // SQLログを出力するか
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		AppName: getEnv("APP_NAME", "basic-auth"),

		// サーバー設定
		Port:     getEnv("PORT", "3000"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		// セッション設定
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionStore:         getEnv("SESSION_STORE", SessionStoreRedis),
		RedisURL:             getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		SessionMaxAgeMinutes: getEnvAsInt("SESSION_MAX_AGE_MINUTES", 12*60),
		SessionIdleMinutes:   getEnvAsInt("SESSION_IDLE_MINUTES", 30),

		BcryptCost: getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),

		// データベース設定
		DatabaseDriver: getEnv("DATABASE_DRIVER", DatabaseSQLite),
		DatabaseDSN:    getEnv("DATABASE_DSN", "./data/basic-auth.db"),
		DatabaseLogSQL: getEnvAsBool("DATABASE_LOG_SQL", false),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
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
	switch c.SessionStore {
	case SessionStoreRedis, SessionStoreCookie:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreRedis, SessionStoreCookie, c.SessionStore)
	}

	switch c.DatabaseDriver {
	case DatabaseSQLite, DatabasePostgres:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DatabaseSQLite, DatabasePostgres, c.DatabaseDriver)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.SessionMaxAgeMinutes <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE_MINUTES must be positive")
	}
	if c.SessionIdleMinutes <= 0 {
		return fmt.Errorf("SESSION_IDLE_MINUTES must be positive")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.SessionStore == SessionStoreRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
	}

	// ローカル開発ではセッション鍵は任意（起動時に一時鍵を生成する）
	if c.IsRelease() {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in release mode")
		}
	}

	return nil
}

// IsRelease は release モードで動作しているかを返します。
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// AllowedOrigins は CORS_ALLOWED_ORIGINS を空要素を除いて分割します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
