// Package config はアプリケーションの実行時設定を提供します。
package config

import (
	"github.com/spf13/viper"
)

// Config はすべての設定値を保持します。
// .env ファイルまたは環境変数から読み込まれます。
type Config struct {
	ServerPort      string `mapstructure:"SERVER_PORT"`
	DatabasePath    string `mapstructure:"DATABASE_PATH"`
	LogDir          string `mapstructure:"LOG_DIR"`
	CORSOrigin      string `mapstructure:"CORS_ORIGIN"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`
	FrontendURL     string `mapstructure:"FRONTEND_URL"`

	// パスワードリセットメール送信用のSMTP設定
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
}

// Load は指定されたディレクトリの .env と環境変数から設定を読み込みます。
// .env が存在しない場合は環境変数とデフォルト値のみで動作します。
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_PATH", "tasks.db")
	viper.SetDefault("LOG_DIR", "logs")
	viper.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	viper.SetDefault("SESSION_TTL_HOURS", 720)
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("SMTP_HOST", "sandbox.smtp.mailtrap.io")
	viper.SetDefault("SMTP_PORT", "2525")
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASSWORD", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
