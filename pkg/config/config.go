package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the process needs. It is loaded once in main and
// handed to the components that need it; nothing below main reads the
// environment on its own.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	Media  MediaConfig
	Sweep  SweepConfig
}

type ServerConfig struct {
	Addr string
}

type DBConfig struct {
	// DSN is a Postgres DSN. When empty the server falls back to a local
	// SQLite file, which is what development and the test suite use.
	DSN         string
	SQLitePath  string
	AutoMigrate bool
}

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type MediaConfig struct {
	// Root is the base directory holding one subdirectory per image asset.
	Root           string
	MaxUploadBytes int64
	LargeMax       int
	SmallMax       int
	JPEGQuality    int
	ThumbQuality   int
}

type SweepConfig struct {
	Interval time.Duration
	Grace    time.Duration
}

func Load() (*Config, error) {
	viper.SetDefault("SERVER_ADDR", ":8081")
	viper.SetDefault("DB_DSN", "")
	viper.SetDefault("DB_SQLITE_PATH", "duet.db")
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("JWT_SECRET", "dev-insecure-secret-change")
	viper.SetDefault("AUTH_ACCESS_TTL", 24*time.Hour)
	viper.SetDefault("AUTH_REFRESH_TTL", 30*24*time.Hour)
	viper.SetDefault("MEDIA_ROOT", "media")
	viper.SetDefault("MEDIA_MAX_UPLOAD_BYTES", int64(15*1024*1024))
	viper.SetDefault("MEDIA_LARGE_MAX", 400)
	viper.SetDefault("MEDIA_SMALL_MAX", 200)
	viper.SetDefault("MEDIA_JPEG_QUALITY", 85)
	viper.SetDefault("MEDIA_THUMB_QUALITY", 75)
	viper.SetDefault("SWEEP_INTERVAL", time.Hour)
	viper.SetDefault("SWEEP_GRACE", time.Hour)

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Addr: viper.GetString("SERVER_ADDR"),
		},
		DB: DBConfig{
			DSN:         viper.GetString("DB_DSN"),
			SQLitePath:  viper.GetString("DB_SQLITE_PATH"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			JWTSecret:  viper.GetString("JWT_SECRET"),
			AccessTTL:  viper.GetDuration("AUTH_ACCESS_TTL"),
			RefreshTTL: viper.GetDuration("AUTH_REFRESH_TTL"),
		},
		Media: MediaConfig{
			Root:           viper.GetString("MEDIA_ROOT"),
			MaxUploadBytes: viper.GetInt64("MEDIA_MAX_UPLOAD_BYTES"),
			LargeMax:       viper.GetInt("MEDIA_LARGE_MAX"),
			SmallMax:       viper.GetInt("MEDIA_SMALL_MAX"),
			JPEGQuality:    viper.GetInt("MEDIA_JPEG_QUALITY"),
			ThumbQuality:   viper.GetInt("MEDIA_THUMB_QUALITY"),
		},
		Sweep: SweepConfig{
			Interval: viper.GetDuration("SWEEP_INTERVAL"),
			Grace:    viper.GetDuration("SWEEP_GRACE"),
		},
	}

	if err := os.MkdirAll(cfg.Media.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media root %s: %w", cfg.Media.Root, err)
	}

	return cfg, nil
}
