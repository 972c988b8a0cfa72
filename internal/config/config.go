package config

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Playback PlaybackConfig `mapstructure:"playback"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"` // gin mode: debug, release, test
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// RedisConfig configures the playback session store. An empty Address keeps
// sessions in process memory.
type RedisConfig struct {
	Address    string        `mapstructure:"address"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"` // Duration string in YAML, e.g. "60m"
}

// PlaybackConfig holds the media used for breaks and the lifetime of the
// media URLs handed to players.
type PlaybackConfig struct {
	BreakVideo     string        `mapstructure:"break_video"`
	BreakThumb     string        `mapstructure:"break_thumb"`
	MediaURLExpiry time.Duration `mapstructure:"media_url_expiry"`
}

// LoadConfig reads configuration from path/config.yaml, a .env file in path,
// and environment variables, in increasing order of precedence.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return config, err
		}
		err = nil
	} else {
		log.Println("INFO: Loaded environment from .env")
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "coach_default")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", "6h")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("playback.break_video", "break/break.mp4")
	v.SetDefault("playback.break_thumb", "break/break.jpg")
	v.SetDefault("playback.media_url_expiry", "2h")

	err = v.ReadInConfig()
	// A missing config file is fine: env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return config, err
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, nil
}
