package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Bucket  BucketConfig
	App     AppConfig
	Storage StorageConfig
}

type BucketConfig struct {
	URL         string
	Prefix      string
	HTTPTimeout time.Duration
}

type AppConfig struct {
	DownloadDir    string
	ArchiveName    string
	LogLevel       string
	ExtractWorkers int
	Validate       bool
	RowKey         string
	XLSXOutput     string
}

type StorageConfig struct {
	Backend   string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		setDefaults(v)
		v.AutomaticEnv()

		instance = fromViper(v)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BUCKET_URL", "")
	v.SetDefault("S3_PREFIX", "")
	v.SetDefault("HTTP_TIMEOUT", "0s")
	v.SetDefault("DOWNLOAD_DIR", "./")
	v.SetDefault("ARCHIVE_NAME", "MNZIRS0108.zip")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("EXTRACT_WORKERS", 4)
	v.SetDefault("VALIDATE_RECORDS", false)
	v.SetDefault("ROW_KEY", "")
	v.SetDefault("XLSX_OUTPUT", "")
	v.SetDefault("STORAGE_BACKEND", "http")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Bucket: BucketConfig{
			URL:         v.GetString("BUCKET_URL"),
			Prefix:      v.GetString("S3_PREFIX"),
			HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),
		},
		App: AppConfig{
			DownloadDir:    v.GetString("DOWNLOAD_DIR"),
			ArchiveName:    v.GetString("ARCHIVE_NAME"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			ExtractWorkers: v.GetInt("EXTRACT_WORKERS"),
			Validate:       v.GetBool("VALIDATE_RECORDS"),
			RowKey:         v.GetString("ROW_KEY"),
			XLSXOutput:     v.GetString("XLSX_OUTPUT"),
		},
		Storage: StorageConfig{
			Backend:   v.GetString("STORAGE_BACKEND"),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
	}
}
