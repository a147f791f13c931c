package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverMinio = "minio"
	StorageDriverS3    = "s3"
)

type Settings struct {
	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ServerPort      int

	StorageDriver string
	Bucket        string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	S3Region    string
	S3AccessKey string
	S3SecretKey string

	UploadURLTTL time.Duration
	CommitGrace  time.Duration
	SweepGrace   time.Duration

	RedisAddr     string
	RedisPassword string

	JWTPublicKey string
	JWTIssuer    string
	JWTAudience  string
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	viper.SetDefault("STORAGE_DRIVER", StorageDriverMinio)
	viper.SetDefault("UPLOAD_URL_TTL", 3600)
	viper.SetDefault("COMMIT_GRACE", 3600)
	viper.SetDefault("SWEEP_GRACE", 86400)
	viper.SetDefault("JWT_ISSUER", "core")
	viper.SetDefault("JWT_AUDIENCE", "uploads")

	for _, key := range []string{
		"MARIADB_DSN",
		"MARIADB_MAX_OPEN_CONN",
		"MARIADB_MAX_IDLE_CONNS",
		"MARIADB_CONN_MAX_LIFETIME",
		"SERVER_PORT",
		"STORAGE_BUCKET",
	} {
		if !viper.IsSet(key) {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	driver := viper.GetString("STORAGE_DRIVER")
	switch driver {
	case StorageDriverMinio:
		for _, key := range []string{"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY"} {
			if !viper.IsSet(key) {
				return nil, fmt.Errorf("%s is required", key)
			}
		}
	case StorageDriverS3:
		if !viper.IsSet("S3_REGION") {
			return nil, fmt.Errorf("S3_REGION is required")
		}
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER %q is not supported", driver)
	}

	ttl := viper.GetInt("UPLOAD_URL_TTL")
	if ttl <= 0 {
		return nil, fmt.Errorf("UPLOAD_URL_TTL must be positive")
	}

	return &Settings{
		MariaDBDSN:      viper.GetString("MARIADB_DSN"),
		MaxOpenConns:    viper.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:    viper.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: time.Duration(viper.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,
		ServerPort:      viper.GetInt("SERVER_PORT"),

		StorageDriver: driver,
		Bucket:        viper.GetString("STORAGE_BUCKET"),

		MinioEndpoint:  viper.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: viper.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: viper.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:    viper.GetBool("MINIO_USE_SSL"),

		S3Region:    viper.GetString("S3_REGION"),
		S3AccessKey: viper.GetString("S3_ACCESS_KEY"),
		S3SecretKey: viper.GetString("S3_SECRET_KEY"),

		UploadURLTTL: time.Duration(ttl) * time.Second,
		CommitGrace:  time.Duration(viper.GetInt("COMMIT_GRACE")) * time.Second,
		SweepGrace:   time.Duration(viper.GetInt("SWEEP_GRACE")) * time.Second,

		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		JWTPublicKey: viper.GetString("JWT_PUBLIC_KEY"),
		JWTIssuer:    viper.GetString("JWT_ISSUER"),
		JWTAudience:  viper.GetString("JWT_AUDIENCE"),
	}, nil
}
