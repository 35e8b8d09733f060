package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	BindAddress string `mapstructure:"bind_address"`
	TLSDomains  string `mapstructure:"tls_domains"` // e.g. "example.com,example2.com"
	DebugMode   bool   `mapstructure:"debug_mode"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`

	// Enrollment
	KnownFacesDir   string `mapstructure:"known_faces_dir"`
	EnrollFromDB    bool   `mapstructure:"enroll_from_db"`
	EnrollMultiFace string `mapstructure:"enroll_multi_face"` // reject or first
	EnrollWorkers   int    `mapstructure:"enroll_workers"`
	RequireGallery  bool   `mapstructure:"require_gallery"`

	// Uploads and images
	UploadDir         string `mapstructure:"upload_dir"`
	TmpDir            string `mapstructure:"tmp_dir"` // Local scratch disk of S3 buckets, reported as their free space
	MaxUploadSize     int64  `mapstructure:"max_upload_size"` // Request body limit, 0 for none
	MaxImageDimension uint   `mapstructure:"max_image_dimension"` // 0 keeps the original size
	JPEGQuality       int    `mapstructure:"jpeg_quality"`

	// Face engine and matching
	FaceEngine                string        `mapstructure:"face_engine"` // dlib or remote
	FaceModelsDir             string        `mapstructure:"face_models_dir"`
	FaceDetectCNN             bool          `mapstructure:"face_detect_cnn"` // Much slower, supposedly more accurate at different angles
	FacePadding               float64       `mapstructure:"face_padding"`
	EmbeddingURL              string        `mapstructure:"embedding_url"`
	EmbeddingTimeout          time.Duration `mapstructure:"embedding_timeout"`
	FaceTolerance             float64       `mapstructure:"face_tolerance"`
	GalleryIndex              string        `mapstructure:"gallery_index"` // linear or hnsw
	ExpectedFaces             int           `mapstructure:"expected_faces"`
	MaxConcurrentRecognitions int64         `mapstructure:"max_concurrent_recognitions"`

	// Database. MySQL will be used if MYSQL_DSN is set, SQLite if only SQLITE_FILE is
	MySQLDSN   string `mapstructure:"mysql_dsn"`
	SQLiteFile string `mapstructure:"sqlite_file"`

	// S3 archive of uploads, used instead of UPLOAD_DIR when S3_BUCKET is set
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3Prefix    string `mapstructure:"s3_prefix"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`

	// Redis embedding cache
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPassword     string        `mapstructure:"redis_password"`
	RedisDB           int           `mapstructure:"redis_db"`
	EmbeddingCacheTTL time.Duration `mapstructure:"embedding_cache_ttl"`

	// MQTT result events
	MQTTBroker   string `mapstructure:"mqtt_broker"`
	MQTTClientID string `mapstructure:"mqtt_client_id"`
	MQTTTopic    string `mapstructure:"mqtt_topic"`
	MQTTUsername string `mapstructure:"mqtt_username"`
	MQTTPassword string `mapstructure:"mqtt_password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bind_address", "0.0.0.0:6000")
	v.SetDefault("tls_domains", "")
	v.SetDefault("debug_mode", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetDefault("known_faces_dir", "known_faces")
	v.SetDefault("enroll_from_db", false)
	v.SetDefault("enroll_multi_face", "reject")
	v.SetDefault("enroll_workers", 2)
	v.SetDefault("require_gallery", false)

	v.SetDefault("upload_dir", "uploaded_images")
	v.SetDefault("tmp_dir", "/tmp")
	v.SetDefault("max_upload_size", 32<<20)
	v.SetDefault("max_image_dimension", 1600)
	v.SetDefault("jpeg_quality", 90)

	v.SetDefault("face_engine", "dlib")
	v.SetDefault("face_models_dir", "models")
	v.SetDefault("face_detect_cnn", false)
	v.SetDefault("face_padding", 0.25)
	v.SetDefault("embedding_url", "http://localhost:8000")
	v.SetDefault("embedding_timeout", "30s")
	v.SetDefault("face_tolerance", 0.6)
	v.SetDefault("gallery_index", "linear")
	v.SetDefault("expected_faces", 2)
	v.SetDefault("max_concurrent_recognitions", runtime.NumCPU())

	v.SetDefault("mysql_dsn", "")
	v.SetDefault("sqlite_file", "")

	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_region", "")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_prefix", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("embedding_cache_ttl", "720h")

	v.SetDefault("mqtt_broker", "")
	v.SetDefault("mqtt_client_id", "idcheck")
	v.SetDefault("mqtt_topic", "idcheck/recognized")
	v.SetDefault("mqtt_username", "")
	v.SetDefault("mqtt_password", "")
}

// Load reads defaults, then the optional config file, then environment variables (e.g. BIND_ADDRESS).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Warnf("Config file %s does not exist, using defaults", configPath)
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Infof("Config loaded from %s", configPath)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.EnrollMultiFace = strings.ToLower(c.EnrollMultiFace)
	c.FaceEngine = strings.ToLower(c.FaceEngine)
	c.GalleryIndex = strings.ToLower(c.GalleryIndex)
	switch {
	case c.EnrollMultiFace != "reject" && c.EnrollMultiFace != "first":
		return fmt.Errorf("ENROLL_MULTI_FACE must be reject or first, got %q", c.EnrollMultiFace)
	case c.FaceEngine != "dlib" && c.FaceEngine != "remote":
		return fmt.Errorf("FACE_ENGINE must be dlib or remote, got %q", c.FaceEngine)
	case c.GalleryIndex != "linear" && c.GalleryIndex != "hnsw":
		return fmt.Errorf("GALLERY_INDEX must be linear or hnsw, got %q", c.GalleryIndex)
	case c.FaceTolerance < 0:
		return fmt.Errorf("FACE_TOLERANCE must not be negative, got %v", c.FaceTolerance)
	case c.ExpectedFaces < 1:
		return fmt.Errorf("EXPECTED_FACES must be at least 1, got %d", c.ExpectedFaces)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.EnrollWorkers < 1 {
		c.EnrollWorkers = 1
	}
	if c.MaxConcurrentRecognitions < 1 {
		c.MaxConcurrentRecognitions = 1
	}
	return nil
}

// GetTLSDomains splits TLS_DOMAINS, skipping empty entries.
func (c *Config) GetTLSDomains() []string {
	result := []string{}
	for _, d := range strings.Split(c.TLSDomains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			result = append(result, d)
		}
	}
	return result
}
