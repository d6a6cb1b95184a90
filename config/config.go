package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreFile     = "file"
	StoreBolt     = "bolt"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	AzureAPIKey        string   `yaml:"azure_api_key"`
	AzureEndpoint      string   `yaml:"azure_endpoint"`
	DeploymentName     string   `yaml:"deployment_name"`
	APIVersion         string   `yaml:"api_version"`
	Port               int      `yaml:"port"`
	StaticDir          string   `yaml:"static_dir"`
	UploadDir          string   `yaml:"upload_dir"`
	UploadNaming       string   `yaml:"upload_naming"`
	MaxUploadMB        int      `yaml:"max_upload_mb"`
	StoreBackend       string   `yaml:"store_backend"`
	StorePath          string   `yaml:"store_path"`
	DatabaseURL        string   `yaml:"database_url"`
	MongoURI           string   `yaml:"mongo_uri"`
	MongoDatabase      string   `yaml:"mongo_database"`
	KafkaBroker        string   `yaml:"kafka_broker"`
	KafkaTopic         string   `yaml:"kafka_topic"`
	ExtractionFallback bool     `yaml:"extraction_fallback"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		DeploymentName:     "gpt-4-vision",
		APIVersion:         "2024-08-01-preview",
		Port:               5000,
		StaticDir:          "web",
		UploadDir:          "uploads",
		UploadNaming:       "generated",
		// Uploads are otherwise unbounded; a phone photo of a page fits well below this.
		MaxUploadMB:        16,
		StoreBackend:       StoreFile,
		StorePath:          "output/data.json",
		MongoDatabase:      "leaflet",
		KafkaTopic:         "leaflet-extractions",
		ExtractionFallback: true,
		CORSAllowedOrigins: []string{"*"},
	}
}

// LoadEnvFile merges a dotenv file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load resolves the configuration: defaults, then the YAML file at path (if
// any), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.AzureAPIKey, "AZURE_OPENAI_API_KEY")
	setString(&c.AzureEndpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&c.DeploymentName, "AZURE_DEPLOYMENT_NAME")
	setString(&c.APIVersion, "AZURE_OPENAI_API_VERSION")
	setString(&c.StaticDir, "STATIC_DIR")
	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.UploadNaming, "UPLOAD_NAMING")
	setString(&c.StoreBackend, "STORE_BACKEND")
	setString(&c.StorePath, "STORE_PATH")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.MongoURI, "MONGO_URI")
	setString(&c.MongoDatabase, "MONGO_DATABASE")
	setString(&c.KafkaBroker, "KAFKA_BROKER")
	setString(&c.KafkaTopic, "KAFKA_TOPIC")

	if err := setInt(&c.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.MaxUploadMB, "MAX_UPLOAD_MB"); err != nil {
		return err
	}

	if v := os.Getenv("EXTRACTION_FALLBACK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid EXTRACTION_FALLBACK %q: %w", v, err)
		}
		c.ExtractionFallback = b
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		c.CORSAllowedOrigins = origins
	}

	return nil
}

// Validate checks settings whose values would make the service unusable.
// Missing Azure credentials are not an error.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0")
	}
	switch c.UploadNaming {
	case "generated", "client":
	default:
		return fmt.Errorf("unsupported upload_naming %q (use generated or client)", c.UploadNaming)
	}
	switch c.StoreBackend {
	case StoreFile, StoreBolt, StoreSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("store_path is required for the %s store", c.StoreBackend)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the postgres store")
		}
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("mongo_uri and mongo_database are required for the mongo store")
		}
	default:
		return fmt.Errorf("unsupported store_backend %q", c.StoreBackend)
	}
	if c.KafkaBroker != "" && c.KafkaTopic == "" {
		return fmt.Errorf("kafka_topic is required when kafka_broker is set")
	}
	return nil
}

// IsConfigured reports whether extraction calls can be attempted.
func (c *Config) IsConfigured() bool {
	return c.AzureAPIKey != "" && c.AzureEndpoint != ""
}

// Missing lists the unset credential variables.
func (c *Config) Missing() []string {
	var missing []string
	if c.AzureAPIKey == "" {
		missing = append(missing, "AZURE_OPENAI_API_KEY")
	}
	if c.AzureEndpoint == "" {
		missing = append(missing, "AZURE_OPENAI_ENDPOINT")
	}
	return missing
}

// MaxUploadBytes returns the multipart size limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// Addr returns the listen address.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
