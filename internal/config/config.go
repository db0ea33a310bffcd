package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "./config.yaml"
	redactedDSN       = "[redacted]"
	redactedSecret    = "xxxxx"

	StorageKindFS    = "fs"
	StorageKindNodes = "nodes"
	StorageKindS3    = "s3"
)

type Config struct {
	ListenAddr     string        `yaml:"listen_addr" json:"listen_addr"`
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	MetaDSN        string        `yaml:"meta_dsn" json:"meta_dsn"`
	LogLevel       string        `yaml:"log_level" json:"log_level"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" json:"max_upload_bytes"`
	// IDClaimWindow насколько далеко вперёд клиент может задать свой id; 0 означает значение по умолчанию.
	IDClaimWindow  int64         `yaml:"id_claim_window" json:"id_claim_window"`
	Storage        StorageConfig `yaml:"storage" json:"storage"`
}

// StorageConfig выбирает и настраивает бэкенд хранения payload.
type StorageConfig struct {
	Kind   string   `yaml:"kind" json:"kind"`
	Dir    string   `yaml:"dir" json:"dir"`
	Nodes  []string `yaml:"nodes" json:"nodes"`
	Bucket string   `yaml:"bucket" json:"bucket"`
	Prefix string   `yaml:"prefix" json:"prefix"`
}

// Default возвращает конфигурацию, с которой сервис поднимается без config.yaml.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		MetaDSN:    "memory://",
		LogLevel:   "info",
		Storage: StorageConfig{
			Kind: StorageKindFS,
			Dir:  "./data",
		},
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Отсутствие файла по пути по умолчанию не ошибка: используются значения Default.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || path == "" {
		path = defaultConfigPath
	}

	c := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := applyEnv(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ENV override
func applyEnv(c *Config) error {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("META_DSN"); v != "" {
		c.MetaDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv("ID_CLAIM_WINDOW"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.IDClaimWindow = n
	}
	if v := os.Getenv("STORAGE_KIND"); v != "" {
		c.Storage.Kind = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("STORAGES"); v != "" {
		c.Storage.Nodes = splitComma(v)
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("S3_PREFIX"); v != "" {
		c.Storage.Prefix = v
	}

	return nil
}

// Redacted возвращает копию для вывода наружу: пароль в MetaDSN замаскирован,
// DSN, который не разбирается как URL, скрыт целиком.
func (c Config) Redacted() Config {
	out := c
	out.Storage.Nodes = append([]string(nil), c.Storage.Nodes...)
	if c.MetaDSN == "" {
		return out
	}

	u, err := url.Parse(c.MetaDSN)
	if err != nil || u.Scheme == "" {
		out.MetaDSN = redactedDSN
		return out
	}

	masked := false
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), redactedSecret)
		masked = true
	}
	if q := u.Query(); q.Has("password") {
		q.Set("password", redactedSecret)
		u.RawQuery = q.Encode()
		masked = true
	}
	if masked {
		out.MetaDSN = u.String()
	}
	return out
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
