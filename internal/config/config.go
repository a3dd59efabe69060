package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the settings document lives relative to the working directory.
const DefaultPath = "config/config.yaml"

// DefaultMinSentiment applies only when caption.min_sentiment is absent, so an
// explicit 0 stays 0.
const DefaultMinSentiment = -0.5

type Config struct {
	Images    []string        `yaml:"images"`
	DryRun    bool            `yaml:"dry_run"`
	Storage   StorageConfig   `yaml:"storage"`
	Caption   CaptionConfig   `yaml:"caption"`
	Instagram InstagramConfig `yaml:"instagram"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	AWS       AWSConfig       `yaml:"aws"`
	History   HistoryConfig   `yaml:"history"`
	Bluesky   BlueskyConfig   `yaml:"bluesky"`

	// Source is the document path that was read, empty when none was found.
	Source string `yaml:"-"`
}

type StorageConfig struct {
	Provider        string `yaml:"provider"`
	BucketName      string `yaml:"bucket_name"`
	ProjectID       string `yaml:"project_id"`
	CredentialsPath string `yaml:"credentials_path"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
}

type CaptionConfig struct {
	Backend      string  `yaml:"backend"`
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	MaxTokens    int     `yaml:"max_tokens"`
	ProjectID    string  `yaml:"project_id"`
	Location     string  `yaml:"location"`
	MinSentiment float64 `yaml:"min_sentiment"`
	APIURL       string  `yaml:"api_url"`
}

type InstagramConfig struct {
	AccountID   string `yaml:"account_id"`
	AccessToken string `yaml:"access_token"`
	APIVersion  string `yaml:"api_version"`
	BaseURL     string `yaml:"base_url"`
}

type ScheduleConfig struct {
	Time       string `yaml:"time"`
	Timezone   string `yaml:"timezone"`
	RunOnStart bool   `yaml:"run_on_start"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type AWSConfig struct {
	Region    string `yaml:"region"`
	SSMPrefix string `yaml:"ssm_prefix"`
}

type HistoryConfig struct {
	Table   string `yaml:"table"`
	TTLDays int    `yaml:"ttl_days"`
}

type BlueskyConfig struct {
	Handle      string `yaml:"handle"`
	AppPassword string `yaml:"app_password"`
	Host        string `yaml:"host"`
}

// Load reads the settings document at path, applies environment overrides
// and fills defaults. A missing document is not an error: the result is an
// empty configuration that the self-check reports on later.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Config{Caption: CaptionConfig{MinSentiment: DefaultMinSentiment}}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fall through with an empty document
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.Source = path
	}

	cfg.ApplyEnv()
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyEnv overrides document values with any recognised environment
// variables that are set.
func (c *Config) ApplyEnv() {
	if v := GetEnv("IMAGE_URLS", ""); v != "" {
		c.Images = splitList(v)
	}
	c.DryRun = GetEnvBool("DRY_RUN", c.DryRun)

	c.Storage.Provider = GetEnv("STORAGE_PROVIDER", c.Storage.Provider)
	if strings.EqualFold(c.Storage.Provider, "s3") {
		c.Storage.BucketName = GetEnv("S3_BUCKET_NAME", c.Storage.BucketName)
	} else {
		c.Storage.BucketName = GetEnv("GCS_BUCKET_NAME", c.Storage.BucketName)
	}
	c.Storage.ProjectID = GetEnv("GOOGLE_CLOUD_PROJECT", c.Storage.ProjectID)
	c.Storage.CredentialsPath = GetEnv("GOOGLE_APPLICATION_CREDENTIALS", c.Storage.CredentialsPath)
	c.Storage.Region = GetEnv("AWS_REGION", c.Storage.Region)

	c.Caption.Backend = GetEnv("CAPTION_BACKEND", c.Caption.Backend)
	c.Caption.APIKey = GetEnv("GEMINI_API_KEY", c.Caption.APIKey)
	c.Caption.Model = GetEnv("GEMINI_MODEL", c.Caption.Model)
	c.Caption.MaxTokens = GetEnvInt("GEMINI_MAX_TOKENS", c.Caption.MaxTokens)
	c.Caption.Location = GetEnv("VERTEX_AI_LOCATION", c.Caption.Location)

	c.Instagram.AccountID = GetEnv("INSTAGRAM_ACCOUNT_ID", c.Instagram.AccountID)
	c.Instagram.AccessToken = GetEnv("INSTAGRAM_ACCESS_TOKEN", c.Instagram.AccessToken)
	c.Instagram.APIVersion = GetEnv("INSTAGRAM_API_VERSION", c.Instagram.APIVersion)

	c.Schedule.Time = GetEnv("POST_TIME", c.Schedule.Time)
	c.Schedule.Timezone = GetEnv("POST_TIMEZONE", c.Schedule.Timezone)

	c.HTTP.Timeout = GetEnvDuration("HTTP_TIMEOUT", c.HTTP.Timeout)

	c.Logging.Level = GetEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = GetEnv("LOG_FILE", c.Logging.File)

	c.AWS.Region = GetEnv("AWS_REGION", c.AWS.Region)
	c.AWS.SSMPrefix = GetEnv("SSM_PREFIX", c.AWS.SSMPrefix)
	c.History.Table = GetEnv("HISTORY_TABLE", c.History.Table)

	c.Bluesky.Handle = GetEnv("BLUESKY_HANDLE", c.Bluesky.Handle)
	c.Bluesky.AppPassword = GetEnv("BLUESKY_APP_PASSWORD", c.Bluesky.AppPassword)
}

// ApplyDefaults sets defaults for optional fields
func (c *Config) ApplyDefaults() {
	if c.Storage.Provider == "" {
		c.Storage.Provider = "gcs"
	}
	if c.Caption.Backend == "" {
		c.Caption.Backend = "gemini"
	}
	if c.Caption.Model == "" {
		c.Caption.Model = "gemini-1.5-flash"
	}
	if c.Caption.MaxTokens == 0 {
		c.Caption.MaxTokens = 200
	}
	if c.Caption.Location == "" {
		c.Caption.Location = "us-central1"
	}
	if c.Caption.ProjectID == "" {
		c.Caption.ProjectID = c.Storage.ProjectID
	}
	if c.Instagram.APIVersion == "" {
		c.Instagram.APIVersion = "v19.0"
	}
	if c.Instagram.BaseURL == "" {
		c.Instagram.BaseURL = "https://graph.facebook.com"
	}
	if c.Schedule.Time == "" {
		c.Schedule.Time = "09:00"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join("logs", "instaposter.log")
	}
	if c.Storage.Region == "" {
		c.Storage.Region = c.AWS.Region
	}
	if c.History.TTLDays == 0 {
		c.History.TTLDays = 90
	}
	if c.Bluesky.Host == "" {
		c.Bluesky.Host = "https://bsky.social"
	}
}

var placeholderPattern = regexp.MustCompile(`(?i)^your[_-].*[_-]here$`)

// placeholderValues are the literal defaults shipped in config.example.yaml.
var placeholderValues = map[string]bool{
	"your-access-token":       true,
	"your-account-id":         true,
	"your-gemini-api-key":     true,
	"your-app-password":       true,
	"your-handle.bsky.social": true,
	"changeme":                true,
}

// IsPlaceholder reports whether a credential value was left at a template
// default such as "YOUR_ACCESS_TOKEN_HERE".
func IsPlaceholder(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	return placeholderPattern.MatchString(v) || placeholderValues[strings.ToLower(v)]
}

// IsSet reports whether a credential value is present and not a placeholder.
func IsSet(value string) bool {
	return strings.TrimSpace(value) != "" && !IsPlaceholder(value)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
