package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Source)
	assert.Empty(t, cfg.Images)
	assert.Equal(t, "09:00", cfg.Schedule.Time)
	assert.Equal(t, "v19.0", cfg.Instagram.APIVersion)
	assert.Equal(t, "https://graph.facebook.com", cfg.Instagram.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "gcs", cfg.Storage.Provider)
	assert.Equal(t, 200, cfg.Caption.MaxTokens)
}

func TestLoadDocument(t *testing.T) {
	path := writeConfig(t, `
images:
  - https://x/a.jpg
  - https://x/b.jpg
storage:
  bucket_name: my-bucket
  project_id: my-project
caption:
  model: gemini-1.5-pro
  max_tokens: 120
instagram:
  account_id: "1784"
  access_token: YOUR_ACCESS_TOKEN_HERE
schedule:
  time: "07:30"
http:
  timeout: 12s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, []string{"https://x/a.jpg", "https://x/b.jpg"}, cfg.Images)
	assert.Equal(t, "my-bucket", cfg.Storage.BucketName)
	assert.Equal(t, "my-project", cfg.Caption.ProjectID)
	assert.Equal(t, "gemini-1.5-pro", cfg.Caption.Model)
	assert.Equal(t, 120, cfg.Caption.MaxTokens)
	assert.Equal(t, "1784", cfg.Instagram.AccountID)
	assert.Equal(t, "07:30", cfg.Schedule.Time)
	assert.Equal(t, 12*time.Second, cfg.HTTP.Timeout)
}

func TestEnvOverridesDocument(t *testing.T) {
	path := writeConfig(t, `
instagram:
  access_token: from-file
  account_id: file-account
schedule:
  time: "09:00"
`)
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "from-env")
	t.Setenv("POST_TIME", "18:45")
	t.Setenv("IMAGE_URLS", "https://x/1.png, https://x/2.png")
	t.Setenv("HTTP_TIMEOUT", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Instagram.AccessToken)
	assert.Equal(t, "file-account", cfg.Instagram.AccountID)
	assert.Equal(t, "18:45", cfg.Schedule.Time)
	assert.Equal(t, []string{"https://x/1.png", "https://x/2.png"}, cfg.Images)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
}

func TestMinSentimentDefaultOnlyWhenAbsent(t *testing.T) {
	cfg, err := Load(writeConfig(t, "caption:\n  model: gemini-1.5-flash\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMinSentiment, cfg.Caption.MinSentiment)

	cfg, err = Load(writeConfig(t, "caption:\n  min_sentiment: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Caption.MinSentiment)

	cfg, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMinSentiment, cfg.Caption.MinSentiment)
}

func TestBucketEnvFollowsProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		expected string
	}{
		{"default is gcs", "", "gcs-bucket"},
		{"gcs", "gcs", "gcs-bucket"},
		{"s3", "s3", "s3-bucket"},
		{"s3 upper case", "S3", "s3-bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORAGE_PROVIDER", tt.provider)
			t.Setenv("GCS_BUCKET_NAME", "gcs-bucket")
			t.Setenv("S3_BUCKET_NAME", "s3-bucket")

			cfg, err := Load(writeConfig(t, "storage:\n  bucket_name: from-file\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Storage.BucketName)
		})
	}
}

func TestLoadMalformedDocument(t *testing.T) {
	path := writeConfig(t, "images: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"YOUR_ACCESS_TOKEN_HERE", true},
		{"your_instagram_account_id_here", true},
		{"YOUR-API-KEY-HERE", true},
		{"your-access-token", true},
		{"", false},
		{"EAAGm0PX4ZCpsBA", false},
		{"17841400000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPlaceholder(tt.value))
		})
	}

	assert.False(t, IsSet(""))
	assert.False(t, IsSet("YOUR_TOKEN_HERE"))
	assert.True(t, IsSet("real-token"))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("D", "")
	assert.Equal(t, time.Minute, GetEnvDuration("D", time.Minute))
	t.Setenv("D", "45s")
	assert.Equal(t, 45*time.Second, GetEnvDuration("D", time.Minute))
	t.Setenv("D", "bogus")
	assert.Equal(t, time.Minute, GetEnvDuration("D", time.Minute))
}

type fakeSSM struct {
	out *ssm.GetParametersOutput
	err error
	in  *ssm.GetParametersInput
}

func (f *fakeSSM) GetParameters(_ context.Context, in *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestSSMOverlay(t *testing.T) {
	fake := &fakeSSM{out: &ssm.GetParametersOutput{
		Parameters: []types.Parameter{
			{Name: aws.String("/instaposter/instagram/access_token"), Value: aws.String("ssm-token")},
			{Name: aws.String("/instaposter/gemini/api_key"), Value: aws.String("ssm-key")},
		},
		InvalidParameters: []string{"/instaposter/instagram/account_id", "/instaposter/bluesky/app_password"},
	}}
	loader := &SSMConfigLoader{client: fake, prefix: "/instaposter"}

	cfg := &Config{Instagram: InstagramConfig{AccountID: "keep-me"}}
	require.NoError(t, loader.Overlay(context.Background(), cfg))

	assert.Equal(t, "ssm-token", cfg.Instagram.AccessToken)
	assert.Equal(t, "ssm-key", cfg.Caption.APIKey)
	assert.Equal(t, "keep-me", cfg.Instagram.AccountID)
	assert.True(t, aws.ToBool(fake.in.WithDecryption))
	assert.Len(t, fake.in.Names, 4)
}

func TestSSMOverlayErrors(t *testing.T) {
	loader := &SSMConfigLoader{client: &fakeSSM{err: errors.New("access denied")}, prefix: "/instaposter"}
	err := loader.Overlay(context.Background(), &Config{})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "access denied")

	loader = &SSMConfigLoader{client: &fakeSSM{out: &ssm.GetParametersOutput{
		InvalidParameters: []string{"a", "b", "c", "d"},
	}}, prefix: "/instaposter"}
	err = loader.Overlay(context.Background(), &Config{})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "No parameters found under /instaposter: 4 invalid parameters", cfgErr.Error())
}
