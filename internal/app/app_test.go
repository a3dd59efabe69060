package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christophergentle/instaposter/internal/selfcheck"
	"github.com/christophergentle/instaposter/internal/workflow"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDryRunAndConsoleOnly(t *testing.T) {
	path := writeConfig(t, `
images: ["https://x/a.jpg"]
logging:
  file: should-not-be-created.log
`)

	cfg, log, closer, err := Load(context.Background(), Options{ConfigPath: path, DryRun: true, ConsoleOnly: true})
	require.NoError(t, err)
	defer closer.Close()

	assert.True(t, cfg.DryRun)
	assert.Empty(t, cfg.Logging.File)
	assert.Equal(t, path, cfg.Source)
	assert.NotNil(t, log)
}

func TestNewWithoutCredentialsIsUnhealthy(t *testing.T) {
	path := writeConfig(t, `
images: ["https://x/a.jpg", "https://x/b.jpg"]
instagram:
  access_token: YOUR_ACCESS_TOKEN_HERE
  account_id: "17841400000"
`)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GCS_BUCKET_NAME", "")
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "")

	cfg, log, closer, err := Load(context.Background(), Options{ConfigPath: path, ConsoleOnly: true})
	require.NoError(t, err)
	defer closer.Close()

	a := New(context.Background(), cfg, log)
	defer a.Close()

	assert.False(t, a.Images.Available())
	assert.False(t, a.Captions.Available())
	assert.Nil(t, a.Mirror)
	assert.Nil(t, a.History)

	report := a.SelfCheck()
	assert.Equal(t, selfcheck.StatusUnhealthy, report.Status)
	assert.Contains(t, report.Issues, "instagram: Instagram access token is still a placeholder value")
	assert.Equal(t, "https://x/a.jpg", a.Images.SelectImage(context.Background()))
}

func TestDryRunWorkflowCompletesOffline(t *testing.T) {
	path := writeConfig(t, `images: ["https://x/a.jpg"]`)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GCS_BUCKET_NAME", "")
	t.Setenv("S3_BUCKET_NAME", "")

	cfg, log, closer, err := Load(context.Background(), Options{ConfigPath: path, DryRun: true, ConsoleOnly: true})
	require.NoError(t, err)
	defer closer.Close()

	a := New(context.Background(), cfg, log)
	out := a.Workflow.Run(context.Background())

	assert.Equal(t, workflow.StateDone, out.State)
	assert.Equal(t, "https://x/a.jpg", out.ImageURL)
	assert.NotEmpty(t, out.Caption)
	assert.Nil(t, out.Publish)
}

func TestFallbackOnlySetupIsNotReady(t *testing.T) {
	path := writeConfig(t, `
images: ["https://x/a.jpg"]
instagram:
  access_token: EAAG-real-token
  account_id: "17841400000"
`)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GCS_BUCKET_NAME", "")
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "")
	t.Setenv("INSTAGRAM_ACCOUNT_ID", "")
	t.Setenv("SSM_PREFIX", "")

	cfg, log, closer, err := Load(context.Background(), Options{ConfigPath: path, ConsoleOnly: true})
	require.NoError(t, err)
	defer closer.Close()

	report := New(context.Background(), cfg, log).SelfCheck()
	assert.Equal(t, selfcheck.StatusDegraded, report.Status)
	assert.False(t, report.Ready())
	assert.Len(t, report.Issues, 2)
}
