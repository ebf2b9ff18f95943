package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCloudflareEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CF_ACCOUNT_ID", "acc")
	t.Setenv("CF_NAMESPACE_ID", "ns")
	t.Setenv("CF_API_TOKEN", "tok")
}

func TestLoad_Defaults(t *testing.T) {
	setCloudflareEnv(t)

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "acc", cfg.Cloudflare.AccountID)
	assert.Equal(t, "ns", cfg.Cloudflare.NamespaceID)
	assert.Equal(t, "tok", cfg.Cloudflare.APIToken)
	assert.Equal(t, "data", cfg.Cloudflare.KVKey)
	assert.Equal(t, DefaultAPIBase, cfg.Cloudflare.APIBase)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.EqualValues(t, DefaultFetchMaxBytes, cfg.Fetch.MaxBytes)
	assert.Equal(t, 3, cfg.Sample.Count)
	assert.Equal(t, "README.md", cfg.Output.Path)
	assert.Equal(t, "", cfg.Output.HTML)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "stdout", cfg.Logger.OutputPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setCloudflareEnv(t)
	t.Setenv("CF_KV_KEY", "nodes")
	t.Setenv("FREE_SERVERS_FETCH_TIMEOUT", "5s")
	t.Setenv("FREE_SERVERS_SAMPLE_COUNT", "5")
	t.Setenv("FREE_SERVERS_OUTPUT_PATH", "out/README.md")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "nodes", cfg.Cloudflare.KVKey)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 5, cfg.Sample.Count)
	assert.Equal(t, "out/README.md", cfg.Output.Path)
}

func TestLoad_ConfigFile(t *testing.T) {
	setCloudflareEnv(t)
	path := filepath.Join(t.TempDir(), "free-servers.yaml")
	content := "cloudflare:\n  kv_key: from-file\noutput:\n  html: index.html\nlogger:\n  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Cloudflare.KVKey)
	assert.Equal(t, "index.html", cfg.Output.HTML)
	assert.Equal(t, "json", cfg.Logger.Format)
	// Environment still wins for keys it sets.
	assert.Equal(t, "acc", cfg.Cloudflare.AccountID)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_Missing(t *testing.T) {
	t.Setenv("CF_ACCOUNT_ID", "acc")
	t.Setenv("CF_NAMESPACE_ID", "")
	t.Setenv("CF_API_TOKEN", "")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, IsMissing(err))

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"CF_NAMESPACE_ID", "CF_API_TOKEN"}, ce.Missing)
	assert.Equal(t, "config", ce.AppError.Stage)
}

func TestValidate_Ranges(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Cloudflare: CloudflareConfig{AccountID: "a", NamespaceID: "n", APIToken: "t", KVKey: "data"},
			Fetch:      FetchConfig{Timeout: time.Second, MaxBytes: 1},
			Sample:     SampleConfig{Count: 3},
			Output:     OutputConfig{Path: "README.md"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"empty key":     func(c *Config) { c.Cloudflare.KVKey = "" },
		"zero timeout":  func(c *Config) { c.Fetch.Timeout = 0 },
		"zero maxbytes": func(c *Config) { c.Fetch.MaxBytes = 0 },
		"zero count":    func(c *Config) { c.Sample.Count = 0 },
		"empty output":  func(c *Config) { c.Output.Path = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.False(t, IsMissing(err))
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	c := &Config{
		Cloudflare: CloudflareConfig{AccountID: "a", NamespaceID: "n", APIToken: "t", KVKey: "data", APIBase: "not a url"},
		Fetch:      FetchConfig{Timeout: time.Second, MaxBytes: 1},
		Sample:     SampleConfig{Count: 3},
		Output:     OutputConfig{Path: "README.md"},
	}
	var ce *ConfigError
	require.ErrorAs(t, c.Validate(), &ce)
	assert.Equal(t, "INVALID_ARGUMENT", ce.AppError.Code)
	assert.Equal(t, "cloudflare.api_base 必须是合法的 URL", ce.AppError.Message)

	c.Cloudflare.APIBase = ""
	c.Fetch.Timeout = 0
	require.ErrorAs(t, c.Validate(), &ce)
	assert.Equal(t, "fetch.timeout 必须大于 0", ce.AppError.Message)

	c.Fetch.Timeout = time.Second
	c.Logger.Format = "xml"
	require.ErrorAs(t, c.Validate(), &ce)
	assert.Equal(t, "logger.format 必须是 [console json] 之一", ce.AppError.Message)
}

func TestValidate_HTMLMustDifferFromOutput(t *testing.T) {
	c := &Config{
		Cloudflare: CloudflareConfig{AccountID: "a", NamespaceID: "n", APIToken: "t", KVKey: "data"},
		Fetch:      FetchConfig{Timeout: time.Second, MaxBytes: 1},
		Sample:     SampleConfig{Count: 3},
		Output:     OutputConfig{Path: "README.md", HTML: "README.md"},
	}
	var ce *ConfigError
	require.ErrorAs(t, c.Validate(), &ce)
	assert.Equal(t, "INVALID_ARGUMENT", ce.AppError.Code)
	assert.Equal(t, "output.html 不能与 output.path 相同", ce.AppError.Message)

	c.Output.HTML = "public/index.html"
	assert.NoError(t, c.Validate())
}
