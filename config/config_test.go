package config_test

import (
	"murzlite/config"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "murzlite.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *config.TomlConfig)
		wantErr bool
	}{
		{
			name:    "empty file keeps defaults",
			content: "",
			check: func(t *testing.T, cfg *config.TomlConfig) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name: "overrides single values",
			content: `
site_url = "http://localhost:3000"

[fomo]
blocklist = ["PROMO"]

[rss.fomo]
title = "fomo only"
`,
			check: func(t *testing.T, cfg *config.TomlConfig) {
				assert.Equal(t, "http://localhost:3000", cfg.SiteURL)
				assert.Equal(t, []string{"PROMO"}, cfg.Fomo.Blocklist)
				assert.Equal(t, "https://fomo.azurewebsites.net", cfg.Fomo.BaseURL)
				assert.Equal(t, "fomo only", cfg.RSS.Fomo.Title)
				assert.Equal(t, 60, cfg.RSS.Fomo.TTL)
				assert.Len(t, cfg.Murzfeed.Categories, 10)
			},
		},
		{
			name:    "invalid toml",
			content: "site_url = ",
			wantErr: true,
		},
		{
			name:    "invalid page size",
			content: "[murzfeed]\npage_size = 0\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadConfig(writeConfig(t, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigWithoutFile(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSiteURL, cfg.SiteURL)

	_, err = config.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("murzlite.toml")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
