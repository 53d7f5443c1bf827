package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const DefaultSiteURL = "https://murzlite.vercel.app"

// TomlChannel holds the metadata of one exported RSS feed
type TomlChannel struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Language    string `toml:"language"`
	TTL         int    `toml:"ttl"`
}

// TomlMurzfeed configures the Firestore backed source
type TomlMurzfeed struct {
	BaseURL    string   `toml:"base_url"`
	ProjectID  string   `toml:"project_id"`
	Categories []string `toml:"categories"` // Allow-list used by the trending sort
	PageSize   int      `toml:"page_size"`
}

// TomlFomo configures the fomo API source. The token is never read from
// the file, it is passed by flag or environment.
type TomlFomo struct {
	BaseURL   string   `toml:"base_url"`
	Blocklist []string `toml:"blocklist"` // Activity types hidden from the feed
}

type TomlRSS struct {
	Murzfeed TomlChannel `toml:"murzfeed"`
	Fomo     TomlChannel `toml:"fomo"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	SiteURL  string       `toml:"site_url"`
	Murzfeed TomlMurzfeed `toml:"murzfeed"`
	Fomo     TomlFomo     `toml:"fomo"`
	RSS      TomlRSS      `toml:"rss"`
}

// Default returns a complete configuration, so a config file is optional
func Default() *TomlConfig {
	return &TomlConfig{
		SiteURL: DefaultSiteURL,
		Murzfeed: TomlMurzfeed{
			BaseURL:   "https://firestore.googleapis.com/v1",
			ProjectID: "mfeed-c43b1",
			Categories: []string{
				"Company shutdown",
				"New company/startup",
				"WFA/WFO",
				"Work Experience",
				"Management info",
				"Layoff",
				"Employee benefit",
				"Product",
				"Acquisition/merger",
				"New funding",
			},
			PageSize: 10,
		},
		Fomo: TomlFomo{
			BaseURL:   "https://fomo.azurewebsites.net",
			Blocklist: []string{"INTERNAL_PROMO", "PROMO", "SALARY", "COMPANY_REVIEW", "TALENT_POST"},
		},
		RSS: TomlRSS{
			Murzfeed: TomlChannel{
				Title:       "Murzfeed Lite",
				Description: "Murzfeed Lite - Murzfeed w/ HN Style",
				Language:    "en-us",
				TTL:         60,
			},
			Fomo: TomlChannel{
				Title:       "Murzfeed + fomo Lite",
				Description: "Murzfeed + fomo Lite - Murzfeed w/ HN Style",
				Language:    "en-us",
				TTL:         60,
			},
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (*TomlConfig, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if config.Murzfeed.PageSize < 1 {
		return nil, fmt.Errorf("murzfeed.page_size must be positive, got %d", config.Murzfeed.PageSize)
	}

	return config, nil
}
