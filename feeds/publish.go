package feeds

import (
	"strings"

	"murzlite/config"
	"murzlite/models"
)

const (
	MurzfeedID = "murzfeed"
	FomoID     = "fomo"
)

// GetPublishInfo lists the RSS feeds exported by the site
func GetPublishInfo(cfg *config.TomlConfig) []models.FeedInfo {
	base := strings.TrimSuffix(cfg.SiteURL, "/")
	return []models.FeedInfo{
		{
			Id:          MurzfeedID,
			Title:       cfg.RSS.Murzfeed.Title,
			Description: cfg.RSS.Murzfeed.Description,
			URL:         base + "/rss/" + MurzfeedID,
		},
		{
			Id:          FomoID,
			Title:       cfg.RSS.Fomo.Title,
			Description: cfg.RSS.Fomo.Description,
			URL:         base + "/rss/" + FomoID,
		},
	}
}
