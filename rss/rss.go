// Package rss renders minimal RSS 2.0 documents
package rss

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"murzlite/config"
	"murzlite/models"

	"github.com/samber/lo"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

// Channel is the feed level metadata
type Channel struct {
	Title       string
	Description string
	Link        string
	SelfLink    string
	Language    string
	TTL         int
}

// Entry is one feed item
type Entry struct {
	Title       string
	Link        string
	Description string
	GUID        string
	PubDate     time.Time
}

type document struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Atom    string   `xml:"xmlns:atom,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Link        string    `xml:"link"`
	Language    string    `xml:"language,omitempty"`
	TTL         int       `xml:"ttl,omitempty"`
	AtomLink    *atomLink `xml:"atom:link,omitempty"`
	Items       []item    `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type item struct {
	Title       cdata  `xml:"title"`
	Description cdata  `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	Link        string `xml:"link"`
	GUID        *guid  `xml:"guid,omitempty"`
}

// cdata is written as CDATA. encoding/xml splits any "]]>" in the text
// across two sections but copies everything else as is.
type cdata struct {
	Text string `xml:",cdata"`
}

func newCDATA(s string) cdata {
	return cdata{Text: sanitize(s)}
}

// sanitize drops invalid UTF-8 and runes outside the XML Char production
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, strings.ToValidUTF8(s, ""))
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

type guid struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Render writes the channel and entries as an RSS 2.0 document
func Render(ch Channel, entries []Entry) ([]byte, error) {
	doc := document{
		Version: "2.0",
		Atom:    atomNamespace,
		Channel: channel{
			Title:       ch.Title,
			Description: ch.Description,
			Link:        ch.Link,
			Language:    ch.Language,
			TTL:         ch.TTL,
			Items: lo.Map(entries, func(e Entry, _ int) item {
				it := item{
					Title:       newCDATA(e.Title),
					Description: newCDATA(e.Description),
					Link:        e.Link,
				}
				if !e.PubDate.IsZero() {
					it.PubDate = e.PubDate.UTC().Format(time.RFC1123Z)
				}
				if e.GUID != "" {
					it.GUID = &guid{Value: e.GUID}
				}
				return it
			}),
		},
	}
	if ch.SelfLink != "" {
		doc.Channel.AtomLink = &atomLink{Href: ch.SelfLink, Rel: "self", Type: "application/rss+xml"}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("error encoding rss: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// PostLink is the site url of a post: <base>/post/<source>/<slug>-<id>
func PostLink(base, source, slug, id string) string {
	return fmt.Sprintf("%s/post/%s/%s-%s", strings.TrimSuffix(base, "/"), source, slug, id)
}

// MurzfeedChannel builds the channel metadata for the murzfeed export
func MurzfeedChannel(cfg *config.TomlConfig) Channel {
	return newChannel(cfg, cfg.RSS.Murzfeed, "", "murzfeed")
}

func FomoChannel(cfg *config.TomlConfig) Channel {
	return newChannel(cfg, cfg.RSS.Fomo, "/fomo", "fomo")
}

func newChannel(cfg *config.TomlConfig, c config.TomlChannel, page, id string) Channel {
	base := strings.TrimSuffix(cfg.SiteURL, "/")
	return Channel{
		Title:       c.Title,
		Description: c.Description,
		Link:        base + page,
		SelfLink:    base + "/rss/" + id,
		Language:    c.Language,
		TTL:         c.TTL,
	}
}

// MurzfeedEntries maps posts to entries linking to the post page
func MurzfeedEntries(base string, posts []models.Post) []Entry {
	return lo.Map(posts, func(p models.Post, _ int) Entry {
		link := PostLink(base, "murz", p.Slug(), p.PostID)
		return Entry{
			Title:       p.Title,
			Link:        link,
			Description: p.Content,
			GUID:        link,
			PubDate:     p.CreatedAt,
		}
	})
}

func FomoEntries(base string, posts []models.FomoPost) []Entry {
	return lo.Map(posts, func(p models.FomoPost, _ int) Entry {
		link := PostLink(base, "fomo", p.FeedSlug(), fmt.Sprint(p.ActivityID))
		return Entry{
			Title:       p.Title,
			Link:        link,
			Description: p.Content,
			GUID:        link,
			PubDate:     p.CreationTime,
		}
	})
}
