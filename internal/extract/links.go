// Package extract pulls the hyperlinks a user could click out of an HTML page.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/linkguard/internal/model"
)

// LinkExtractor extracts <a href> links from HTML
type LinkExtractor struct{}

// NewLinkExtractor creates a new link extractor
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// Extract returns the unique http(s) links in r, in document order.
// Relative hrefs are resolved against baseURL; with an empty base they are dropped.
func (e *LinkExtractor) Extract(r io.Reader, baseURL string) ([]model.Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var base *url.URL
	if baseURL != "" {
		base, err = url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
	}

	var links []model.Link
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); href != "" {
				if resolved := resolveURL(base, href); resolved != nil {
					host := strings.ToLower(resolved.Hostname())
					links = append(links, model.Link{
						URL:        resolved.String(),
						Host:       host,
						Text:       linkText(n),
						IsSameHost: base != nil && host == strings.ToLower(base.Hostname()),
					})
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return dedupeLinks(links), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// linkText concatenates every text node under n
func linkText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// resolveURL resolves href against base and keeps only http and https targets
func resolveURL(base *url.URL, href string) *url.URL {
	if strings.HasPrefix(href, "#") {
		return nil
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}

	if base != nil {
		parsed = base.ResolveReference(parsed)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return nil
	}
	if parsed.Host == "" {
		return nil
	}

	return parsed
}

func dedupeLinks(links []model.Link) []model.Link {
	seen := make(map[string]bool)
	var unique []model.Link

	for _, l := range links {
		if !seen[l.URL] {
			seen[l.URL] = true
			unique = append(unique, l)
		}
	}

	return unique
}
