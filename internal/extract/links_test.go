package extract

import (
	"strings"
	"testing"
)

func TestLinkExtractor_BasicExtraction(t *testing.T) {
	extractor := NewLinkExtractor()

	page := `
	<html>
	<body>
		<p>Pay your bill at <a href="https://paypa1.com/login">PayPal</a>.</p>
		<p>Another <a href="http://192.168.1.1/admin">router <b>admin</b></a>.</p>
	</body>
	</html>
	`

	links, err := extractor.Extract(strings.NewReader(page), "https://mail.example.com/inbox")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(links))
	}

	if links[0].URL != "https://paypa1.com/login" || links[0].Host != "paypa1.com" {
		t.Errorf("Unexpected first link: %+v", links[0])
	}
	if links[1].Text != "router admin" {
		t.Errorf("Expected nested anchor text, got %q", links[1].Text)
	}
}

func TestLinkExtractor_RelativeURLs(t *testing.T) {
	extractor := NewLinkExtractor()

	page := `<a href="/settings">Settings</a><a href="../up">Up</a>`

	links, err := extractor.Extract(strings.NewReader(page), "https://Example.com/a/b")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(links))
	}
	if links[0].URL != "https://Example.com/settings" {
		t.Errorf("Expected resolved URL, got %s", links[0].URL)
	}
	if !links[0].IsSameHost {
		t.Error("Expected same-host link")
	}
}

func TestLinkExtractor_NoBaseDropsRelative(t *testing.T) {
	extractor := NewLinkExtractor()

	page := `<a href="/relative">x</a><a href="https://bit.ly/abc">y</a>`

	links, err := extractor.Extract(strings.NewReader(page), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(links) != 1 || links[0].URL != "https://bit.ly/abc" {
		t.Errorf("Expected only the absolute link, got %+v", links)
	}
	if links[0].IsSameHost {
		t.Error("Without a base no link is same-host")
	}
}

func TestLinkExtractor_SkipsNonWebLinks(t *testing.T) {
	extractor := NewLinkExtractor()

	page := `
		<a href="#top">top</a>
		<a href="javascript:void(0)">js</a>
		<a href="mailto:a@example.com">mail</a>
		<a href="tel:+100">call</a>
		<a href="ftp://files.example.com">ftp</a>
		<a>no href</a>
		<a href="https://example.com">ok</a>
	`

	links, err := extractor.Extract(strings.NewReader(page), "https://example.org")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(links) != 1 {
		t.Errorf("Expected 1 web link, got %d: %+v", len(links), links)
	}
}

func TestLinkExtractor_Deduplication(t *testing.T) {
	extractor := NewLinkExtractor()

	page := `<a href="https://example.com/a">1</a><a href="https://example.com/a">2</a>`

	links, err := extractor.Extract(strings.NewReader(page), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(links) != 1 {
		t.Errorf("Expected 1 link after deduplication, got %d", len(links))
	}
	if links[0].Text != "1" {
		t.Errorf("Expected first occurrence kept, got %q", links[0].Text)
	}
}

func TestLinkExtractor_BadBase(t *testing.T) {
	if _, err := NewLinkExtractor().Extract(strings.NewReader("<a></a>"), "http://[::1"); err == nil {
		t.Error("Expected error for malformed base URL")
	}
}
