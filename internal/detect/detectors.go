package detect

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"

	"github.com/ppiankov/linkguard/internal/model"
)

var (
	ipv4Pattern   = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	schemePattern = regexp.MustCompile(`(?i)https?://`)
)

const punycodePrefix = "xn--"

// Detector names, used as Finding.Tag
const (
	TagInsecureProtocol = "insecure-protocol"
	TagIPHost           = "ip-host"
	TagAbusedTLD        = "abused-tld"
	TagSubdomains       = "subdomains"
	TagTyposquat        = "typosquat"
	TagKeywords         = "keywords"
	TagHomograph        = "homograph"
	TagEntropy          = "entropy"
	TagLongURL          = "long-url"
	TagShortener        = "shortener"
	TagEmbeddedRedirect = "embedded-redirect"
)

func finding(sev model.Severity, tag, msg string) *model.Finding {
	return &model.Finding{Severity: sev, Message: msg, Tag: tag}
}

func isIPv4Literal(host string) bool {
	return ipv4Pattern.MatchString(host)
}

// InsecureProtocol flags plain http
type InsecureProtocol struct{}

func (InsecureProtocol) Name() string { return TagInsecureProtocol }

func (InsecureProtocol) Detect(u model.ParsedURL, _ TrustContext) (*model.Finding, model.Detail) {
	if u.Scheme == "http" {
		return finding(model.SeverityLow, TagInsecureProtocol, "Not using HTTPS"), model.ProtocolDetail{HTTPS: false}
	}
	return nil, model.ProtocolDetail{HTTPS: u.Scheme == "https"}
}

// IPHost flags dotted-quad hosts
type IPHost struct{}

func (IPHost) Name() string { return TagIPHost }

func (IPHost) Detect(u model.ParsedURL, _ TrustContext) (*model.Finding, model.Detail) {
	if !isIPv4Literal(u.Hostname) {
		return nil, nil
	}
	return finding(model.SeverityHigh, TagIPHost, "Using IP address instead of domain name"), model.IPHostDetail{UsesIP: true}
}

// AbusedTLD flags top-level domains popular with throwaway registrations
type AbusedTLD struct {
	tlds map[string]bool
}

// NewAbusedTLD accepts TLDs with or without the leading dot
func NewAbusedTLD(tlds []string) *AbusedTLD {
	d := &AbusedTLD{tlds: make(map[string]bool, len(tlds))}
	for _, tld := range tlds {
		tld = strings.ToLower(strings.TrimSpace(tld))
		if tld == "" {
			continue
		}
		if !strings.HasPrefix(tld, ".") {
			tld = "." + tld
		}
		d.tlds[tld] = true
	}
	return d
}

func (d *AbusedTLD) Name() string { return TagAbusedTLD }

func (d *AbusedTLD) Detect(u model.ParsedURL, _ TrustContext) (*model.Finding, model.Detail) {
	labels := u.Labels()
	if len(labels) == 0 {
		return nil, nil
	}
	tld := "." + labels[len(labels)-1]
	if !d.tlds[tld] {
		return nil, nil
	}
	return finding(model.SeverityMedium, TagAbusedTLD, "Domain uses commonly abused TLD"), model.TLDDetail{TLD: tld}
}

// Subdomains flags hosts with too many labels
type Subdomains struct {
	Max int
}

func (d Subdomains) Name() string { return TagSubdomains }

func (d Subdomains) Detect(u model.ParsedURL, _ TrustContext) (*model.Finding, model.Detail) {
	n := len(u.Labels())
	if n <= d.Max {
		return nil, nil
	}
	return finding(model.SeverityMedium, TagSubdomains, "Unusual number of subdomains"), model.SubdomainDetail{Labels: n}
}

// Typosquat flags registered names a few edits away from a popular brand
type Typosquat struct {
	brands      []string
	maxDistance int
}

// NewTyposquat keeps brand order; the first brand within range wins
func NewTyposquat(brands []string, maxDistance int) *Typosquat {
	d := &Typosquat{maxDistance: maxDistance}
	for _, b := range brands {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" {
			d.brands = append(d.brands, b)
		}
	}
	return d
}

func (d *Typosquat) Name() string { return TagTyposquat }

func (d *Typosquat) Detect(u model.ParsedURL, trust TrustContext) (*model.Finding, model.Detail) {
	if trust.Trusted || isIPv4Literal(u.Hostname) {
		return nil, nil
	}
	label, ok := u.RegisteredName()
	if !ok || label == "" {
		return nil, nil
	}

	for _, brand := range d.brands {
		if label == brand {
			continue
		}
		dist := Levenshtein(label, brand)
		if dist <= d.maxDistance {
			msg := fmt.Sprintf("Domain imitates %s (possible typosquatting)", brand)
			return finding(model.SeverityHigh, TagTyposquat, msg), model.TyposquatDetail{Label: label, Brand: brand, Distance: dist}
		}
	}

	return nil, nil
}

// Keywords flags sensitive words in links to untrusted hosts
type Keywords struct {
	keywords []string
}

func NewKeywords(keywords []string) *Keywords {
	d := &Keywords{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			d.keywords = append(d.keywords, k)
		}
	}
	return d
}

func (d *Keywords) Name() string { return TagKeywords }

func (d *Keywords) Detect(u model.ParsedURL, trust TrustContext) (*model.Finding, model.Detail) {
	if trust.Trusted {
		return nil, nil
	}

	lower := strings.ToLower(u.Original)
	var matched []string
	for _, k := range d.keywords {
		if strings.Contains(lower, k) {
			matched = append(matched, k)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	return finding(model.SeverityMedium, TagKeywords, "Contains sensitive keywords"), model.KeywordDetail{Keywords: matched}
}

// Homograph flags punycode hosts and hosts mixing Latin and Cyrillic letters
type Homograph struct{}

func (Homograph) Name() string { return TagHomograph }

func (Homograph) Detect(u model.ParsedURL, _ TrustContext) (*model.Finding, model.Detail) {
	punycode := strings.Contains(u.Hostname, punycodePrefix)
	mixed := mixesLatinCyrillic(u.Hostname)

	var decoded string
	if punycode {
		if uni, err := idna.ToUnicode(u.Hostname); err == nil && uni != u.Hostname {
			decoded = uni
			mixed = mixed || mixesLatinCyrillic(uni)
		}
	}

	if !punycode && !mixed {
		return nil, nil
	}

	msg := "Domain mixes characters from different alphabets"
	if punycode {
		msg = "Domain uses internationalized characters that may imitate another site"
	}
	return finding(model.SeverityHigh, TagHomograph, msg), model.HomographDetail{Punycode: punycode, MixedScript: mixed, Unicode: decoded}
}

func mixesLatinCyrillic(host string) bool {
	var latin, cyrillic bool
	for _, r := range host {
		switch {
		case r >= 0x0400 && r <= 0x04FF:
			cyrillic = true
		case unicode.IsLetter(r) && unicode.Is(unicode.Latin, r):
			latin = true
		}
		if latin && cyrillic {
			return true
		}
	}
	return false
}

// Entropy flags registered names that look machine generated
type Entropy struct {
	Bits      float64
	MinLength int
}

func (d Entropy) Name() string { return TagEntropy }

func (d Entropy) Detect(u model.ParsedURL, trust TrustContext) (*model.Finding, model.Detail) {
	if trust.Trusted || isIPv4Literal(u.Hostname) {
		return nil, nil
	}
	label, ok := u.RegisteredName()
	if !ok || len([]rune(label)) <= d.MinLength {
		return nil, nil
	}

	bits := ShannonEntropy(label)
	if bits <= d.Bits {
		return nil, nil
	}
	return finding(model.SeverityMedium, TagEntropy, "Domain name looks randomly generated"), model.EntropyDetail{Label: label, Bits: bits}
}

// LongURL flags oversized links
type LongURL struct {
	Max int
}

func (d LongURL) Name() string { return TagLongURL }

func (d LongURL) Detect(u model.ParsedURL, _ TrustContext) (*model.Finding, model.Detail) {
	n := len(u.Original)
	if n <= d.Max {
		return nil, nil
	}
	return finding(model.SeverityLow, TagLongURL, "Unusually long URL"), model.LengthDetail{Length: n}
}

// Shortener flags known URL shortening services
type Shortener struct {
	hosts map[string]bool
}

func NewShortener(hosts []string) *Shortener {
	d := &Shortener{hosts: make(map[string]bool, len(hosts))}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			d.hosts[h] = true
		}
	}
	return d
}

func (d *Shortener) Name() string { return TagShortener }

func (d *Shortener) Detect(u model.ParsedURL, _ TrustContext) (*model.Finding, model.Detail) {
	if !d.hosts[u.Hostname] {
		return nil, nil
	}
	return finding(model.SeverityLow, TagShortener, "Shortened URL - destination unknown"), model.ShortenerDetail{Host: u.Hostname}
}

// EmbeddedRedirect flags a second URL carried inside the first
type EmbeddedRedirect struct{}

func (EmbeddedRedirect) Name() string { return TagEmbeddedRedirect }

func (EmbeddedRedirect) Detect(u model.ParsedURL, _ TrustContext) (*model.Finding, model.Detail) {
	n := len(schemePattern.FindAllStringIndex(u.Original, -1))
	if n < 2 {
		return nil, nil
	}
	return finding(model.SeverityMedium, TagEmbeddedRedirect, "URL contains an embedded redirect"), model.RedirectDetail{Schemes: n}
}
