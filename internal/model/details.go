package model

import (
	"bytes"
	"encoding/json"
)

// DetailKind is the fixed key a Detail is reported under
type DetailKind string

const (
	DetailHost      DetailKind = "host"
	DetailTrust     DetailKind = "trusted"
	DetailProtocol  DetailKind = "https"
	DetailIPHost    DetailKind = "usesIP"
	DetailTLD       DetailKind = "suspiciousTLD"
	DetailSubdomain DetailKind = "manySubdomains"
	DetailTyposquat DetailKind = "typosquat"
	DetailKeywords  DetailKind = "suspiciousKeywords"
	DetailHomograph DetailKind = "homograph"
	DetailEntropy   DetailKind = "entropy"
	DetailLength    DetailKind = "longURL"
	DetailShortener DetailKind = "shortened"
	DetailRedirect  DetailKind = "embeddedRedirect"
	DetailError     DetailKind = "error"
)

// Detail is one variant of the per-detector evidence union.
// Only types in this package implement it.
type Detail interface {
	Kind() DetailKind
	isDetail()
}

// HostDetail records the normalized host and scheme that were analyzed
type HostDetail struct {
	Hostname string `json:"hostname"`
	Protocol string `json:"protocol"`
}

// TrustDetail records allow-list membership
type TrustDetail struct {
	Trusted bool `json:"trusted"`
}

// ProtocolDetail records whether the URL is encrypted
type ProtocolDetail struct {
	HTTPS bool `json:"https"`
}

// IPHostDetail is set when the host is a dotted-quad literal
type IPHostDetail struct {
	UsesIP bool `json:"uses_ip"`
}

// TLDDetail names the abused top-level domain
type TLDDetail struct {
	TLD string `json:"tld"`
}

// SubdomainDetail carries the label count of an over-deep host
type SubdomainDetail struct {
	Labels int `json:"labels"`
}

// TyposquatDetail names the brand a label imitates
type TyposquatDetail struct {
	Label    string `json:"label"`
	Brand    string `json:"brand"`
	Distance int    `json:"distance"`
}

// KeywordDetail lists every sensitive keyword found in the URL
type KeywordDetail struct {
	Keywords []string `json:"keywords"`
}

// HomographDetail explains an internationalized or mixed-script host
type HomographDetail struct {
	Punycode    bool   `json:"punycode"`
	MixedScript bool   `json:"mixed_script"`
	Unicode     string `json:"unicode,omitempty"` // Decoded form of a punycode host
}

// EntropyDetail carries the measured randomness of the registered label
type EntropyDetail struct {
	Label string  `json:"label"`
	Bits  float64 `json:"bits"`
}

// LengthDetail carries the raw length of an oversized URL
type LengthDetail struct {
	Length int `json:"length"`
}

// ShortenerDetail names the shortening service
type ShortenerDetail struct {
	Host string `json:"host"`
}

// RedirectDetail counts embedded scheme occurrences
type RedirectDetail struct {
	Schemes int `json:"schemes"`
}

// ErrorDetail holds the reason an analysis could not complete
type ErrorDetail struct {
	Error string `json:"error"`
}

func (HostDetail) Kind() DetailKind      { return DetailHost }
func (TrustDetail) Kind() DetailKind     { return DetailTrust }
func (ProtocolDetail) Kind() DetailKind  { return DetailProtocol }
func (IPHostDetail) Kind() DetailKind    { return DetailIPHost }
func (TLDDetail) Kind() DetailKind       { return DetailTLD }
func (SubdomainDetail) Kind() DetailKind { return DetailSubdomain }
func (TyposquatDetail) Kind() DetailKind { return DetailTyposquat }
func (KeywordDetail) Kind() DetailKind   { return DetailKeywords }
func (HomographDetail) Kind() DetailKind { return DetailHomograph }
func (EntropyDetail) Kind() DetailKind   { return DetailEntropy }
func (LengthDetail) Kind() DetailKind    { return DetailLength }
func (ShortenerDetail) Kind() DetailKind { return DetailShortener }
func (RedirectDetail) Kind() DetailKind  { return DetailRedirect }
func (ErrorDetail) Kind() DetailKind     { return DetailError }

func (HostDetail) isDetail()      {}
func (TrustDetail) isDetail()     {}
func (ProtocolDetail) isDetail()  {}
func (IPHostDetail) isDetail()    {}
func (TLDDetail) isDetail()       {}
func (SubdomainDetail) isDetail() {}
func (TyposquatDetail) isDetail() {}
func (KeywordDetail) isDetail()   {}
func (HomographDetail) isDetail() {}
func (EntropyDetail) isDetail()   {}
func (LengthDetail) isDetail()    {}
func (ShortenerDetail) isDetail() {}
func (RedirectDetail) isDetail()  {}
func (ErrorDetail) isDetail()     {}

// Details is the ordered evidence collected during one analysis
type Details []Detail

// Get returns the first detail of the given kind
func (d Details) Get(kind DetailKind) (Detail, bool) {
	for _, detail := range d {
		if detail.Kind() == kind {
			return detail, true
		}
	}
	return nil, false
}

// Clone copies the slice and any variant that owns a slice
func (d Details) Clone() Details {
	if d == nil {
		return nil
	}
	out := make(Details, len(d))
	for i, detail := range d {
		if kw, ok := detail.(KeywordDetail); ok {
			kw.Keywords = append([]string(nil), kw.Keywords...)
			detail = kw
		}
		out[i] = detail
	}
	return out
}

// MarshalJSON renders details as an object keyed by kind, in collection order
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, detail := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(detail.Kind()))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(detail)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
