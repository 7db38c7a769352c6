package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Params is an ordered query parameter list. Exchanges sign the exact bytes
// of the query string, so insertion order is preserved on encode.
type Params struct {
	keys   []string
	values map[string]string
}

func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Set adds or replaces a parameter. A replaced key keeps its position.
func (p *Params) Set(key, value string) *Params {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Encode renders the parameters as application/x-www-form-urlencoded text
// in insertion order, byte-compatible with WHATWG URLSearchParams.
func (p *Params) Encode() string {
	var sb strings.Builder
	for i, key := range p.keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		formEscape(&sb, key)
		sb.WriteByte('=')
		formEscape(&sb, p.values[key])
	}
	return sb.String()
}

const upperhex = "0123456789ABCDEF"

func formEscape(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			sb.WriteByte(c)
		case c == ' ':
			sb.WriteByte('+')
		default:
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&15])
		}
	}
}

// Sign returns the lowercase hex HMAC-SHA256 of message keyed by secret.
func Sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
