package dedup

import (
	"net/url"
	"strings"
	"unicode"
)

// trackingParams are query keys stripped during URL normalization so that
// links shared through different channels still compare equal.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {},
	"utm_content": {}, "fbclid": {}, "gclid": {}, "msclkid": {}, "ref": {},
	"source": {}, "mc_cid": {}, "mc_eid": {}, "_ga": {}, "_gl": {},
	"ncid": {}, "sr_share": {}, "ocid": {}, "cvid": {}, "ei": {}, "oref": {},
}

// NormalizeURL canonicalizes a link for duplicate detection: drops scheme
// and fragment, strips a leading "www.", trailing path slashes and tracking
// query parameters, and keeps the remaining query in its original order.
// On parse failure it falls back to a lower-cased trimmed copy of the input.
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	lowered := strings.ToLower(strings.TrimSpace(raw))
	u, err := url.Parse(lowered)
	if err != nil {
		return lowered
	}

	host := strings.TrimPrefix(u.Host, "www.")
	path := strings.TrimRight(u.EscapedPath(), "/")
	query := filterQuery(u.RawQuery)

	normalized := host + path
	if query != "" {
		normalized += "?" + query
	}
	return strings.Trim(normalized, "/")
}

// filterQuery re-encodes a raw query string without tracking parameters,
// preserving multi-value structure and the relative order of keys.
func filterQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	var keys []string
	values := map[string][]string{}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value := pair, ""
		if idx := strings.Index(pair, "="); idx >= 0 {
			key, value = pair[:idx], pair[idx+1:]
		}
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		if decodedKey == "" {
			continue
		}
		if _, tracked := trackingParams[strings.ToLower(decodedKey)]; tracked {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			decodedValue = value
		}
		if _, seen := values[decodedKey]; !seen {
			keys = append(keys, decodedKey)
		}
		values[decodedKey] = append(values[decodedKey], decodedValue)
	}

	var b strings.Builder
	for _, key := range keys {
		for _, value := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(value))
		}
	}
	return b.String()
}

// NormalizeText lower-cases text, drops everything that is not a letter,
// digit or whitespace, and collapses whitespace runs to single spaces.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	kept := make([]rune, 0, len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			kept = append(kept, r)
		}
	}
	return strings.Join(strings.Fields(string(kept)), " ")
}
