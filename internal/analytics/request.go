// Package analytics aggregates click events into dashboard views and runs
// the daily rollup over the event log.
package analytics

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/cinelink/cinelink/internal/model"
)

const maxMetaLength = 500

// SanitizeReferrer strips query parameters and fragments from a referrer and
// truncates it. Unparseable values are dropped.
func SanitizeReferrer(ref string) string {
	if ref == "" {
		return ""
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""

	return truncate(parsed.String(), maxMetaLength)
}

// TruncateUserAgent truncates a user agent to the stored maximum.
func TruncateUserAgent(ua string) string {
	return truncate(ua, maxMetaLength)
}

// CountryCode normalizes an ISO country header value. Anything other than a
// two-letter code yields "".
func CountryCode(header string) string {
	header = strings.TrimSpace(header)
	if len(header) != 2 {
		return ""
	}
	return strings.ToUpper(header)
}

// NormalizeRequest cleans caller metadata before it is attached to an event.
func NormalizeRequest(info model.RequestInfo) model.RequestInfo {
	return model.RequestInfo{
		UserAgent: TruncateUserAgent(info.UserAgent),
		IPAddress: truncate(strings.TrimSpace(info.IPAddress), 64),
		Referer:   SanitizeReferrer(info.Referer),
		Country:   CountryCode(info.Country),
		City:      truncate(strings.TrimSpace(info.City), 100),
	}
}

// ValidateClickEvent checks an event before it is persisted.
func ValidateClickEvent(event *model.ClickEvent) error {
	if event.ID == "" {
		return fmt.Errorf("id is required")
	}
	if event.MovieID == "" {
		return fmt.Errorf("movie_id is required")
	}
	if event.Timestamp.IsZero() {
		return fmt.Errorf("timestamp must be set")
	}
	if event.Country != "" && len(event.Country) != 2 {
		return fmt.Errorf("country must be 2 chars")
	}
	if len(event.Referer) > maxMetaLength {
		return fmt.Errorf("referer too long")
	}
	if len(event.UserAgent) > maxMetaLength {
		return fmt.Errorf("user_agent too long")
	}
	return nil
}

// truncate drops invalid UTF-8 and cuts s to at most n bytes on a rune
// boundary. Postgres rejects invalid byte sequences in TEXT columns.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
