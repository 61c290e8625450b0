package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Key families. Every cached view is stored under exactly one family so that
// writes can drop the whole family with a single pattern.
const (
	FamilyMovies                = "movies"
	FamilyFeaturedMovies        = "featured_movies"
	FamilyPopularMovies         = "popular_movies"
	FamilyEpisodes              = "episodes"
	FamilyGenres                = "genres"
	FamilyTags                  = "tags"
	FamilyAnalyticsOverview     = "analytics_overview"
	FamilyAnalyticsTopMovies    = "analytics_top_movies"
	FamilyAnalyticsHourlyClicks = "analytics_hourly_clicks"
	FamilyAnalyticsDailyClicks  = "analytics_daily_clicks"
	FamilyAnalyticsReferrers    = "analytics_referrers"
	FamilyAnalyticsMovieStats   = "analytics_movie_stats"
	FamilyClientDashboard       = "client_dashboard"
	FamilyClientMovies          = "client_movies_analytics"
)

// DefaultTTL applies to families without an explicit entry in familyTTLs.
const DefaultTTL = 5 * time.Minute

var familyTTLs = map[string]time.Duration{
	FamilyMovies:                5 * time.Minute,
	FamilyFeaturedMovies:        10 * time.Minute,
	FamilyPopularMovies:         5 * time.Minute,
	FamilyEpisodes:              5 * time.Minute,
	FamilyGenres:                time.Hour,
	FamilyTags:                  time.Hour,
	FamilyAnalyticsOverview:     10 * time.Minute,
	FamilyAnalyticsTopMovies:    5 * time.Minute,
	FamilyAnalyticsHourlyClicks: 30 * time.Minute,
	FamilyAnalyticsDailyClicks:  10 * time.Minute,
	FamilyAnalyticsReferrers:    10 * time.Minute,
	FamilyAnalyticsMovieStats:   5 * time.Minute,
	FamilyClientDashboard:       5 * time.Minute,
	FamilyClientMovies:          2 * time.Minute,
}

// TTL returns the expiry used for entries of the given family.
func TTL(family string) time.Duration {
	if ttl, ok := familyTTLs[family]; ok {
		return ttl
	}
	return DefaultTTL
}

// Params is the parameter bag a cached view was computed from.
// Nil values, nil pointers and empty strings are treated as absent.
type Params map[string]any

const (
	paramSep = '|'
	escape   = '\\'
)

// Key builds the cache key for a view: "family" when no parameter is present,
// otherwise "family:name1:value1|name2:value2" with names sorted.
func Key(family string, params Params) string {
	names := make([]string, 0, len(params))
	values := make(map[string]string, len(params))
	for name, v := range params {
		rendered, ok := renderValue(v)
		if !ok {
			continue
		}
		names = append(names, name)
		values[name] = rendered
	}
	if len(names) == 0 {
		return family
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(family)
	b.WriteByte(':')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(paramSep)
		}
		b.WriteString(paramToken(name, values[name]))
	}
	return b.String()
}

// FamilyOf returns the family component of a key.
func FamilyOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// keyHasParam reports whether key belongs to family and carries name:value.
func keyHasParam(key, family, name string, value any) bool {
	rendered, ok := renderValue(value)
	if !ok || !strings.HasPrefix(key, family+":") {
		return false
	}
	want := paramToken(name, rendered)
	for _, segment := range splitParams(key[len(family)+1:]) {
		if segment == want {
			return true
		}
	}
	return false
}

func paramToken(name, rendered string) string {
	return name + ":" + escapeValue(rendered)
}

// splitParams splits a key body on unescaped separators.
func splitParams(body string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case escape:
			i++
		case paramSep:
			parts = append(parts, body[start:i])
			start = i + 1
		}
	}
	return append(parts, body[start:])
}

func escapeValue(s string) string {
	if !strings.ContainsAny(s, `\|`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == escape || s[i] == paramSep {
			b.WriteByte(escape)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// renderValue formats a parameter value; ok is false for absent values.
func renderValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return x.UTC().Format(time.RFC3339Nano), true
	case *time.Time:
		if x == nil {
			return "", false
		}
		return renderValue(*x)
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "", false
		}
		s := x.String()
		return s, s != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
		return renderValue(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), rv.Len() > 0
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return "", false
		}
	}
	return fmt.Sprint(v), true
}

// globEscape escapes Redis glob metacharacters.
func globEscape(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
