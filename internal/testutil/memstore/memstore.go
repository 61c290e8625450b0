// Package memstore is an in-memory implementation of the catalog, episode
// and click event stores for unit tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/repository"
)

// Store keeps every record in maps guarded by one mutex. It mirrors the
// repository's not-found, duplicate and filter semantics.
type Store struct {
	mu        sync.Mutex
	movies    map[string]*model.Movie
	episodes  map[string]*model.Episode
	events    []*model.ClickEvent
	summaries map[string]model.DailyMovieSummary
	failures  map[string]error
	calls     map[string]int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		movies:    make(map[string]*model.Movie),
		episodes:  make(map[string]*model.Episode),
		summaries: make(map[string]model.DailyMovieSummary),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

// Fail makes every later call to method return err. A nil err clears it.
func (s *Store) Fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// Calls returns how many times method was invoked.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// ResetCalls zeroes every call counter.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// enter records a call and returns the injected failure, if any. The caller
// must hold s.mu.
func (s *Store) enter(method string) error {
	s.calls[method]++
	return s.failures[method]
}

// ============================================================================
// Movies
// ============================================================================

func (s *Store) CreateMovie(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateMovie"); err != nil {
		return err
	}
	if _, ok := s.movies[m.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range s.movies {
		if existing.Slug == m.Slug {
			return repository.ErrDuplicate
		}
	}
	s.movies[m.ID] = cloneMovie(m)
	return nil
}

func (s *Store) GetMovie(_ context.Context, id string) (*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetMovie"); err != nil {
		return nil, err
	}
	m, ok := s.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneMovie(m), nil
}

func (s *Store) GetMovieBySlug(_ context.Context, slug string) (*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetMovieBySlug"); err != nil {
		return nil, err
	}
	for _, m := range s.movies {
		if m.Slug == slug && m.IsActive {
			return cloneMovie(m), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateMovie(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateMovie"); err != nil {
		return err
	}
	existing, ok := s.movies[m.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.movies {
		if other.ID != m.ID && other.Slug == m.Slug {
			return repository.ErrDuplicate
		}
	}
	updated := cloneMovie(m)
	updated.ClickCount = existing.ClickCount
	updated.LastClicked = existing.LastClicked
	updated.CreatedAt = existing.CreatedAt
	s.movies[m.ID] = updated
	return nil
}

func (s *Store) DeactivateMovie(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeactivateMovie"); err != nil {
		return err
	}
	m, ok := s.movies[id]
	if !ok || !m.IsActive {
		return repository.ErrNotFound
	}
	m.IsActive = false
	return nil
}

func (s *Store) ToggleFeatured(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ToggleFeatured"); err != nil {
		return false, err
	}
	m, ok := s.movies[id]
	if !ok || !m.IsActive {
		return false, repository.ErrNotFound
	}
	m.IsFeatured = !m.IsFeatured
	return m.IsFeatured, nil
}

func (s *Store) IncrementMovieClicks(_ context.Context, id string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("IncrementMovieClicks"); err != nil {
		return 0, err
	}
	m, ok := s.movies[id]
	if !ok || !m.IsActive {
		return 0, repository.ErrNotFound
	}
	m.ClickCount++
	clicked := at
	m.LastClicked = &clicked
	return m.ClickCount, nil
}

func (s *Store) ListMovies(_ context.Context, filter model.MovieFilter) ([]*model.Movie, int64, error) {
	filter.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListMovies"); err != nil {
		return nil, 0, err
	}

	var matched []*model.Movie
	for _, m := range s.movies {
		if matchMovie(m, filter) {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		c := compareMovies(matched[i], matched[j], filter.Sort)
		if c == 0 {
			return matched[i].ID > matched[j].ID
		}
		if filter.SortAsc {
			return c < 0
		}
		return c > 0
	})

	return page(matched, filter.Offset(), filter.Limit, cloneMovie), int64(len(matched)), nil
}

func (s *Store) ListFeatured(_ context.Context, limit int) ([]*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListFeatured"); err != nil {
		return nil, err
	}

	var matched []*model.Movie
	for _, m := range s.movies {
		if m.IsActive && m.IsFeatured {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, 0, limit, cloneMovie), nil
}

func (s *Store) ListPopular(_ context.Context, limit int, typ model.MovieType) ([]*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListPopular"); err != nil {
		return nil, err
	}

	var matched []*model.Movie
	for _, m := range s.movies {
		if m.IsActive && (typ == "" || m.Type == typ) {
			matched = append(matched, m)
		}
	}
	sortByClicks(matched)
	return page(matched, 0, limit, cloneMovie), nil
}

func (s *Store) DistinctGenres(_ context.Context) ([]string, error) {
	return s.distinct("DistinctGenres", func(m *model.Movie) []string { return m.Genres })
}

func (s *Store) DistinctTags(_ context.Context) ([]string, error) {
	return s.distinct("DistinctTags", func(m *model.Movie) []string { return m.Tags })
}

func (s *Store) distinct(method string, values func(*model.Movie) []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(method); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range s.movies {
		if !m.IsActive {
			continue
		}
		for _, v := range values(m) {
			if _, ok := seen[v]; ok || v == "" {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CountActiveByType(_ context.Context) (movies, series int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountActiveByType"); err != nil {
		return 0, 0, err
	}
	for _, m := range s.movies {
		if !m.IsActive {
			continue
		}
		switch m.Type {
		case model.TypeMovie:
			movies++
		case model.TypeSeries:
			series++
		}
	}
	return movies, series, nil
}

func (s *Store) SumActiveClicks(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SumActiveClicks"); err != nil {
		return 0, err
	}
	var total int64
	for _, m := range s.movies {
		if m.IsActive {
			total += m.ClickCount
		}
	}
	return total, nil
}

func (s *Store) TopMovies(_ context.Context, filter model.TopMoviesFilter) ([]model.TopMovie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("TopMovies"); err != nil {
		return nil, err
	}

	var matched []*model.Movie
	for _, m := range s.movies {
		if !m.IsActive || (filter.Type != "" && m.Type != filter.Type) {
			continue
		}
		if filter.ClickedSince != nil && (m.LastClicked == nil || m.LastClicked.Before(*filter.ClickedSince)) {
			continue
		}
		matched = append(matched, m)
	}
	if filter.OrderByLastClicked {
		sort.Slice(matched, func(i, j int) bool {
			a, b := matched[i].LastClicked, matched[j].LastClicked
			switch {
			case a == nil || b == nil:
				return a != nil
			case !a.Equal(*b):
				return a.After(*b)
			}
			return matched[i].ID > matched[j].ID
		})
	} else {
		sortByClicks(matched)
	}

	return page(matched, 0, filter.Limit, func(m *model.Movie) model.TopMovie {
		return model.TopMovie{
			ID:          m.ID,
			Title:       m.Title,
			Slug:        m.Slug,
			Type:        m.Type,
			PosterURL:   m.PosterURL,
			ClickCount:  m.ClickCount,
			LastClicked: m.LastClicked,
		}
	}), nil
}

// ============================================================================
// Episodes
// ============================================================================

func (s *Store) CreateEpisode(_ context.Context, e *model.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateEpisode"); err != nil {
		return err
	}
	if _, ok := s.episodes[e.ID]; ok {
		return repository.ErrDuplicate
	}
	if s.findEpisode(e.MovieID, e.Season, e.EpisodeNumber) != nil {
		return repository.ErrDuplicate
	}
	s.episodes[e.ID] = cloneEpisode(e)
	return nil
}

func (s *Store) UpsertEpisode(_ context.Context, e *model.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertEpisode"); err != nil {
		return err
	}

	existing := s.findEpisode(e.MovieID, e.Season, e.EpisodeNumber)
	if existing == nil {
		stored := cloneEpisode(e)
		stored.ClickCount = 0
		stored.CreatedAt = e.UpdatedAt
		s.episodes[stored.ID] = stored
		*e = *cloneEpisode(stored)
		return nil
	}

	existing.Title = e.Title
	existing.Description = e.Description
	existing.Duration = e.Duration
	existing.ThumbnailURL = e.ThumbnailURL
	existing.TrailerURL = e.TrailerURL
	existing.WatchURL = e.WatchURL
	existing.IsPublished = e.IsPublished
	existing.UpdatedAt = e.UpdatedAt
	*e = *cloneEpisode(existing)
	return nil
}

func (s *Store) GetEpisode(_ context.Context, id string) (*model.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetEpisode"); err != nil {
		return nil, err
	}
	e, ok := s.episodes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneEpisode(e), nil
}

func (s *Store) UpdateEpisode(_ context.Context, e *model.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateEpisode"); err != nil {
		return err
	}
	existing, ok := s.episodes[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if other := s.findEpisode(e.MovieID, e.Season, e.EpisodeNumber); other != nil && other.ID != e.ID {
		return repository.ErrDuplicate
	}
	updated := cloneEpisode(e)
	updated.ClickCount = existing.ClickCount
	updated.CreatedAt = existing.CreatedAt
	s.episodes[e.ID] = updated
	return nil
}

func (s *Store) UnpublishEpisode(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UnpublishEpisode"); err != nil {
		return err
	}
	e, ok := s.episodes[id]
	if !ok || !e.IsPublished {
		return repository.ErrNotFound
	}
	e.IsPublished = false
	return nil
}

func (s *Store) IncrementEpisodeClicks(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("IncrementEpisodeClicks"); err != nil {
		return 0, err
	}
	e, ok := s.episodes[id]
	if !ok || !e.IsPublished {
		return 0, repository.ErrNotFound
	}
	e.ClickCount++
	return e.ClickCount, nil
}

func (s *Store) ListEpisodes(_ context.Context, filter model.EpisodeFilter) ([]*model.Episode, int64, error) {
	filter.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListEpisodes"); err != nil {
		return nil, 0, err
	}

	var matched []*model.Episode
	for _, e := range s.episodes {
		if e.MovieID != filter.MovieID {
			continue
		}
		if filter.Season != 0 && e.Season != filter.Season {
			continue
		}
		if !filter.IncludeUnpublished && !e.IsPublished {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Season != matched[j].Season {
			return matched[i].Season < matched[j].Season
		}
		return matched[i].EpisodeNumber < matched[j].EpisodeNumber
	})

	return page(matched, filter.Offset(), filter.Limit, cloneEpisode), int64(len(matched)), nil
}

func (s *Store) ListSeasons(_ context.Context, movieID string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListSeasons"); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	seasons := []int{}
	for _, e := range s.episodes {
		if e.MovieID != movieID || !e.IsPublished {
			continue
		}
		if _, ok := seen[e.Season]; !ok {
			seen[e.Season] = struct{}{}
			seasons = append(seasons, e.Season)
		}
	}
	sort.Ints(seasons)
	return seasons, nil
}

// findEpisode looks up an episode by its natural key. The caller must hold
// s.mu.
func (s *Store) findEpisode(movieID string, season, number int) *model.Episode {
	for _, e := range s.episodes {
		if e.MovieID == movieID && e.Season == season && e.EpisodeNumber == number {
			return e
		}
	}
	return nil
}

// ============================================================================
// Click events
// ============================================================================

func (s *Store) Insert(_ context.Context, event *model.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Insert"); err != nil {
		return err
	}
	copied := *event
	s.events = append(s.events, &copied)
	return nil
}

// Events returns a copy of every stored click event.
func (s *Store) Events() []model.ClickEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ClickEvent, len(s.events))
	for i, e := range s.events {
		out[i] = *e
	}
	return out
}

func (s *Store) CountSince(_ context.Context, since time.Time, movieID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountSince"); err != nil {
		return 0, err
	}
	var count int64
	for _, e := range s.events {
		if !e.Timestamp.Before(since) && (movieID == "" || e.MovieID == movieID) {
			count++
		}
	}
	return count, nil
}

func (s *Store) HourlyHistogram(_ context.Context, since time.Time) ([]model.HourlyClicks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("HourlyHistogram"); err != nil {
		return nil, err
	}

	counts := make(map[int]int64)
	for _, e := range s.events {
		if !e.Timestamp.Before(since) {
			counts[e.Timestamp.UTC().Hour()]++
		}
	}
	buckets := make([]model.HourlyClicks, 0, len(counts))
	for hour, clicks := range counts {
		buckets = append(buckets, model.HourlyClicks{Hour: hour, Clicks: clicks})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Hour < buckets[j].Hour })
	return buckets, nil
}

func (s *Store) DailyHistogram(_ context.Context, since time.Time, movieID string) ([]model.DailyClicks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DailyHistogram"); err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, e := range s.events {
		if !e.Timestamp.Before(since) && (movieID == "" || e.MovieID == movieID) {
			counts[e.Timestamp.UTC().Format(time.DateOnly)]++
		}
	}
	buckets := make([]model.DailyClicks, 0, len(counts))
	for day, clicks := range counts {
		buckets = append(buckets, model.DailyClicks{Date: day, Clicks: clicks})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })
	return buckets, nil
}

func (s *Store) TopReferrers(_ context.Context, movieID string, since time.Time, limit int) ([]model.ReferrerCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("TopReferrers"); err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, e := range s.events {
		if (movieID == "" || e.MovieID == movieID) && !e.Timestamp.Before(since) && e.Referer != "" {
			counts[e.Referer]++
		}
	}
	referrers := make([]model.ReferrerCount, 0, len(counts))
	for ref, count := range counts {
		referrers = append(referrers, model.ReferrerCount{Referer: ref, Count: count})
	}
	sort.Slice(referrers, func(i, j int) bool {
		if referrers[i].Count != referrers[j].Count {
			return referrers[i].Count > referrers[j].Count
		}
		return referrers[i].Referer < referrers[j].Referer
	})
	return page(referrers, 0, limit, identity[model.ReferrerCount]), nil
}

func (s *Store) ClicksByMovie(_ context.Context, since time.Time, limit, offset int) ([]model.MovieClickCount, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ClicksByMovie"); err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int64)
	for _, e := range s.events {
		if m, ok := s.movies[e.MovieID]; ok && m.IsActive && !e.Timestamp.Before(since) {
			counts[e.MovieID]++
		}
	}
	ranked := make([]model.MovieClickCount, 0, len(counts))
	for id, clicks := range counts {
		m := s.movies[id]
		ranked = append(ranked, model.MovieClickCount{MovieID: id, Title: m.Title, Type: m.Type, Clicks: clicks})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Clicks != ranked[j].Clicks {
			return ranked[i].Clicks > ranked[j].Clicks
		}
		return ranked[i].MovieID < ranked[j].MovieID
	})
	return page(ranked, offset, limit, identity[model.MovieClickCount]), int64(len(ranked)), nil
}

func (s *Store) ListByMovie(_ context.Context, movieID string, limit, offset int) ([]*model.ClickEvent, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListByMovie"); err != nil {
		return nil, 0, err
	}

	var matched []*model.ClickEvent
	for _, e := range s.events {
		if e.MovieID == movieID {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})
	return page(matched, offset, limit, func(e *model.ClickEvent) *model.ClickEvent {
		copied := *e
		return &copied
	}), int64(len(matched)), nil
}

func (s *Store) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteBefore"); err != nil {
		return 0, err
	}

	kept := s.events[:0]
	var deleted int64
	for _, e := range s.events {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

func (s *Store) EventsBetween(_ context.Context, from, to time.Time) ([]*model.ClickEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("EventsBetween"); err != nil {
		return nil, err
	}

	var out []*model.ClickEvent
	for _, e := range s.events {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *Store) UpsertDailySummaries(_ context.Context, summaries []model.DailyMovieSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertDailySummaries"); err != nil {
		return err
	}
	for _, summary := range summaries {
		s.summaries[summaryKey(summary.MovieID, summary.Date)] = summary
	}
	return nil
}

// Summary returns the stored rollup for a movie and day.
func (s *Store) Summary(movieID string, day time.Time) (model.DailyMovieSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[summaryKey(movieID, day)]
	return summary, ok
}

func summaryKey(movieID string, day time.Time) string {
	return fmt.Sprintf("%s@%s", movieID, day.UTC().Format(time.DateOnly))
}

// ============================================================================
// Helpers
// ============================================================================

func matchMovie(m *model.Movie, f model.MovieFilter) bool {
	switch {
	case !f.IncludeInactive && !m.IsActive:
		return false
	case f.Type != "" && m.Type != f.Type:
		return false
	case f.Genre != "" && !contains(m.Genres, f.Genre):
		return false
	case f.Tag != "" && !contains(m.Tags, f.Tag):
		return false
	case f.Year > 0 && m.Year != f.Year:
		return false
	case f.Language != "" && m.Language != f.Language:
		return false
	case f.Featured != nil && m.IsFeatured != *f.Featured:
		return false
	}
	if f.Search != "" {
		text := strings.ToLower(m.Title + " " + m.OriginalTitle + " " + m.Description)
		for _, word := range strings.Fields(strings.ToLower(f.Search)) {
			if !strings.Contains(text, word) {
				return false
			}
		}
	}
	return true
}

func compareMovies(a, b *model.Movie, by model.MovieSort) int {
	switch by {
	case model.SortClickCount:
		return cmpOrdered(a.ClickCount, b.ClickCount)
	case model.SortTitle:
		return strings.Compare(a.Title, b.Title)
	case model.SortYear:
		return cmpOrdered(a.Year, b.Year)
	case model.SortRating:
		return cmpOrdered(a.Rating, b.Rating)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func sortByClicks(movies []*model.Movie) {
	sort.Slice(movies, func(i, j int) bool {
		if movies[i].ClickCount != movies[j].ClickCount {
			return movies[i].ClickCount > movies[j].ClickCount
		}
		return movies[i].ID > movies[j].ID
	})
}

func page[T, U any](items []T, offset, limit int, convert func(T) U) []U {
	out := make([]U, 0)
	if offset >= len(items) {
		return out
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	for _, item := range items[offset:end] {
		out = append(out, convert(item))
	}
	return out
}

func identity[T any](v T) T { return v }

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func cloneMovie(m *model.Movie) *model.Movie {
	copied := *m
	copied.Genres = append([]string(nil), m.Genres...)
	copied.Tags = append([]string(nil), m.Tags...)
	if m.LastClicked != nil {
		clicked := *m.LastClicked
		copied.LastClicked = &clicked
	}
	return &copied
}

func cloneEpisode(e *model.Episode) *model.Episode {
	copied := *e
	return &copied
}
