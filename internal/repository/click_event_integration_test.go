//go:build integration

package repository

import (
	"testing"
	"time"

	"github.com/cinelink/cinelink/internal/model"
	"github.com/cinelink/cinelink/internal/testutil"
)

func TestIntegrationClickEvent_InsertAndList(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	events := NewClickEventRepository(repo)

	m := testutil.NewTestMovie(t, "Amelie")
	if err := repo.CreateMovie(ctx, m); err != nil {
		t.Fatalf("CreateMovie() error = %v", err)
	}

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	first := testutil.NewTestClickEvent(t, m.ID, base)
	first.Referer = "https://t.me/cinelink"
	first.Country = "FR"
	first.City = "Paris"
	second := testutil.NewTestClickEvent(t, m.ID, base.Add(time.Minute))
	second.EpisodeID = "episode-1"

	for _, e := range []*model.ClickEvent{first, second} {
		if err := events.Insert(ctx, e); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	list, total, err := events.ListByMovie(ctx, m.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByMovie() error = %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("ListByMovie() total = %d len = %d", total, len(list))
	}
	if list[0].ID != second.ID || list[0].EpisodeID != "episode-1" || list[0].Referer != "" {
		t.Errorf("newest event = %+v", list[0])
	}
	if list[1].Referer != first.Referer || list[1].Country != "FR" || list[1].City != "Paris" {
		t.Errorf("oldest event = %+v", list[1])
	}

	page, _, _ := events.ListByMovie(ctx, m.ID, 1, 1)
	if len(page) != 1 || page[0].ID != first.ID {
		t.Errorf("ListByMovie(offset 1) = %+v", page)
	}
}

func TestIntegrationClickEvent_Aggregations(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	events := NewClickEventRepository(repo)

	a := testutil.NewTestMovie(t, "A")
	b := testutil.NewTestMovie(t, "B")
	for _, m := range []*model.Movie{a, b} {
		if err := repo.CreateMovie(ctx, m); err != nil {
			t.Fatalf("CreateMovie() error = %v", err)
		}
	}

	day1 := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC)
	seed := []struct {
		movie   string
		at      time.Time
		referer string
	}{
		{a.ID, day1, "https://t.me/x"},
		{a.ID, day1.Add(10 * time.Minute), "https://t.me/x"},
		{b.ID, day1.Add(20 * time.Minute), "https://google.com/"},
		{a.ID, day2, ""},
		{b.ID, day2.Add(time.Hour), "https://t.me/x"},
	}
	for _, s := range seed {
		e := testutil.NewTestClickEvent(t, s.movie, s.at)
		e.Referer = s.referer
		if err := events.Insert(ctx, e); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	count, err := events.CountSince(ctx, since, "")
	if err != nil || count != 5 {
		t.Errorf("CountSince(all) = %d, %v; want 5", count, err)
	}
	count, _ = events.CountSince(ctx, day2, a.ID)
	if count != 1 {
		t.Errorf("CountSince(day2, a) = %d, want 1", count)
	}

	hourly, err := events.HourlyHistogram(ctx, since)
	if err != nil {
		t.Fatalf("HourlyHistogram() error = %v", err)
	}
	wantHourly := map[int]int64{9: 3, 14: 1, 15: 1}
	if len(hourly) != len(wantHourly) {
		t.Fatalf("HourlyHistogram() = %+v", hourly)
	}
	for _, h := range hourly {
		if wantHourly[h.Hour] != h.Clicks {
			t.Errorf("hour %d = %d, want %d", h.Hour, h.Clicks, wantHourly[h.Hour])
		}
	}

	daily, err := events.DailyHistogram(ctx, since, "")
	if err != nil {
		t.Fatalf("DailyHistogram() error = %v", err)
	}
	if len(daily) != 2 || daily[0].Date != "2024-01-01" || daily[0].Clicks != 3 || daily[1].Clicks != 2 {
		t.Errorf("DailyHistogram() = %+v", daily)
	}
	dailyA, _ := events.DailyHistogram(ctx, since, a.ID)
	if len(dailyA) != 2 || dailyA[0].Clicks != 2 {
		t.Errorf("DailyHistogram(a) = %+v", dailyA)
	}

	refs, err := events.TopReferrers(ctx, a.ID, since, 10)
	if err != nil {
		t.Fatalf("TopReferrers() error = %v", err)
	}
	if len(refs) != 1 || refs[0].Referer != "https://t.me/x" || refs[0].Count != 2 {
		t.Errorf("TopReferrers(a) = %+v", refs)
	}
	allRefs, _ := events.TopReferrers(ctx, "", since, 10)
	if len(allRefs) != 2 || allRefs[0].Count != 3 || allRefs[1].Referer != "https://google.com/" {
		t.Errorf("TopReferrers(all) = %+v", allRefs)
	}
	limited, _ := events.TopReferrers(ctx, "", since, 1)
	if len(limited) != 1 {
		t.Errorf("TopReferrers(limit 1) len = %d", len(limited))
	}

	byMovie, total, err := events.ClicksByMovie(ctx, since, 10, 0)
	if err != nil {
		t.Fatalf("ClicksByMovie() error = %v", err)
	}
	if total != 2 || len(byMovie) != 2 || byMovie[0].MovieID != a.ID || byMovie[0].Clicks != 3 {
		t.Errorf("ClicksByMovie() = %+v (total %d)", byMovie, total)
	}

	if err := repo.DeactivateMovie(ctx, b.ID); err != nil {
		t.Fatalf("DeactivateMovie() error = %v", err)
	}
	_, total, _ = events.ClicksByMovie(ctx, since, 10, 0)
	if total != 1 {
		t.Errorf("ClicksByMovie() after deactivate total = %d, want 1", total)
	}
}

func TestIntegrationClickEvent_RetentionAndRollup(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	events := NewClickEventRepository(repo)

	cutoff := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		cutoff.Add(-time.Second),
		cutoff,
		cutoff.Add(time.Hour),
	}
	for i, at := range times {
		e := testutil.NewTestClickEvent(t, "movie-1", at)
		if i == 2 {
			e.IPAddress = "198.51.100.7"
		}
		if err := events.Insert(ctx, e); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	window, err := events.EventsBetween(ctx, cutoff, cutoff.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("EventsBetween() error = %v", err)
	}
	if len(window) != 2 {
		t.Errorf("EventsBetween() len = %d, want 2", len(window))
	}

	deleted, err := events.DeleteBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteBefore() = %d, want 1 (boundary is exclusive)", deleted)
	}
	remaining, _ := events.CountSince(ctx, time.Time{}, "")
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2", remaining)
	}

	summaries := []model.DailyMovieSummary{{MovieID: "movie-1", Date: cutoff, Clicks: 1, UniqueIPs: 1}}
	if err := events.UpsertDailySummaries(ctx, summaries); err != nil {
		t.Fatalf("UpsertDailySummaries() error = %v", err)
	}
	summaries[0].Clicks = 2
	summaries[0].UniqueIPs = 2
	if err := events.UpsertDailySummaries(ctx, summaries); err != nil {
		t.Fatalf("second UpsertDailySummaries() error = %v", err)
	}
	if err := events.UpsertDailySummaries(ctx, nil); err != nil {
		t.Fatalf("UpsertDailySummaries(nil) error = %v", err)
	}

	var rows, clicks, unique int64
	err = repo.Pool().QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(clicks), 0), COALESCE(SUM(unique_ips), 0)
		FROM daily_movie_stats WHERE movie_id = 'movie-1'
	`).Scan(&rows, &clicks, &unique)
	if err != nil {
		t.Fatalf("query daily_movie_stats: %v", err)
	}
	if rows != 1 || clicks != 2 || unique != 2 {
		t.Errorf("daily_movie_stats rows=%d clicks=%d unique=%d", rows, clicks, unique)
	}
}
