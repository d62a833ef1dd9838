package analytics

import (
	"time"

	"linksnap/model"
)

// Summarize recomputes dashboard statistics from a fetched link list. The
// dashboard polls and re-renders, so everything here is derived from
// scratch per call; no state survives between polls.
//
// Day boundaries are local midnights in now's location.
func Summarize(links []model.Link, now time.Time) model.DashboardStats {
	loc := now.Location()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	stats := model.DashboardStats{
		TotalLinks: len(links),
		Last7Days:  make([]model.DayStat, 7),
	}

	// Oldest bucket first, today last.
	buckets := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i-6)
		key := day.Format("2006-01-02")
		stats.Last7Days[i] = model.DayStat{Date: key}
		buckets[key] = i
	}

	var top *model.Link
	for i := range links {
		link := &links[i]
		stats.TotalClicks += link.Clicks
		if top == nil || link.Clicks > top.Clicks {
			top = link
		}

		for _, ts := range link.ClickHistory {
			day := startOfDay(ts.In(loc))
			switch {
			case day.Equal(today):
				stats.ClicksToday++
			case day.Equal(yesterday):
				stats.ClicksYesterday++
			}
			if idx, ok := buckets[day.Format("2006-01-02")]; ok {
				stats.Last7Days[idx].Clicks++
			}
		}
	}

	// A link with zero clicks never counts as the top link.
	if top != nil && top.Clicks > 0 {
		topCopy := *top
		stats.TopLink = &topCopy
	}

	switch {
	case stats.ClicksYesterday > 0:
		stats.GrowthPercent = float64(stats.ClicksToday-stats.ClicksYesterday) / float64(stats.ClicksYesterday) * 100
	case stats.ClicksToday > 0:
		stats.GrowthPercent = 100
	}

	return stats
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
