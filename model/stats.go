package model

// DashboardStats is the aggregate view the dashboard polls for. Everything
// is derived from the link list on each request; nothing is kept between
// polls.
type DashboardStats struct {
	TotalLinks      int       `json:"totalLinks"`
	TotalClicks     int       `json:"totalClicks"`
	ClicksToday     int       `json:"clicksToday"`
	ClicksYesterday int       `json:"clicksYesterday"`
	GrowthPercent   float64   `json:"growthPercent"`
	Last7Days       []DayStat `json:"last7Days"`
	TopLink         *Link     `json:"topLink,omitempty"`
}

// DayStat is one bucket of the 7-day click series.
type DayStat struct {
	Date   string `json:"date"` // "YYYY-MM-DD"
	Clicks int    `json:"clicks"`
}
