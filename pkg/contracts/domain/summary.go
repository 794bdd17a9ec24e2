package domain

// GroupSummary describes the trend of one group over the aggregated range.
// The non-zero years bound the period with actual catches; Change and
// ChangePercent compare the values at those two years.
type GroupSummary struct {
	Group         string  `json:"group"`
	FirstYear     int     `json:"first_year"`
	LastYear      int     `json:"last_year"`
	Years         int     `json:"years"`
	Total         float64 `json:"total"`
	Mean          float64 `json:"mean"`
	PeakYear      int     `json:"peak_year"`
	PeakValue     float64 `json:"peak_value"`
	FirstNonZero  int     `json:"first_non_zero_year,omitempty"`
	LastNonZero   int     `json:"last_non_zero_year,omitempty"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	RecentMean    float64 `json:"recent_mean"`
	Outliers      int     `json:"outliers"`
}
