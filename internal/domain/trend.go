package domain

import "time"

// TrendData describes one collected social post. It is produced by the
// ingestion side and treated as read-only by the generation pipeline.
type TrendData struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subreddit   string    `json:"subreddit"`
	Category    string    `json:"category"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	NES         float64   `json:"nes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CollectedAt time.Time `json:"collected_at"`
}

func (t *TrendData) Source() string {
	if t == nil {
		return ""
	}
	if t.Subreddit == "" {
		return "unknown"
	}
	return "r/" + t.Subreddit
}
