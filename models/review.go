package models

import "time"

// Sentiment labels a review comment.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Review is one user rating/comment on a catalog item, stored locally.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Sentiment Sentiment `json:"sentiment"`
	CreatedAt time.Time `json:"createdAt"`
}

// SentimentScore aggregates the sentiment distribution of an item's reviews,
// in percent.
type SentimentScore struct {
	Positive float64   `json:"positive"`
	Neutral  float64   `json:"neutral"`
	Negative float64   `json:"negative"`
	Overall  Sentiment `json:"overall"`
}
