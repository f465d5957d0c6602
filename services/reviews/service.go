package reviews

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"phimtoc/internal/localstore"
	"phimtoc/models"
)

// storageKeyPrefix prefixes the per-item review list keys.
const storageKeyPrefix = "phimtoc_reviews_"

var (
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrEmptyComment     = errors.New("comment must not be empty")
)

// Keyword lists for the mock sentiment classifier. Matching is substring
// based, so "loved" counts toward "love".
var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "wonderful", "fantastic", "love", "best", "awesome", "perfect"}
	negativeWords = []string{"bad", "terrible", "awful", "horrible", "worst", "hate", "boring", "stupid", "waste", "disappointing"}
)

// Service stores per-item review lists in the local key-value store and
// labels each comment with a keyword-based sentiment.
type Service struct {
	mu    sync.Mutex
	store *localstore.Store
	now   func() time.Time
}

func NewService(store *localstore.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Add validates and appends a review for itemID, newest first.
func (s *Service) Add(itemID string, user models.User, rating int, comment string) (models.Review, error) {
	comment = strings.TrimSpace(comment)
	if rating < 1 || rating > 5 {
		return models.Review{}, ErrRatingOutOfRange
	}
	if comment == "" {
		return models.Review{}, ErrEmptyComment
	}

	review := models.Review{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserName:  user.Name,
		Rating:    rating,
		Comment:   comment,
		Sentiment: AnalyzeSentiment(comment),
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.listLocked(itemID)
	updated := append([]models.Review{review}, existing...)
	if err := s.store.Put(storageKey(itemID), updated); err != nil {
		return models.Review{}, err
	}
	return review, nil
}

// List returns the reviews for itemID, newest first.
func (s *Service) List(itemID string) []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(itemID)
}

// Delete removes one review by id. Only the review's author or an admin may
// delete it; a mismatched user is a silent no-op to keep the surface simple.
func (s *Service) Delete(itemID, reviewID string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.listLocked(itemID)
	kept := existing[:0]
	for _, r := range existing {
		if r.ID == reviewID && (r.UserID == user.ID || user.IsAdmin) {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == len(existing) {
		return nil
	}
	if len(kept) == 0 {
		return s.store.Delete(storageKey(itemID))
	}
	return s.store.Put(storageKey(itemID), kept)
}

// AverageRating returns the mean rating for itemID, 0 when unreviewed.
func (s *Service) AverageRating(itemID string) float64 {
	reviews := s.List(itemID)
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// Score aggregates the sentiment distribution for itemID.
func (s *Service) Score(itemID string) models.SentimentScore {
	return ScoreReviews(s.List(itemID))
}

func (s *Service) listLocked(itemID string) []models.Review {
	reviews := localstore.Read(s.store, storageKey(itemID), []models.Review(nil))
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews
}

func storageKey(itemID string) string {
	return storageKeyPrefix + itemID
}

// AnalyzeSentiment labels a comment by counting positive and negative
// keyword hits; ties are neutral.
func AnalyzeSentiment(text string) models.Sentiment {
	var positive, negative int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for _, pw := range positiveWords {
			if strings.Contains(word, pw) {
				positive++
				break
			}
		}
		for _, nw := range negativeWords {
			if strings.Contains(word, nw) {
				negative++
				break
			}
		}
	}
	switch {
	case positive > negative:
		return models.SentimentPositive
	case negative > positive:
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}

// ScoreReviews computes the percentage split of review sentiments and the
// winning overall label. No reviews means an all-zero neutral score.
func ScoreReviews(reviews []models.Review) models.SentimentScore {
	if len(reviews) == 0 {
		return models.SentimentScore{Overall: models.SentimentNeutral}
	}

	var counts = map[models.Sentiment]int{}
	for _, r := range reviews {
		counts[r.Sentiment]++
	}

	total := float64(len(reviews))
	score := models.SentimentScore{
		Positive: float64(counts[models.SentimentPositive]) / total * 100,
		Neutral:  float64(counts[models.SentimentNeutral]) / total * 100,
		Negative: float64(counts[models.SentimentNegative]) / total * 100,
		Overall:  models.SentimentNeutral,
	}
	switch {
	case score.Positive > score.Neutral && score.Positive > score.Negative:
		score.Overall = models.SentimentPositive
	case score.Negative > score.Neutral && score.Negative > score.Positive:
		score.Overall = models.SentimentNegative
	}
	return score
}
