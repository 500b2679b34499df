package events

import (
	"context"
	"time"
)

// Analytics publishes read-path usage events (searches, product views).
type Analytics struct {
	publisher *Publisher
}

func NewAnalytics(publisher *Publisher) *Analytics {
	return &Analytics{publisher: publisher}
}

// TrackSearch records a keyword search and its result count.
func (a *Analytics) TrackSearch(ctx context.Context, keyword, userID string, resultsCount int) {
	a.publisher.Emit(ctx, TopicSearchEvents, KeySearchPerformed, SearchPerformed{
		Keyword:      keyword,
		UserID:       userID,
		ResultsCount: resultsCount,
		Timestamp:    time.Now(),
	})
}

// TrackProductView records a product detail view.
func (a *Analytics) TrackProductView(ctx context.Context, productID, userID string) {
	a.publisher.Emit(ctx, TopicProductEvents, KeyProductViewed, ProductView{
		ProductID: productID,
		UserID:    userID,
		Timestamp: time.Now(),
	})
}
