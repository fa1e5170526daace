package queue

// Job type tags carried on jobs alongside the queue name
const (
	JobTypeReviewNotification = "send-review-notification"
	JobTypeRatingCalculation  = "update-product-rating"
	JobTypeVideoThumbnail     = "generate-video-thumbnail"
)

// ReviewNotificationPayload is the data a review-notification job carries.
// Immutable once enqueued.
type ReviewNotificationPayload struct {
	CustomerName string   `json:"customerName"`
	ProductTitle string   `json:"productTitle"`
	Rating       int      `json:"rating"`
	Title        string   `json:"title,omitempty"`
	Content      string   `json:"content"`
	MediaURLs    []string `json:"mediaUrls,omitempty"`
	ReviewID     string   `json:"reviewId"`
}

// RatingCalculationPayload triggers a full recompute of a product's rating
// snapshot. Idempotent by construction.
type RatingCalculationPayload struct {
	ProductID string `json:"productId"`
}

// VideoThumbnailPayload identifies the video to extract a thumbnail from.
// ReviewID may be empty when the upload predates review creation.
type VideoThumbnailPayload struct {
	VideoURL string `json:"videoUrl"`
	ReviewID string `json:"reviewId,omitempty"`
	FileName string `json:"fileName,omitempty"`
}
