package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/shoplio/review-backend/internal/queue"
)

var (
	// ErrReviewNotFound signals the owning review is missing: a
	// data-consistency problem upstream, not retried.
	ErrReviewNotFound = errors.New("review not found")

	// ErrMediaEntryNotFound signals the review has no video entry
	// matching the job's source URL.
	ErrMediaEntryNotFound = errors.New("video media entry not found on review")
)

const (
	thumbnailWidth   = 320
	thumbnailQuality = 85
	frameSeekSeconds = 1.0
)

// Media is one entry of a review's media array: an image, or a video that
// eventually acquires a thumbnail URL.
type Media struct {
	Type         string  `json:"type"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
}

// Downloader fetches a remote file to a local path
type Downloader interface {
	Download(ctx context.Context, url, destPath string) error
}

// FrameExtractor pulls a single still frame out of a video file, scaled to
// the given width preserving aspect ratio.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath, framePath string, seekSeconds float64, width int) error
}

// Uploader stores thumbnail bytes under a key and returns the public URL
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// ReviewStore reads and patches a review's media array
type ReviewStore interface {
	// GetReviewMedia returns ErrReviewNotFound when the review is missing
	GetReviewMedia(ctx context.Context, reviewID string) ([]Media, error)
	UpdateReviewMedia(ctx context.Context, reviewID string, media []Media) error
}

// Config holds extractor configuration
type Config struct {
	Downloader Downloader
	Frames     FrameExtractor
	Uploader   Uploader
	Reviews    ReviewStore
	Logger     *slog.Logger
	TempDir    string // base for per-job working directories; empty = os.TempDir()
}

// Extractor runs the video thumbnail pipeline: download, extract frame,
// optimize, upload, patch the owning review's media record.
type Extractor struct {
	downloader Downloader
	frames     FrameExtractor
	uploader   Uploader
	reviews    ReviewStore
	logger     *slog.Logger
	tempDir    string
}

// NewExtractor creates a thumbnail extractor
func NewExtractor(cfg *Config) *Extractor {
	return &Extractor{
		downloader: cfg.Downloader,
		frames:     cfg.Frames,
		uploader:   cfg.Uploader,
		reviews:    cfg.Reviews,
		logger:     cfg.Logger,
		tempDir:    cfg.TempDir,
	}
}

// Process handles jobs from the video-thumbnail queue
func (e *Extractor) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.VideoThumbnailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Permanent(fmt.Errorf("invalid thumbnail payload: %w", err))
	}
	if payload.VideoURL == "" {
		return queue.Permanent(errors.New("thumbnail payload missing video url"))
	}
	if payload.ReviewID == "" {
		return queue.Permanent(errors.New("thumbnail payload missing review id"))
	}

	return e.GenerateThumbnail(ctx, payload)
}

// GenerateThumbnail runs every stage for one job. The per-job working
// directory is removed on every exit path; removal failures are logged and
// never change the job outcome.
func (e *Extractor) GenerateThumbnail(ctx context.Context, payload queue.VideoThumbnailPayload) error {
	workDir, err := os.MkdirTemp(e.tempDir, "video-thumb-*")
	if err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			e.logger.Warn("Failed to remove working directory",
				slog.String("dir", workDir),
				slog.Any("error", rmErr),
			)
		}
	}()

	logger := e.logger.With(
		slog.String("review_id", payload.ReviewID),
		slog.String("video_url", payload.VideoURL),
	)

	videoPath := filepath.Join(workDir, "source"+videoExt(payload))
	if err := e.downloader.Download(ctx, payload.VideoURL, videoPath); err != nil {
		return fmt.Errorf("failed to download video: %w", err)
	}
	logger.Debug("Video downloaded", slog.String("path", videoPath))

	framePath := filepath.Join(workDir, "frame.jpg")
	if err := e.extractFrame(ctx, videoPath, framePath); err != nil {
		return fmt.Errorf("failed to extract frame: %w", err)
	}

	thumbPath := filepath.Join(workDir, "thumbnail.jpg")
	if err := optimizeJPEG(framePath, thumbPath, thumbnailWidth, thumbnailQuality); err != nil {
		return fmt.Errorf("failed to optimize thumbnail: %w", err)
	}

	thumbURL, err := e.upload(ctx, thumbPath)
	if err != nil {
		return fmt.Errorf("failed to upload thumbnail: %w", err)
	}
	logger.Debug("Thumbnail uploaded", slog.String("url", thumbURL))

	if err := e.patchReview(ctx, payload.ReviewID, payload.VideoURL, thumbURL); err != nil {
		return err
	}

	logger.Info("Video thumbnail generated",
		slog.String("thumbnail_url", thumbURL),
	)
	return nil
}

// extractFrame seeks to the 1-second mark; videos shorter than that produce
// no frame, so fall back to the first frame.
func (e *Extractor) extractFrame(ctx context.Context, videoPath, framePath string) error {
	err := e.frames.ExtractFrame(ctx, videoPath, framePath, frameSeekSeconds, thumbnailWidth)
	if err == nil && frameExists(framePath) {
		return nil
	}

	e.logger.Debug("Frame extraction at seek mark failed, retrying at start",
		slog.Any("error", err),
	)

	if err := e.frames.ExtractFrame(ctx, videoPath, framePath, 0, thumbnailWidth); err != nil {
		return err
	}
	if !frameExists(framePath) {
		return errors.New("frame extraction produced no output")
	}
	return nil
}

func frameExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func (e *Extractor) upload(ctx context.Context, thumbPath string) (string, error) {
	f, err := os.Open(thumbPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := "thumbnails/" + uuid.New().String() + ".jpg"
	return e.uploader.Upload(ctx, key, f, "image/jpeg")
}

// patchReview sets thumbnailUrl on the media entry matching the source
// video URL, leaving every other entry untouched.
func (e *Extractor) patchReview(ctx context.Context, reviewID, videoURL, thumbURL string) error {
	media, err := e.reviews.GetReviewMedia(ctx, reviewID)
	if err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			return queue.Permanent(fmt.Errorf("review %s: %w", reviewID, err))
		}
		return fmt.Errorf("failed to load review media: %w", err)
	}

	patched := false
	for i := range media {
		if media[i].Type == "video" && media[i].URL == videoURL {
			media[i].ThumbnailURL = &thumbURL
			patched = true
			break
		}
	}
	if !patched {
		return queue.Permanent(fmt.Errorf("review %s: %w", reviewID, ErrMediaEntryNotFound))
	}

	if err := e.reviews.UpdateReviewMedia(ctx, reviewID, media); err != nil {
		return fmt.Errorf("failed to update review media: %w", err)
	}
	return nil
}

func videoExt(payload queue.VideoThumbnailPayload) string {
	if ext := filepath.Ext(payload.FileName); ext != "" {
		return ext
	}
	if ext := filepath.Ext(payload.VideoURL); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".mp4"
}
