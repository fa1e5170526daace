package thumbnail

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplio/review-backend/internal/queue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeJPEG writes a decodable JPEG of the given size
func writeJPEG(t *testing.T, path string, width, height int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
}

type fakeDownloader struct {
	err   error
	calls int
}

func (f *fakeDownloader) Download(ctx context.Context, url, destPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destPath, []byte("video-bytes"), 0o644)
}

// fakeFrames records seek offsets and can fail per offset
type fakeFrames struct {
	t         *testing.T
	failSeeks map[float64]bool
	seeks     []float64
	width     int
	height    int
}

func (f *fakeFrames) ExtractFrame(ctx context.Context, videoPath, framePath string, seekSeconds float64, width int) error {
	f.seeks = append(f.seeks, seekSeconds)
	if f.failSeeks[seekSeconds] {
		return errors.New("could not seek")
	}
	w, h := f.width, f.height
	if w == 0 {
		w, h = 640, 360
	}
	writeJPEG(f.t, framePath, w, h)
	return nil
}

type fakeUploader struct {
	err  error
	keys []string
}

func (f *fakeUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type fakeReviews struct {
	media    map[string][]Media
	updated  map[string][]Media
	writeErr error
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{
		media:   map[string][]Media{},
		updated: map[string][]Media{},
	}
}

func (f *fakeReviews) GetReviewMedia(ctx context.Context, reviewID string) ([]Media, error) {
	media, ok := f.media[reviewID]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return media, nil
}

func (f *fakeReviews) UpdateReviewMedia(ctx context.Context, reviewID string, media []Media) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.updated[reviewID] = media
	return nil
}

type fixture struct {
	extractor  *Extractor
	downloader *fakeDownloader
	frames     *fakeFrames
	uploader   *fakeUploader
	reviews    *fakeReviews
	workBase   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		downloader: &fakeDownloader{},
		frames:     &fakeFrames{t: t},
		uploader:   &fakeUploader{},
		reviews:    newFakeReviews(),
		workBase:   t.TempDir(),
	}
	f.extractor = NewExtractor(&Config{
		Downloader: f.downloader,
		Frames:     f.frames,
		Uploader:   f.uploader,
		Reviews:    f.reviews,
		Logger:     testLogger(),
		TempDir:    f.workBase,
	})
	return f
}

// assertWorkBaseEmpty verifies the per-job working directory was removed
func (f *fixture) assertWorkBaseEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.workBase)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

const videoURL = "https://cdn.example.com/uploads/clip.mp4"

func videoPayload() queue.VideoThumbnailPayload {
	return queue.VideoThumbnailPayload{VideoURL: videoURL, ReviewID: "r1"}
}

func TestGenerateThumbnail(t *testing.T) {
	f := newFixture(t)
	f.reviews.media["r1"] = []Media{
		{Type: "image", URL: "https://cdn.example.com/a.jpg"},
		{Type: "video", URL: videoURL},
	}

	require.NoError(t, f.extractor.GenerateThumbnail(context.Background(), videoPayload()))

	require.Len(t, f.uploader.keys, 1)
	assert.Contains(t, f.uploader.keys[0], "thumbnails/")
	assert.Contains(t, f.uploader.keys[0], ".jpg")

	updated := f.reviews.updated["r1"]
	require.Len(t, updated, 2)
	assert.Nil(t, updated[0].ThumbnailURL, "image entry must be untouched")
	require.NotNil(t, updated[1].ThumbnailURL)
	assert.Equal(t, "https://cdn.example.com/"+f.uploader.keys[0], *updated[1].ThumbnailURL)

	assert.Equal(t, []float64{1}, f.frames.seeks)
	f.assertWorkBaseEmpty(t)
}

func TestGenerateThumbnailShortVideoFallsBackToStart(t *testing.T) {
	f := newFixture(t)
	f.frames.failSeeks = map[float64]bool{1: true}
	f.reviews.media["r1"] = []Media{{Type: "video", URL: videoURL}}

	require.NoError(t, f.extractor.GenerateThumbnail(context.Background(), videoPayload()))

	assert.Equal(t, []float64{1, 0}, f.frames.seeks)
	require.NotNil(t, f.reviews.updated["r1"][0].ThumbnailURL)
}

func TestGenerateThumbnailExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.frames.failSeeks = map[float64]bool{0: true, 1: true}

	err := f.extractor.GenerateThumbnail(context.Background(), videoPayload())
	require.Error(t, err)
	assert.False(t, queue.IsPermanent(err), "extraction failures are retryable")
	f.assertWorkBaseEmpty(t)
}

func TestGenerateThumbnailDownloadFailure(t *testing.T) {
	f := newFixture(t)
	f.downloader.err = errors.New("connection reset")

	err := f.extractor.GenerateThumbnail(context.Background(), videoPayload())
	require.Error(t, err)
	assert.False(t, queue.IsPermanent(err))
	assert.Empty(t, f.uploader.keys)
	f.assertWorkBaseEmpty(t)
}

func TestGenerateThumbnailReviewMissing(t *testing.T) {
	f := newFixture(t)

	err := f.extractor.GenerateThumbnail(context.Background(), videoPayload())
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
	assert.ErrorIs(t, err, ErrReviewNotFound)
	f.assertWorkBaseEmpty(t)
}

func TestGenerateThumbnailMediaEntryMissing(t *testing.T) {
	f := newFixture(t)
	f.reviews.media["r1"] = []Media{{Type: "video", URL: "https://cdn.example.com/other.mp4"}}

	err := f.extractor.GenerateThumbnail(context.Background(), videoPayload())
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
	assert.ErrorIs(t, err, ErrMediaEntryNotFound)
}

func TestProcessBadPayloads(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `not json`},
		{"missing video url", `{"reviewId":"r1"}`},
		{"missing review id", `{"videoUrl":"https://cdn.example.com/a.mp4"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.extractor.Process(context.Background(), &queue.Job{Payload: []byte(tt.payload)})
			require.Error(t, err)
			assert.True(t, queue.IsPermanent(err))
		})
	}
}

func TestOptimizeJPEGScalesDown(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	writeJPEG(t, src, 640, 360)

	require.NoError(t, optimizeJPEG(src, dst, 320, 85))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 180, img.Bounds().Dy())
}

func TestOptimizeJPEGNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	writeJPEG(t, src, 200, 150)

	require.NoError(t, optimizeJPEG(src, dst, 320, 85))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestHTTPDownloader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp4" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	d := NewHTTPDownloader(0)
	dir := t.TempDir()

	dest := filepath.Join(dir, "clip.mp4")
	require.NoError(t, d.Download(context.Background(), srv.URL+"/clip.mp4", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))

	err = d.Download(context.Background(), srv.URL+"/missing.mp4", filepath.Join(dir, "missing.mp4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
