package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMedia(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want mediaKind
	}{
		{"jpg image", "https://cdn.example.com/photos/a.jpg", mediaImage},
		{"png image uppercase", "https://cdn.example.com/a.PNG", mediaImage},
		{"webp image", "https://cdn.example.com/a.webp", mediaImage},
		{"mp4 video", "https://cdn.example.com/clips/a.mp4", mediaVideo},
		{"mov video", "https://cdn.example.com/a.mov", mediaVideo},
		{"ogg counts as video", "https://cdn.example.com/a.ogg", mediaVideo},
		{"mp3 audio", "https://cdn.example.com/a.mp3", mediaAudio},
		{"wav audio", "https://cdn.example.com/a.wav", mediaAudio},
		{"pdf is other", "https://cdn.example.com/manual.pdf", mediaOther},
		{"no extension", "https://cdn.example.com/file", mediaOther},
		{"query string ignored", "https://cdn.example.com/a.jpg?w=200", mediaImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyMedia(tt.url))
		})
	}
}

func TestMediaFileName(t *testing.T) {
	assert.Equal(t, "a.jpg", mediaFileName("https://cdn.example.com/photos/a.jpg"))
	assert.Equal(t, "a.jpg", mediaFileName("https://cdn.example.com/a.jpg?w=200"))
	assert.Equal(t, "", mediaFileName("https://cdn.example.com/"))
}

func TestRenderSubject(t *testing.T) {
	assert.Equal(t, "New review notification - Travel Mug", renderSubject("Travel Mug"))
}

func TestRenderHTML(t *testing.T) {
	title := "Great mug"
	html := renderHTML(ReviewData{
		CustomerName: "Dana",
		ProductTitle: "Travel Mug",
		Rating:       4,
		Title:        title,
		Content:      "Keeps coffee hot for hours",
		MediaURLs: []string{
			"https://cdn.example.com/a.jpg",
			"https://cdn.example.com/b.mp4",
		},
	})

	assert.Contains(t, html, "Dana")
	assert.Contains(t, html, "Travel Mug")
	assert.Contains(t, html, "(4/5)")
	assert.Contains(t, html, "&#9733;&#9733;&#9733;&#9733;")
	assert.Contains(t, html, title)
	assert.Contains(t, html, "Keeps coffee hot for hours")
	assert.Contains(t, html, "Attached media (2)")
	assert.Contains(t, html, `<img src="https://cdn.example.com/a.jpg"`)
	assert.Contains(t, html, `<source src="https://cdn.example.com/b.mp4"`)
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	html := renderHTML(ReviewData{
		CustomerName: "<script>alert(1)</script>",
		ProductTitle: "Mug",
		Rating:       1,
		Content:      `a "quoted" & <tagged> body`,
	})

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "a &quot;quoted&quot; &amp; &lt;tagged&gt; body")
}

func TestRenderHTMLOmitsOptionalSections(t *testing.T) {
	html := renderHTML(ReviewData{
		CustomerName: "Dana",
		ProductTitle: "Mug",
		Rating:       5,
		Content:      "ok",
	})

	assert.NotContains(t, html, "Title:")
	assert.NotContains(t, html, "Attached media")
}

func TestRenderText(t *testing.T) {
	text := renderText(ReviewData{
		CustomerName: "Dana",
		ProductTitle: "Travel Mug",
		Rating:       3,
		Content:      "Decent",
		MediaURLs: []string{
			"https://cdn.example.com/a.jpg",
			"https://cdn.example.com/b.jpg",
			"https://cdn.example.com/c.mp3",
			"https://cdn.example.com/notes.txt",
		},
	})

	assert.Contains(t, text, "Customer: Dana")
	assert.Contains(t, text, "Rating: 3/5")
	assert.Contains(t, text, "Attached media (4)")
	assert.Contains(t, text, "2 image(s)")
	assert.Contains(t, text, "1 audio file(s)")
	assert.Contains(t, text, "1 other file(s)")
	assert.Contains(t, text, "1. a.jpg: https://cdn.example.com/a.jpg")
}
