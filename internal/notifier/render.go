package notifier

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

type mediaKind int

const (
	mediaImage mediaKind = iota
	mediaVideo
	mediaAudio
	mediaOther
)

var (
	imageExts = map[string]bool{
		"jpg": true, "jpeg": true, "png": true, "gif": true,
		"webp": true, "svg": true, "bmp": true,
	}
	videoExts = map[string]bool{
		"mp4": true, "webm": true, "ogg": true, "avi": true,
		"mov": true, "wmv": true, "m4v": true,
	}
	audioExts = map[string]bool{
		"mp3": true, "wav": true, "m4a": true,
	}
)

// classifyMedia buckets a media URL by file extension. Video wins over
// audio for the shared ogg extension.
func classifyMedia(rawURL string) mediaKind {
	ext := mediaExt(rawURL)
	switch {
	case imageExts[ext]:
		return mediaImage
	case videoExts[ext]:
		return mediaVideo
	case audioExts[ext]:
		return mediaAudio
	default:
		return mediaOther
	}
}

func mediaExt(rawURL string) string {
	name := mediaFileName(rawURL)
	ext := strings.TrimPrefix(path.Ext(name), ".")
	return strings.ToLower(ext)
}

// mediaFileName extracts the last path segment of a URL
func mediaFileName(rawURL string) string {
	s := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		s = u.Path
	}
	name := path.Base(s)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// renderSubject builds the notification subject line
func renderSubject(productTitle string) string {
	return fmt.Sprintf("New review notification - %s", productTitle)
}

// renderHTML builds the HTML body for a review notification
func renderHTML(data ReviewData) string {
	var b strings.Builder

	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	b.WriteString(`<h2 style="color: #333;">A new product review was submitted</h2>`)
	b.WriteString(`<div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">`)
	b.WriteString(`<h3 style="color: #2c3e50; margin-top: 0;">Review details</h3>`)
	fmt.Fprintf(&b, `<p><strong>Customer:</strong> %s</p>`, htmlEscape(data.CustomerName))
	fmt.Fprintf(&b, `<p><strong>Product:</strong> %s</p>`, htmlEscape(data.ProductTitle))
	fmt.Fprintf(&b, `<p><strong>Rating:</strong> %s (%d/5)</p>`, strings.Repeat("&#9733;", data.Rating), data.Rating)
	if data.Title != "" {
		fmt.Fprintf(&b, `<p><strong>Title:</strong> %s</p>`, htmlEscape(data.Title))
	}
	b.WriteString(`<p><strong>Content:</strong></p>`)
	fmt.Fprintf(&b, `<div style="background-color: white; padding: 15px; border-radius: 4px; border-left: 4px solid #007bff;">%s</div>`, htmlEscape(data.Content))
	b.WriteString(renderMediaHTML(data.MediaURLs))
	b.WriteString(`</div>`)
	b.WriteString(`<p style="color: #666; font-size: 12px; text-align: center; margin-top: 30px;">This email was sent automatically. Please do not reply.</p>`)
	b.WriteString(`</div>`)

	return b.String()
}

// renderMediaHTML embeds media previews: images inline, videos and audio as
// players, anything unrecognized as a downloadable attachment block.
func renderMediaHTML(mediaURLs []string) string {
	if len(mediaURLs) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div style="margin-top: 20px; padding: 15px; background-color: #f8f9fa; border-radius: 8px; border: 1px solid #e9ecef;">`)
	fmt.Fprintf(&b, `<h4 style="margin: 0 0 10px 0; color: #495057; font-size: 16px;">Attached media (%d)</h4>`, len(mediaURLs))

	for _, u := range mediaURLs {
		escaped := htmlEscape(u)
		switch classifyMedia(u) {
		case mediaImage:
			fmt.Fprintf(&b, `<div style="margin: 10px 0; display: inline-block;"><img src="%s" alt="review image" style="max-width: 200px; max-height: 200px; border-radius: 8px; border: 2px solid #e1e5e9;" /></div>`, escaped)
		case mediaVideo:
			fmt.Fprintf(&b, `<div style="margin: 10px 0; display: inline-block;"><video controls preload="metadata" style="max-width: 200px; max-height: 200px; border-radius: 8px; border: 2px solid #e1e5e9;"><source src="%s" type="video/mp4">Your email client does not support video playback</video><div style="font-size: 12px; color: #666; margin-top: 4px;">Video file</div></div>`, escaped)
		case mediaAudio:
			fmt.Fprintf(&b, `<div style="margin: 10px 0; padding: 8px; background-color: #ffffff; border-radius: 6px; border-left: 4px solid #17a2b8;"><div style="font-size: 14px;">Audio file</div><audio controls style="width: 100%%; max-width: 200px; margin-top: 4px;"><source src="%s">Your email client does not support audio playback</audio></div>`, escaped)
		default:
			name := mediaFileName(u)
			if name == "" {
				name = "attachment"
			}
			fmt.Fprintf(&b, `<div style="margin: 8px 0; padding: 8px; background-color: #ffffff; border-radius: 6px; border-left: 4px solid #6c757d;"><div style="font-size: 14px; font-weight: bold;">%s</div><a href="%s" style="color: #007bff; text-decoration: none; font-size: 12px;">Download</a></div>`, htmlEscape(name), escaped)
		}
	}

	b.WriteString(`</div>`)
	return b.String()
}

// renderText builds the plain-text fallback body
func renderText(data ReviewData) string {
	var b strings.Builder

	b.WriteString("A new product review was submitted\n\n")
	b.WriteString("Review details:\n")
	fmt.Fprintf(&b, "Customer: %s\n", data.CustomerName)
	fmt.Fprintf(&b, "Product: %s\n", data.ProductTitle)
	fmt.Fprintf(&b, "Rating: %d/5\n", data.Rating)
	if data.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", data.Title)
	}
	fmt.Fprintf(&b, "Content: %s\n", data.Content)
	b.WriteString(renderMediaText(data.MediaURLs))

	return b.String()
}

func renderMediaText(mediaURLs []string) string {
	if len(mediaURLs) == 0 {
		return ""
	}

	counts := map[mediaKind]int{}
	for _, u := range mediaURLs {
		counts[classifyMedia(u)]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nAttached media (%d):\n", len(mediaURLs))
	if counts[mediaImage] > 0 {
		fmt.Fprintf(&b, "  %d image(s)\n", counts[mediaImage])
	}
	if counts[mediaVideo] > 0 {
		fmt.Fprintf(&b, "  %d video(s)\n", counts[mediaVideo])
	}
	if counts[mediaAudio] > 0 {
		fmt.Fprintf(&b, "  %d audio file(s)\n", counts[mediaAudio])
	}
	if counts[mediaOther] > 0 {
		fmt.Fprintf(&b, "  %d other file(s)\n", counts[mediaOther])
	}

	b.WriteString("\nFile links:\n")
	for i, u := range mediaURLs {
		name := mediaFileName(u)
		if name == "" {
			name = fmt.Sprintf("file %d", i+1)
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, name, u)
	}

	return b.String()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
