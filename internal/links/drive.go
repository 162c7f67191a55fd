package links

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/BradenHooton/calcvault/internal/models"
)

var (
	shareLinkPattern = regexp.MustCompile(`https://drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`)
	openLinkPattern  = regexp.MustCompile(`https://drive\.google\.com/open\?id=([a-zA-Z0-9_-]+)`)
)

var extensionCategories = map[string]models.Category{
	"jpg": models.CategoryPhotos, "jpeg": models.CategoryPhotos, "png": models.CategoryPhotos,
	"gif": models.CategoryPhotos, "bmp": models.CategoryPhotos, "webp": models.CategoryPhotos,
	"svg": models.CategoryPhotos,

	"mp4": models.CategoryVideos, "avi": models.CategoryVideos, "mov": models.CategoryVideos,
	"wmv": models.CategoryVideos, "flv": models.CategoryVideos, "mkv": models.CategoryVideos,
	"webm": models.CategoryVideos,

	"mp3": models.CategoryRecordings, "wav": models.CategoryRecordings, "m4a": models.CategoryRecordings,
	"aac": models.CategoryRecordings, "ogg": models.CategoryRecordings, "flac": models.CategoryRecordings,
}

// ExtractFileID pulls the Drive file id out of a share or open link.
// An open?id= link wins when a URL somehow contains both forms.
func ExtractFileID(driveURL string) (string, error) {
	id := ""
	if m := shareLinkPattern.FindStringSubmatch(driveURL); m != nil {
		id = m[1]
	}
	if m := openLinkPattern.FindStringSubmatch(driveURL); m != nil {
		id = m[1]
	}
	if id == "" {
		return "", models.ErrInvalidURL
	}
	return id, nil
}

// Classify picks a category from a file name's extension. Unknown or
// missing extensions land in files.
func Classify(fileName string) models.Category {
	ext := fileName
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		ext = fileName[i+1:]
	}
	if c, ok := extensionCategories[strings.ToLower(ext)]; ok {
		return c
	}
	return models.CategoryFiles
}

func viewURL(id string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", id)
}

func directURL(id string) string {
	return fmt.Sprintf("https://drive.google.com/uc?id=%s&export=download", id)
}

func thumbnailURL(id string) string {
	return fmt.Sprintf("https://drive.google.com/thumbnail?id=%s&sz=w400", id)
}

func embedURL(id string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/preview", id)
}

// NewLink builds the stored entry for a file with the URLs its category needs
func NewLink(id, name string, category models.Category, now time.Time) models.Link {
	now = now.UTC().Truncate(time.Millisecond)
	link := models.Link{
		ID:             id,
		Name:           name,
		AddedDate:      now,
		AddedTimestamp: now.UnixMilli(),
	}

	switch category {
	case models.CategoryPhotos:
		link.Type = "photo"
		link.ThumbnailURL = thumbnailURL(id)
		link.DirectURL = directURL(id)
		link.ViewURL = viewURL(id)
	case models.CategoryVideos:
		link.Type = "video"
		link.EmbedURL = embedURL(id)
		link.ThumbnailURL = thumbnailURL(id)
		link.DirectURL = directURL(id)
	case models.CategoryFiles:
		link.Type = "document"
		link.DirectURL = directURL(id)
		link.ViewURL = viewURL(id)
		link.Size = "Unknown"
	case models.CategoryRecordings:
		link.Type = "audio"
		link.DirectURL = directURL(id)
		link.ViewURL = viewURL(id)
		link.Size = "Unknown"
	}
	return link
}
