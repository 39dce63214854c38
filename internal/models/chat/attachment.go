package chat

import (
	"fmt"
	"path"
	"strings"
)

// AttachmentKind - image или file; видео и документы считаются file.
type AttachmentKind string

const (
	KindImage AttachmentKind = "image"
	KindFile  AttachmentKind = "file"
)

type Attachment struct {
	Kind      AttachmentKind `json:"kind"`
	URL       string         `json:"url"`
	Name      string         `json:"name,omitempty"`
	SizeLabel string         `json:"size_label,omitempty"`
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
}

// KindForName classifies an attachment by extension, defaulting to file
// when the extension is missing or unknown.
func KindForName(name string) AttachmentKind {
	ext := strings.ToLower(path.Ext(stripQuery(name)))
	if imageExtensions[ext] {
		return KindImage
	}
	return KindFile
}

func stripQuery(name string) string {
	if i := strings.IndexByte(name, '?'); i >= 0 {
		return name[:i]
	}
	return name
}

// FormatSize renders a byte count as a short human-readable label.
func FormatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	case size > 0:
		return fmt.Sprintf("%d B", size)
	default:
		return ""
	}
}
