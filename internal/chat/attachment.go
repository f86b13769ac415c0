package chat

import (
	"path/filepath"
	"strings"
)

// AttachmentKind is "image" or "other"; it only affects how the previewer
// renders the attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentOther AttachmentKind = "other"
)

// Attachment is one file on a message. LocalPath is set for optimistic local
// sends so the previewer can show the file before the server assigns a URL.
type Attachment struct {
	URL       string
	FileName  string
	Kind      AttachmentKind
	Size      int64
	LocalPath string
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".svg":  true,
}

// DetectKind classifies an attachment from its MIME type when the backend
// sends one, falling back to the filename extension.
func DetectKind(mimeType, fileName string) AttachmentKind {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return AttachmentImage
	}
	if imageExts[strings.ToLower(filepath.Ext(fileName))] {
		return AttachmentImage
	}
	return AttachmentOther
}

// DisplayName returns something usable even when the backend omits fileName.
func (a Attachment) DisplayName() string {
	if a.FileName != "" {
		return a.FileName
	}
	if a.URL != "" {
		return filepath.Base(a.URL)
	}
	return "attachment"
}
