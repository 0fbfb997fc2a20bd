// internal/utils/media_utils.go
package utils

import (
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

const (
	ProofKindPhoto    = "photo"
	ProofKindDocument = "document"
)

// IsImage reports whether a document MIME type is an image.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// ProofFromMessage extracts the payment screenshot handle from a message.
// For photos the largest size is used; documents of any type are accepted.
func ProofFromMessage(msg *tgbotapi.Message) (fileID, kind string, ok bool) {
	if msg == nil {
		return "", "", false
	}
	if len(msg.Photo) > 0 {
		largest := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.FileSize > largest.FileSize || p.Width*p.Height > largest.Width*largest.Height {
				largest = p
			}
		}
		return largest.FileID, ProofKindPhoto, true
	}
	if msg.Document != nil {
		return msg.Document.FileID, ProofKindDocument, true
	}
	return "", "", false
}
