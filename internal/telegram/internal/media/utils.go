package media

import (
	"fmt"
	"strings"

	"photobook-order-bot/internal/file"

	"github.com/go-telegram/bot/models"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

func HasPhoto(message *models.Message) bool {
	if len(message.Photo) > 0 {
		return true
	}
	return message.Document != nil && isImage(message.Document.MimeType)
}

// ExtractPhotos takes the largest size of a compressed photo and image
// documents sent uncompressed.
func ExtractPhotos(message *models.Message) []file.RequestFile {
	var result []file.RequestFile

	if len(message.Photo) > 0 {
		largest := message.Photo[len(message.Photo)-1]
		result = append(result, file.RequestFile{
			Name:     fmt.Sprintf("photo_%d_%s.jpg", message.ID, largest.FileUniqueID),
			Size:     uint64(largest.FileSize),
			TGFileID: largest.FileID,
		})
	}

	if message.Document != nil && isImage(message.Document.MimeType) {
		result = append(result, file.RequestFile{
			Name:     documentName(message),
			Size:     uint64(message.Document.FileSize),
			TGFileID: message.Document.FileID,
		})
	}

	return result
}

func documentName(message *models.Message) string {
	ext := imageExtensions[strings.ToLower(message.Document.MimeType)]
	name := strings.TrimSpace(message.Document.FileName)
	if name == "" {
		return fmt.Sprintf("image_%d_%s%s", message.ID, message.Document.FileUniqueID, ext)
	}
	return fmt.Sprintf("%d_%s", message.ID, name)
}

func isImage(mimeType string) bool {
	_, ok := imageExtensions[strings.ToLower(mimeType)]
	return ok
}
