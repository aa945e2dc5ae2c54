package workflow

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/raine/outfit-finder/internal/analysis"
)

const msgNotAnImage = "Please upload an image file"

// ValidateImage checks that file is an image and returns its media type.
// The declared content type wins; content sniffing is used only when none
// was declared.
func ValidateImage(file analysis.ImageFile) (string, error) {
	if len(file.Data) == 0 {
		return "", &analysis.Error{Kind: analysis.KindInvalidInput, Message: "image file is empty"}
	}

	contentType := strings.TrimSpace(file.ContentType)
	if contentType == "" {
		contentType = mimetype.Detect(file.Data).String()
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", &analysis.Error{Kind: analysis.KindInvalidInput, Message: msgNotAnImage, Err: err}
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", &analysis.Error{Kind: analysis.KindInvalidInput, Message: msgNotAnImage + " (got " + mediaType + ")"}
	}

	return mediaType, nil
}
