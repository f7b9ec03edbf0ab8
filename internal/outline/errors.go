package outline

import "errors"

var (
	// ErrUnreadablePDF means the file could not be opened or parsed, or is
	// image-only with no recoverable text. Fatal for the document.
	ErrUnreadablePDF = errors.New("unreadable PDF")

	// ErrOCRUnavailable is returned by the noop recognizer. Per-page OCR
	// failures are recoverable: the page simply contributes no lines.
	ErrOCRUnavailable = errors.New("OCR recognizer not configured")
)
