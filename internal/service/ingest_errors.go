package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoInputs         = errors.New("No inputs provided")
	ErrTooManyInputs    = errors.New("Too many inputs provided")
	ErrInvalidFileType  = errors.New("Invalid non-PDF file type.")
	ErrInvalidFolderURL = errors.New("Invalid folder URL")

	// ErrIndexCheckTimeout means chunks were written but the store did not
	// confirm they are readable within the retry budget.
	ErrIndexCheckTimeout = errors.New("timed out waiting for chunks to become readable")
)

func errUploadTooLarge(maxKB int64) error {
	return fmt.Errorf("File size exceeded maximum of %d KB", maxKB)
}

func errFolderTooLarge(maxKB int64) error {
	return fmt.Errorf("Google Drive folder size exceeded maximum of %d KB", maxKB)
}

// IsUserError reports whether err should surface as a 400 rather than a
// 500. Size errors are user errors too, so match by message prefix.
func IsUserError(err error) bool {
	switch {
	case errors.Is(err, ErrNoInputs),
		errors.Is(err, ErrTooManyInputs),
		errors.Is(err, ErrInvalidFileType),
		errors.Is(err, ErrInvalidFolderURL):
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "File size exceeded maximum of") ||
		strings.HasPrefix(msg, "Google Drive folder size exceeded maximum of")
}
