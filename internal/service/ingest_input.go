package service

import (
	"io"
	"strings"
)

// IngestInput is the tagged input of an ingest request. Exactly one
// concrete variant exists per request: either a batch of uploaded files
// or a cloud folder reference.
type IngestInput interface {
	isIngestInput()
}

// UploadedFile is a single multipart upload, opened lazily so validation
// can run before any content is read.
type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadedFiles is the direct-upload variant.
type UploadedFiles struct {
	Files []UploadedFile
}

func (UploadedFiles) isIngestInput() {}

// CloudFolder is the Google Drive variant. Ref holds the raw folder URL
// or bare folder id as submitted by the client.
type CloudFolder struct {
	Ref string
}

func (CloudFolder) isIngestInput() {}

// ParseIngestInput classifies a request into exactly one input variant.
// Returns ErrNoInputs when neither files nor a folder reference were
// submitted, ErrTooManyInputs when both were.
func ParseIngestInput(files []UploadedFile, folderRef string) (IngestInput, error) {
	hasFiles := len(files) > 0
	hasFolder := strings.TrimSpace(folderRef) != ""

	switch {
	case !hasFiles && !hasFolder:
		return nil, ErrNoInputs
	case hasFiles && hasFolder:
		return nil, ErrTooManyInputs
	case hasFiles:
		return UploadedFiles{Files: files}, nil
	default:
		return CloudFolder{Ref: strings.TrimSpace(folderRef)}, nil
	}
}

// Validate rejects the batch before any file content is read: every file
// must be a PDF and the batch's total size may not exceed maxBytes.
func (u UploadedFiles) Validate(maxBytes int64) error {
	var total int64
	for _, f := range u.Files {
		if !isPdfUpload(f) {
			return ErrInvalidFileType
		}
		total += f.Size
	}
	if total > maxBytes {
		return errUploadTooLarge(maxBytes / 1024)
	}
	return nil
}

func isPdfUpload(f UploadedFile) bool {
	if strings.EqualFold(f.ContentType, "application/pdf") {
		return true
	}
	// Some clients send PDFs as application/octet-stream or with no type.
	generic := f.ContentType == "" || strings.EqualFold(f.ContentType, "application/octet-stream")
	return generic && strings.HasSuffix(strings.ToLower(f.Name), ".pdf")
}
