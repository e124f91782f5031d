package service

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdfUpload(name string, size int64) UploadedFile {
	return UploadedFile{
		Name:        name,
		ContentType: "application/pdf",
		Size:        size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("")), nil
		},
	}
}

func TestParseIngestInput(t *testing.T) {
	tests := []struct {
		name      string
		files     []UploadedFile
		folderRef string
		wantErr   error
		wantType  string
	}{
		{
			name:    "no inputs",
			wantErr: ErrNoInputs,
		},
		{
			name:      "whitespace folder ref counts as empty",
			folderRef: "   ",
			wantErr:   ErrNoInputs,
		},
		{
			name:      "both inputs",
			files:     []UploadedFile{pdfUpload("a.pdf", 10)},
			folderRef: "https://drive.google.com/drive/folders/AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			wantErr:   ErrTooManyInputs,
		},
		{
			name:     "files only",
			files:    []UploadedFile{pdfUpload("a.pdf", 10)},
			wantType: "files",
		},
		{
			name:      "folder only",
			folderRef: "https://drive.google.com/drive/folders/AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			wantType:  "folder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := ParseIngestInput(tt.files, tt.folderRef)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			switch tt.wantType {
			case "files":
				assert.IsType(t, UploadedFiles{}, input)
			case "folder":
				assert.IsType(t, CloudFolder{}, input)
			}
		})
	}
}

func TestUploadedFilesValidate(t *testing.T) {
	const maxBytes = 1024 * 1024 // 1024 KB

	tests := []struct {
		name    string
		files   []UploadedFile
		wantErr string
	}{
		{
			name:  "all valid",
			files: []UploadedFile{pdfUpload("a.pdf", 100), pdfUpload("b.pdf", maxBytes-100)},
		},
		{
			name: "non-pdf mime type",
			files: []UploadedFile{{
				Name:        "notes.txt",
				ContentType: "text/plain",
				Size:        10,
			}},
			wantErr: "Invalid non-PDF file type.",
		},
		{
			name:    "oversized file",
			files:   []UploadedFile{pdfUpload("big.pdf", maxBytes+1)},
			wantErr: "File size exceeded maximum of 1024 KB",
		},
		{
			name:    "batch total over ceiling",
			files:   []UploadedFile{pdfUpload("a.pdf", maxBytes-1), pdfUpload("b.pdf", maxBytes-1)},
			wantErr: "File size exceeded maximum of 1024 KB",
		},
		{
			name: "pdf extension without content type",
			files: []UploadedFile{{
				Name: "scan.PDF",
				Size: 10,
			}},
		},
		{
			name: "octet-stream pdf",
			files: []UploadedFile{{
				Name:        "scan.pdf",
				ContentType: "application/octet-stream",
				Size:        10,
			}},
		},
		{
			name: "octet-stream without pdf extension",
			files: []UploadedFile{{
				Name:        "scan.bin",
				ContentType: "application/octet-stream",
				Size:        10,
			}},
			wantErr: "Invalid non-PDF file type.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := UploadedFiles{Files: tt.files}.Validate(maxBytes)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				assert.True(t, IsUserError(err))
			}
		})
	}
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(ErrNoInputs))
	assert.True(t, IsUserError(ErrTooManyInputs))
	assert.True(t, IsUserError(ErrInvalidFolderURL))
	assert.True(t, IsUserError(errFolderTooLarge(51200)))
	assert.False(t, IsUserError(io.ErrUnexpectedEOF))
	assert.False(t, IsUserError(ErrIndexCheckTimeout))
}
