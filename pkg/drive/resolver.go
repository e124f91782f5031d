package drive

import (
	"errors"
	"regexp"
)

// ErrFolderIDNotFound is returned when an input names neither a Drive folder
// URL nor a bare folder id.
var ErrFolderIDNotFound = errors.New("folder id not found")

var (
	folderURLPattern = regexp.MustCompile(`drive\.google\.com/drive/.*folders/([a-zA-Z0-9_-]{33})(?:[/?]|$)`)
	bareIDPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]{33}$`)
)

// GetFolderID extracts a canonical folder id from a free-form input string.
// Accepts a Drive folder URL or a bare 33-character id. The bare pattern
// requires an exact full-string match, so an id embedded in some other URL
// does not resolve.
func GetFolderID(input string) (string, error) {
	if match := folderURLPattern.FindStringSubmatch(input); match != nil {
		return match[1], nil
	}
	if bareIDPattern.MatchString(input) {
		return input, nil
	}
	return "", ErrFolderIDNotFound
}

// HasFolderID reports whether the input resolves to a folder id. Used by
// form-enablement logic that only cares about presence.
func HasFolderID(input string) bool {
	_, err := GetFolderID(input)
	return err == nil
}
