package shapefile

import "fmt"

// FileFormatError reports a source that is missing or cannot be parsed as a shapefile.
type FileFormatError struct {
	Path string
	Err  error
}

func (e *FileFormatError) Error() string {
	return fmt.Sprintf("shapefile: %s: %v", e.Path, e.Err)
}

func (e *FileFormatError) Unwrap() error { return e.Err }

func formatError(path string, err error) error {
	return &FileFormatError{Path: path, Err: err}
}
