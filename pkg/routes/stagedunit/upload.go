package stagedunit

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
)

// spool copies the upload into a temp file. cleanup removes it and is safe to
// call more than once.
func spool(fileHeader *multipart.FileHeader) (path string, cleanup func() error, err error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "fern-import-*.csv")
	if err != nil {
		return "", nil, err
	}
	path = tmp.Name()
	cleanup = func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = cleanup()
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		_ = cleanup()
		return "", nil, err
	}

	return path, cleanup, nil
}
