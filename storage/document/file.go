// Package document persists the portable export document on disk. It is the
// CLI counterpart of the browser download/upload flow: the saved JSON file is
// the system's only durable artifact.
package document

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Save writes data to path via a temp file + rename so a crash never leaves a
// half-written document behind.
func Save(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, ".examplan-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing document")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "replacing document")
	}
	return nil
}

// Load reads a previously saved document.
func Load(path string) ([]byte, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading document %s", path)
	}
	return data, nil
}
