package document

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule_config.json")
	data := []byte(`{"version": 1}`)

	assert.NoError(t, Save(path, data))

	got, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSave_overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule_config.json")

	assert.NoError(t, Save(path, []byte("old")))
	assert.NoError(t, Save(path, []byte("new")))

	got, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestSave_leavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, Save(filepath.Join(dir, "doc.json"), []byte("data")))

	entries, err := ioutil.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}
