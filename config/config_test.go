package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	assert := assert.New(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(err)
	assert.Equal(Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "test.env")
	contents := "NACHOS_DEBUG=5\nNACHOS_DISK=/tmp/nachos.img\nNACHOS_SECTORS=2048\nNACHOS_DIR_ENTRIES=10\n"
	assert.NoError(os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	assert.NoError(err)
	assert.Equal(uint64(5), cfg.Debug)
	assert.Equal("/tmp/nachos.img", cfg.DiskImage)
	assert.Equal(int32(2048), cfg.NumSectors)
	assert.Equal(int32(10), cfg.NumDirEntries)
}

func TestLoadRejectsGarbage(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "bad.env")
	assert.NoError(os.WriteFile(path, []byte("NACHOS_SECTORS=lots\n"), 0644))

	_, err := Load(path)
	assert.Error(err)
}
