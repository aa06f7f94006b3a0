// Package config loads runtime settings from an optional env file,
// falling back to built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/tim70036/OS-Nachos/common"
)

type Config struct {
	// Debug is the DPrintf verbosity.
	Debug uint64

	// DiskImage is the backing file for the simulated disk; empty
	// selects the in-memory disk.
	DiskImage string

	// NumSectors is the simulated disk size.
	NumSectors int32

	// NumDirEntries is the directory capacity used at format time.
	NumDirEntries int32
}

func Default() Config {
	return Config{
		Debug:         1,
		NumSectors:    common.NumSectors,
		NumDirEntries: common.NumDirEntries,
	}
}

// Load reads path as an env file. A missing file is not an error; the
// defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	data, err := godotenv.Read(path)
	if err != nil {
		return cfg, fmt.Errorf("(config) %w", err)
	}
	if v, ok := data["NACHOS_DEBUG"]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("(config) NACHOS_DEBUG: %w", err)
		}
		cfg.Debug = n
	}
	if v, ok := data["NACHOS_DISK"]; ok {
		cfg.DiskImage = v
	}
	if v, ok := data["NACHOS_SECTORS"]; ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return cfg, fmt.Errorf("(config) NACHOS_SECTORS: %w", err)
		}
		cfg.NumSectors = int32(n)
	}
	if v, ok := data["NACHOS_DIR_ENTRIES"]; ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return cfg, fmt.Errorf("(config) NACHOS_DIR_ENTRIES: %w", err)
		}
		cfg.NumDirEntries = int32(n)
	}
	return cfg, nil
}
