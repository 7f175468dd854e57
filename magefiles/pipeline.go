//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const rawDir = "data/raw"

// rawFiles returns the record files waiting in data/raw.
func rawFiles() ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.jsonl", "*.ndjson", "*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(rawDir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	return files, nil
}

// runOnRaw builds the CLI and runs one of its subcommands over every file
// in data/raw.
func runOnRaw(subcommand string, flags ...string) error {
	mg.Deps(Build)
	files, err := rawFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No record files in %s.\n", rawDir)
		return nil
	}
	args := append([]string{subcommand}, flags...)
	args = append(args, files...)
	return sh.RunV(binPath, args...)
}

// Score prints confidence scores for every record file in data/raw.
func Score() error {
	return runOnRaw("score")
}

// Ingest stores the records in data/raw that clear the confidence threshold.
func Ingest() error {
	return runOnRaw("ingest", "--data-dir", "data")
}

// Export writes the fund store to data/index/export.yaml and export.json.
func Export() error {
	mg.Deps(Build)
	if _, err := os.Stat(filepath.Join("data", "index", "funds.db")); err != nil {
		return fmt.Errorf("no fund store; run mage ingest first: %w", err)
	}
	for _, format := range []string{"yaml", "json"} {
		if err := sh.RunV(binPath, "funds", "export", "--data-dir", "data", "--format", format); err != nil {
			return err
		}
	}
	return nil
}
