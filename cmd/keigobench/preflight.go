package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/czcorpus/cnc-gokit/fs"

	"github.com/TobiSchelling/KeigoBench/internal/config"
)

func checkFile(path string) (bool, error) {
	return fs.IsFile(path)
}

// ensureDir creates dir if needed and confirms it is a writable directory.
func ensureDir(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output directory %s: %w", dir, err)
	}
	isDir, err := fs.IsDir(dir)
	if err != nil {
		return fmt.Errorf("output directory %s: %w", dir, err)
	}
	if !isDir {
		return fmt.Errorf("output path %s is not a directory", dir)
	}
	probe, err := os.CreateTemp(dir, ".keigobench-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// preflightRewrite checks run-level prerequisites before any request is sent.
func preflightRewrite(c *config.Config) error {
	isFile, err := checkFile(c.Dataset.Path)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", c.Dataset.Path, err)
	}
	if !isFile {
		return fmt.Errorf("dataset %s not found", c.Dataset.Path)
	}
	if err := ensureDir(filepath.Dir(c.Rewrite.Output)); err != nil {
		return err
	}
	return ensureDir(c.Evaluate.OutputDir)
}

func preflightCorpus(c *config.Config) error {
	isFile, err := checkFile(c.Rewrite.Output)
	if err != nil {
		return fmt.Errorf("corpus %s: %w", c.Rewrite.Output, err)
	}
	if !isFile {
		return fmt.Errorf("corpus %s not found, run 'keigobench rewrite' first", c.Rewrite.Output)
	}
	return ensureDir(c.Evaluate.OutputDir)
}
