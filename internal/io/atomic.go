// Package io provides atomic file persistence for model artifacts and
// reports. Writers go through a temp file plus rename so a crashed run never
// leaves a half-written artifact behind.
package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSONAtomic writes indented JSON to path atomically.
func WriteJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// ReadJSON loads a JSON file into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteCSVAtomic writes header plus records to path atomically.
func WriteCSVAtomic(path string, header []string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
