package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FSStore implements Store on the filesystem. Records live under
// <baseDir>/fits/<jobID>/record.json with the objective trace alongside.
//
// Writes use the temp file + rename pattern, so concurrent readers never see
// a torn record and no locking is needed.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a filesystem store rooted at baseDir, creating the
// directory when missing.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

func (fs *FSStore) jobDir(jobID string) string {
	return filepath.Join(fs.baseDir, "fits", jobID)
}

func (fs *FSStore) recordPath(jobID string) string {
	return filepath.Join(fs.jobDir(jobID), "record.json")
}

// TracePath returns the objective trace path for a job.
func (fs *FSStore) TracePath(jobID string) string {
	return filepath.Join(fs.jobDir(jobID), "trace.jsonl")
}

// SaveRecord atomically saves a fit record.
func (fs *FSStore) SaveRecord(jobID string, record *FitRecord) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid fit record: %w", err)
	}

	if err := os.MkdirAll(fs.jobDir(jobID), 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize fit record: %w", err)
	}

	tempPath := fs.recordPath(jobID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp record file: %w", err)
	}

	finalPath := fs.recordPath(jobID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename record file: %w", err)
	}

	slog.Debug("fit record saved", "job_id", jobID, "path", finalPath)
	return nil
}

// LoadRecord retrieves the fit record for a job.
func (fs *FSStore) LoadRecord(jobID string) (*FitRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID cannot be empty")
	}

	path := fs.recordPath(jobID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{JobID: jobID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record FitRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize fit record: %w", err)
	}
	return &record, nil
}

// ListRecords returns metadata for every stored fit record.
func (fs *FSStore) ListRecords() ([]RecordInfo, error) {
	fitsDir := filepath.Join(fs.baseDir, "fits")

	entries, err := os.ReadDir(fitsDir)
	if os.IsNotExist(err) {
		return []RecordInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fits directory: %w", err)
	}

	infos := make([]RecordInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		record, err := fs.LoadRecord(entry.Name())
		if err != nil {
			// Skip directories without a readable record.
			slog.Warn("skipping unreadable fit record", "job_id", entry.Name(), "error", err)
			continue
		}
		infos = append(infos, record.ToInfo())
	}
	return infos, nil
}

// DeleteRecord removes a job's record directory, trace included.
func (fs *FSStore) DeleteRecord(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}

	dir := fs.jobDir(jobID)
	if _, err := os.Stat(fs.recordPath(jobID)); os.IsNotExist(err) {
		return &NotFoundError{JobID: jobID}
	} else if err != nil {
		return fmt.Errorf("failed to stat record file: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete record directory: %w", err)
	}

	slog.Debug("fit record deleted", "job_id", jobID)
	return nil
}
