// Package store persists fold fitting results and their objective traces on
// the filesystem.
package store

// Store is the persistence interface for fit records.
//
// Error handling conventions:
//   - nil error on success
//   - ErrNotFound (via errors.Is) when the record doesn't exist
//   - other errors wrap the underlying cause with fmt.Errorf("...: %w", err)
type Store interface {
	// SaveRecord atomically saves a fit record, overwriting any previous
	// record for the same job.
	SaveRecord(jobID string, record *FitRecord) error

	// LoadRecord retrieves the fit record for a job. Returns ErrNotFound if
	// no record exists.
	LoadRecord(jobID string) (*FitRecord, error)

	// ListRecords returns metadata for all stored fit records.
	ListRecords() ([]RecordInfo, error)

	// DeleteRecord removes the record and its trace for a job. Returns
	// ErrNotFound if no record exists.
	DeleteRecord(jobID string) error
}

// ErrNotFound is returned when a requested fit record does not exist.
// Check with errors.Is(err, ErrNotFound).
var ErrNotFound = &NotFoundError{}

// NotFoundError reports a missing fit record.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "fit record not found: " + e.JobID
	}
	return "fit record not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
