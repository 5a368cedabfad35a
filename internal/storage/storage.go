package storage

// Storage is a process-wide keyed store of raw string records.
// Implementations must be safe for concurrent use; concurrent writes to the
// same key are last-write-wins.
type Storage interface {
	// Get returns the raw value for key. ok is false when the key is absent.
	Get(key string) (raw string, ok bool, err error)
	// Set replaces the value for key.
	Set(key, raw string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Name identifies the backend in logs.
	Name() string
	Close() error
}
