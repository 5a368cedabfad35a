package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File keeps all records in a single JSON object on disk. Every write rewrites
// the file through a temp file + rename so a crash never leaves a torn file.
type File struct {
	mu       sync.Mutex
	filePath string
	data     map[string]string
}

// NewFile opens the store at filePath. A missing file yields an empty store.
func NewFile(filePath string) (*File, error) {
	data, err := loadFile(filePath)
	if err != nil {
		return nil, err
	}
	return &File{filePath: filePath, data: data}, nil
}

func (f *File) Name() string { return "file" }

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(key, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[key]
	f.data[key] = raw
	if err := saveFile(f.filePath, f.data); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.data[key]
	if !ok {
		return nil
	}
	delete(f.data, key)
	if err := saveFile(f.filePath, f.data); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

func (f *File) Close() error { return nil }

func loadFile(filePath string) (map[string]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	out := map[string]string{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	return out, nil
}

func saveFile(filePath string, records map[string]string) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return os.Rename(tmp, filePath)
}
