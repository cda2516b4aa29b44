package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultStoreName is used when no store is selected anywhere.
const DefaultStoreName = "default"

// DBFileName is the database file inside each store directory.
const DBFileName = "mnemon.db"

var storeNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// DefaultDataDir returns ~/.mnemon.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mnemon"
	}
	return filepath.Join(home, ".mnemon")
}

// ValidStoreName reports whether name is usable as a store directory name.
func ValidStoreName(name string) bool {
	return storeNameRe.MatchString(name)
}

// StoreDir returns the directory holding the named store.
func StoreDir(dataRoot, name string) string {
	return filepath.Join(dataRoot, "data", name)
}

// DBPath returns the database file path for the named store.
func DBPath(dataRoot, name string) string {
	return filepath.Join(StoreDir(dataRoot, name), DBFileName)
}

// CompactDir returns the drop directory consumed by ingest.
func CompactDir(dataRoot string) string {
	return filepath.Join(dataRoot, "compact")
}

// PromptDir returns the directory holding collaborator prompt assets.
func PromptDir(dataRoot string) string {
	return filepath.Join(dataRoot, "prompt")
}

// ActiveStore reads the active-store marker file. A missing or empty file
// selects the default store.
func ActiveStore(dataRoot string) string {
	data, err := os.ReadFile(filepath.Join(dataRoot, "active"))
	if err != nil {
		return DefaultStoreName
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return DefaultStoreName
	}
	return name
}

// SetActiveStore records name as the active store.
func SetActiveStore(dataRoot, name string) error {
	if err := os.MkdirAll(dataRoot, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataRoot, "active"), []byte(name+"\n"), 0o644)
}

// ListStores returns the sorted names of every store directory.
func ListStores(dataRoot string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dataRoot, "data"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// MigrateLegacyDB moves a pre-store-layout database file
// (<dataRoot>/mnemon.db) into the default store directory. It is a no-op
// once the default store exists.
func MigrateLegacyDB(dataRoot string) error {
	legacy := filepath.Join(dataRoot, DBFileName)
	if _, err := os.Stat(legacy); err != nil {
		return nil
	}
	target := DBPath(dataRoot, DefaultStoreName)
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := os.MkdirAll(StoreDir(dataRoot, DefaultStoreName), 0o755); err != nil {
		return err
	}
	if err := os.Rename(legacy, target); err != nil {
		return fmt.Errorf("failed to migrate legacy database: %w", err)
	}
	return nil
}

// Open resolves the named store under dataRoot, creates its directory, and
// opens the database.
func Open(dataRoot, name string) (*Store, error) {
	if !ValidStoreName(name) {
		return nil, fmt.Errorf("invalid store name %q", name)
	}
	if err := MigrateLegacyDB(dataRoot); err != nil {
		return nil, err
	}
	dir := StoreDir(dataRoot, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return New(filepath.Join(dir, DBFileName))
}

// OpenRO resolves the named store and opens it read-only. The store must
// already exist.
func OpenRO(dataRoot, name string) (*Store, error) {
	if !ValidStoreName(name) {
		return nil, fmt.Errorf("invalid store name %q", name)
	}
	if err := MigrateLegacyDB(dataRoot); err != nil {
		return nil, err
	}
	return OpenReadOnly(DBPath(dataRoot, name))
}
