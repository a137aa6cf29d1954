package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CorruptArtifactError means the artifact at Path failed structural
// validation. It is fatal at startup: a process that cannot load a sound
// bundle must not serve predictions.
type CorruptArtifactError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptArtifactError) Error() string {
	return fmt.Sprintf("corrupt model bundle at %s: %s", e.Path, e.Reason)
}

func (e *CorruptArtifactError) Unwrap() error { return e.Err }

// Save writes the bundle atomically: a temp file in the target directory,
// then rename. Readers either see the previous artifact or the new one,
// never a partial write.
func Save(b *Bundle, path string) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid bundle: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bundle: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bundle-*.json")
	if err != nil {
		return fmt.Errorf("creating temp bundle file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing bundle file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing bundle: %w", err)
	}
	return nil
}

// Load reads and validates the artifact at path. Any structural problem is
// reported as a *CorruptArtifactError rather than surfacing later as a
// scoring failure far from the cause.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CorruptArtifactError{Path: path, Reason: "unreadable", Err: err}
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &CorruptArtifactError{Path: path, Reason: "invalid JSON", Err: err}
	}

	if err := b.Validate(); err != nil {
		return nil, &CorruptArtifactError{Path: path, Reason: err.Error(), Err: err}
	}

	return &b, nil
}
