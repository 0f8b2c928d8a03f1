package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultFileMode fs.FileMode = 0o644

// fileWriter replaces files through a temporary file and a rename.
type fileWriter struct {
	rename func(oldpath, newpath string) error
}

func newFileWriter() *fileWriter {
	return &fileWriter{rename: os.Rename}
}

// write atomically replaces path with data. The temporary file lives in the
// target directory so the rename never crosses file systems. An existing
// file keeps its permission bits.
func (fw *fileWriter) write(path string, data []byte) error {
	mode := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &AtomicWriteError{Path: path, Op: "create", Err: err}
	}
	tmpName := tmp.Name()

	fail := func(op string, err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &AtomicWriteError{Path: path, Op: op, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &AtomicWriteError{Path: path, Op: "close", Err: err}
	}
	if err := fw.rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &AtomicWriteError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

// writeIfChanged writes data unless path already holds exactly data.
// It reports whether the file was written.
func (fw *fileWriter) writeIfChanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path) //nolint:gosec // path comes from the document folder
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, &AtomicWriteError{Path: path, Op: "read", Err: err}
	}
	if err := fw.write(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// encodeJSON encodes v as two-space indented JSON without HTML escaping.
func encodeJSON(path string, v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, &SerializationError{Path: path, Err: err}
	}
	return buf.Bytes(), nil
}

// fileEquals reports whether path exists and holds exactly data.
func fileEquals(path string, data []byte) bool {
	existing, err := os.ReadFile(path) //nolint:gosec // path comes from the document folder
	return err == nil && bytes.Equal(existing, data)
}
