package filesystem

import (
	"io"
	"os"
	"path/filepath"
)

// StateFs lets gache persist through the active backend. The catalog
// and the version cache both sit on it.
type StateFs struct{}

// OpenFile creates missing parent directories when O_CREATE is set, so a
// fresh data directory needs no preparation.
func (StateFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if flag&os.O_CREATE != 0 {
		if err := API().MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
			return nil, err
		}
	}
	return API().OpenFile(name, flag, perm)
}

func (StateFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
