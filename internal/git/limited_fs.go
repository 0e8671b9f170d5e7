package git

import (
	"errors"
	"os"
	"sync"

	billy "github.com/go-git/go-billy/v5"
)

// Default limits applied to in-memory clones
const (
	DefaultMaxFiles      = 10 * 1000
	DefaultTotalFileSize = 100 * 1024 * 1024
)

var (
	// ErrTooManyFiles is returned when a clone creates more files than allowed
	ErrTooManyFiles = errors.New("repository exceeds the maximum number of files")

	// ErrTooLarge is returned when a clone writes more bytes than allowed
	ErrTooLarge = errors.New("repository exceeds the maximum total file size")
)

// LimitedFs caps the number of files created and the bytes written through it
type LimitedFs struct {
	billy.Filesystem

	MaxFiles      int64
	TotalFileSize int64

	mu    sync.Mutex
	files int64
	size  int64
}

// Create creates a file, counting it against MaxFiles
func (fs *LimitedFs) Create(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// OpenFile opens a file. Files created by the call count against MaxFiles and
// writes to the returned file count against TotalFileSize.
func (fs *LimitedFs) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if _, err := fs.Filesystem.Stat(filename); os.IsNotExist(err) {
			if err := fs.addFile(); err != nil {
				return nil, err
			}
		}
	}

	f, err := fs.Filesystem.OpenFile(filename, flag, perm)
	if err != nil {
		return nil, err
	}
	if flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return f, nil
	}
	return &limitedFile{File: f, fs: fs}, nil
}

// TempFile creates a temporary file, counting it against MaxFiles
func (fs *LimitedFs) TempFile(dir, prefix string) (billy.File, error) {
	if err := fs.addFile(); err != nil {
		return nil, err
	}
	f, err := fs.Filesystem.TempFile(dir, prefix)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: fs}, nil
}

func (fs *LimitedFs) addFile() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.MaxFiles > 0 && fs.files >= fs.MaxFiles {
		return ErrTooManyFiles
	}
	fs.files++
	return nil
}

func (fs *LimitedFs) addBytes(n int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.TotalFileSize > 0 && fs.size+n > fs.TotalFileSize {
		return ErrTooLarge
	}
	fs.size += n
	return nil
}

type limitedFile struct {
	billy.File
	fs *LimitedFs
}

func (f *limitedFile) Write(p []byte) (int, error) {
	if err := f.fs.addBytes(int64(len(p))); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}
