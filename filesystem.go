package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File open modes for the fopen syscall.
const (
	FILE_MODE_READ  = 0
	FILE_MODE_WRITE = 1
)

// MAX_OPEN_FILES bounds the guest's handle table.
const MAX_OPEN_FILES = 16

// FileSystem backs the fopen/fread/fwrite/fclose syscalls with a restricted
// directory on the host. Guest paths are relative to the sandbox root;
// absolute paths and anything escaping the root are refused at open time.
// All guest-visible failures are the 0xFFFFFFFF sentinel - the guest never
// sees a Go error.
type FileSystem struct {
	baseDir    string
	handles    map[uint32]*os.File
	nextHandle uint32
}

// NewFileSystem creates a filesystem sandboxed to baseDir.
func NewFileSystem(baseDir string) *FileSystem {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		absBase = baseDir
	}
	return &FileSystem{
		baseDir: absBase,
		handles: make(map[uint32]*os.File),
	}
}

// sanitizePath ensures the given path is safe and within baseDir.
func (fs *FileSystem) sanitizePath(path string) (string, bool) {
	if path == "" || filepath.IsAbs(path) || strings.Contains(path, "..") {
		return "", false
	}

	fullPath := filepath.Join(fs.baseDir, path)

	// Final check: must be inside baseDir
	rel, err := filepath.Rel(fs.baseDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}

	return fullPath, true
}

// Open opens a guest file and returns its handle, or the sentinel on any
// failure (bad path, missing file in read mode, handle table full).
func (fs *FileSystem) Open(name string, mode uint32) uint32 {
	if len(fs.handles) >= MAX_OPEN_FILES {
		return SYSCALL_ERR
	}
	fullPath, ok := fs.sanitizePath(name)
	if !ok {
		return SYSCALL_ERR
	}

	var file *os.File
	var err error
	switch mode {
	case FILE_MODE_READ:
		file, err = os.Open(fullPath)
	case FILE_MODE_WRITE:
		file, err = os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	default:
		return SYSCALL_ERR
	}
	if err != nil {
		return SYSCALL_ERR
	}

	handle := fs.nextHandle
	fs.nextHandle++
	fs.handles[handle] = file
	return handle
}

// Read fills buf from an open handle and returns the byte count; a bad
// handle or read failure returns the sentinel.
func (fs *FileSystem) Read(handle uint32, buf []byte) uint32 {
	file, ok := fs.handles[handle]
	if !ok {
		return SYSCALL_ERR
	}
	n, err := file.Read(buf)
	if n == 0 && err != nil {
		// EOF is not an error to the guest; it reads as zero bytes.
		if errors.Is(err, io.EOF) {
			return 0
		}
		return SYSCALL_ERR
	}
	return uint32(n)
}

// Write stores buf through an open handle and returns the byte count, or
// the sentinel on a bad handle or write failure.
func (fs *FileSystem) Write(handle uint32, buf []byte) uint32 {
	file, ok := fs.handles[handle]
	if !ok {
		return SYSCALL_ERR
	}
	n, err := file.Write(buf)
	if err != nil {
		return SYSCALL_ERR
	}
	return uint32(n)
}

// Close releases a handle. Returns 0 on success, the sentinel on a bad
// handle.
func (fs *FileSystem) Close(handle uint32) uint32 {
	file, ok := fs.handles[handle]
	if !ok {
		return SYSCALL_ERR
	}
	delete(fs.handles, handle)
	file.Close()
	return 0
}

// CloseAll closes every open handle; called on machine shutdown so guest
// exits never leak host descriptors.
func (fs *FileSystem) CloseAll() {
	for handle, file := range fs.handles {
		file.Close()
		delete(fs.handles, handle)
	}
}
