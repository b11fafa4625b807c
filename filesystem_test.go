package main

import (
	"os"
	"path/filepath"
	"testing"
)

// TestFileSystemSandbox verifies path traversal and absolute paths are
// refused at open time.
func TestFileSystemSandbox(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	for _, name := range []string{
		"",
		"/etc/passwd",
		"../escape.txt",
		"sub/../../escape.txt",
	} {
		if h := fs.Open(name, FILE_MODE_WRITE); h != SYSCALL_ERR {
			t.Fatalf("Open(%q) = %d, expected sentinel", name, h)
		}
	}
}

// TestFileSystemRoundTrip verifies write-then-read through handles.
func TestFileSystemRoundTrip(t *testing.T) {
	fs := NewFileSystem(t.TempDir())

	h := fs.Open("data.bin", FILE_MODE_WRITE)
	if h == SYSCALL_ERR {
		t.Fatalf("Open for write failed")
	}
	if n := fs.Write(h, []byte("payload")); n != 7 {
		t.Fatalf("Write = %d, expected 7", n)
	}
	if r := fs.Close(h); r != 0 {
		t.Fatalf("Close = %d, expected 0", r)
	}

	h = fs.Open("data.bin", FILE_MODE_READ)
	if h == SYSCALL_ERR {
		t.Fatalf("Open for read failed")
	}
	buf := make([]byte, 16)
	if n := fs.Read(h, buf); n != 7 {
		t.Fatalf("Read = %d, expected 7", n)
	}
	if string(buf[:7]) != "payload" {
		t.Fatalf("Read data = %q, expected \"payload\"", buf[:7])
	}
	// At EOF the guest sees zero bytes, not an error.
	if n := fs.Read(h, buf); n != 0 {
		t.Fatalf("Read at EOF = %d, expected 0", n)
	}
	fs.Close(h)
}

// TestFileSystemBadHandles verifies operations on unknown handles return
// the sentinel.
func TestFileSystemBadHandles(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	if n := fs.Read(42, make([]byte, 4)); n != SYSCALL_ERR {
		t.Fatalf("Read on bad handle = %d, expected sentinel", n)
	}
	if n := fs.Write(42, []byte("x")); n != SYSCALL_ERR {
		t.Fatalf("Write on bad handle = %d, expected sentinel", n)
	}
	if n := fs.Close(42); n != SYSCALL_ERR {
		t.Fatalf("Close on bad handle = %d, expected sentinel", n)
	}
	// Opening a missing file for read fails; for write it is created.
	if h := fs.Open("missing.txt", FILE_MODE_READ); h != SYSCALL_ERR {
		t.Fatalf("Open missing file = %d, expected sentinel", h)
	}
}

// TestFileSystemHandleLimit verifies the handle table caps at
// MAX_OPEN_FILES.
func TestFileSystemHandleLimit(t *testing.T) {
	root := t.TempDir()
	fs := NewFileSystem(root)
	for i := 0; i < MAX_OPEN_FILES; i++ {
		if h := fs.Open(string(rune('a'+i))+".txt", FILE_MODE_WRITE); h == SYSCALL_ERR {
			t.Fatalf("Open %d failed below the limit", i)
		}
	}
	if h := fs.Open("over.txt", FILE_MODE_WRITE); h != SYSCALL_ERR {
		t.Fatalf("Open beyond the limit = %d, expected sentinel", h)
	}
	fs.CloseAll()
	if h := fs.Open("over.txt", FILE_MODE_WRITE); h == SYSCALL_ERR {
		t.Fatalf("Open after CloseAll failed")
	}

	if _, err := os.Stat(filepath.Join(root, "a.txt")); err != nil {
		t.Fatalf("created file missing on host: %v", err)
	}
}
