package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

var (
	_ FileSystem = OSFileSystem{}
	_ FileSystem = (*MemoryFileSystem)(nil)
)

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	fs := NewMemoryFileSystem()
	fs.WriteFile("/data/step_1.csv", []byte("id,block_id\n1,2\n"))

	got, err := fs.ReadFile("/data/step_1.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "id,block_id\n1,2\n" {
		t.Errorf("ReadFile = %q", got)
	}
	if !fs.Exists("/data") {
		t.Error("parent directory should exist")
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	fs := NewMemoryFileSystem()
	w, err := fs.Create("out/summary.csv")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := io.WriteString(w, "g1_phi_1\n0.5\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	before, _ := fs.ReadFile("out/summary.csv")
	if len(before) != 0 {
		t.Errorf("contents visible before Close: %q", before)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	after, _ := fs.ReadFile("out/summary.csv")
	if string(after) != "g1_phi_1\n0.5\n" {
		t.Errorf("ReadFile after Close = %q", after)
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	fs := NewMemoryFileSystem()
	fs.WriteFile("a.csv", []byte("hello"))

	f, err := fs.Open("./a.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Open content = %q", data)
	}
	info, _ := f.Stat()
	if info.Name() != "a.csv" || info.Size() != 5 {
		t.Errorf("Stat = %s/%d", info.Name(), info.Size())
	}

	if _, err := fs.Open("missing.csv"); !os.IsNotExist(err) {
		t.Errorf("Open missing: err = %v, want not-exist", err)
	}
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	fs := NewMemoryFileSystem()
	if err := fs.MkdirAll("/runs/a/b", 0o755); err != nil {
		t.Fatal(err)
	}
	fs.WriteFile("/runs/a/b/c.toml", []byte("x = 1"))

	info, err := fs.Stat("/runs/a")
	if err != nil || !info.IsDir() || !info.Mode().IsDir() {
		t.Errorf("Stat dir = %v, %v", info, err)
	}
	info, err = fs.Stat("/runs/a/b/c.toml")
	if err != nil || info.IsDir() || info.Size() != 5 {
		t.Errorf("Stat file = %v, %v", info, err)
	}
	if _, err := fs.Stat("/runs/none"); !os.IsNotExist(err) {
		t.Errorf("Stat missing: err = %v", err)
	}
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	fs := NewMemoryFileSystem()
	fs.WriteFile("/sim/results_element_10.csv", nil)
	fs.WriteFile("/sim/results_element_2.csv", nil)
	fs.WriteFile("/sim/nested/other.csv", nil)

	got, err := fs.ReadDir("/sim")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	want := []string{"results_element_10.csv", "results_element_2.csv"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadDir = %v, want %v", got, want)
	}

	if _, err := fs.ReadDir("/nowhere"); !os.IsNotExist(err) {
		t.Errorf("ReadDir missing: err = %v", err)
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	fs := NewMemoryFileSystem()
	data := []byte("abc")
	fs.WriteFile("x", data)
	data[0] = 'z'

	got, _ := fs.ReadFile("x")
	got[1] = 'z'
	again, _ := fs.ReadFile("x")
	if string(again) != "abc" {
		t.Errorf("stored data was aliased: %q", again)
	}
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := OSFileSystem{}

	sub := filepath.Join(dir, "snapshots")
	if err := fs.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	w, err := fs.Create(filepath.Join(sub, "t0.csv"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	io.WriteString(w, "id\n1\n")
	w.Close()
	if err := os.Mkdir(filepath.Join(sub, "ignored"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := fs.ReadDir(sub)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"t0.csv"}) {
		t.Errorf("ReadDir = %v", names)
	}

	data, err := fs.ReadFile(filepath.Join(sub, "t0.csv"))
	if err != nil || string(data) != "id\n1\n" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
	if !fs.Exists(sub) || fs.Exists(filepath.Join(sub, "nope")) {
		t.Error("Exists gave the wrong answer")
	}
	info, err := fs.Stat(filepath.Join(sub, "t0.csv"))
	if err != nil || info.Size() != 5 {
		t.Errorf("Stat = %v, %v", info, err)
	}
	f, err := fs.Open(filepath.Join(sub, "t0.csv"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	f.Close()
}
