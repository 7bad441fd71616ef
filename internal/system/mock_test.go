package system

import (
	"context"
	"errors"
	"io/fs"
	"testing"
)

func TestMockFS_WriteRequiresParent(t *testing.T) {
	mockFS := NewMockFS()

	if err := mockFS.WriteFile("/units/a.service", []byte("x"), 0644); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("WriteFile without parent error = %v, want fs.ErrNotExist", err)
	}

	if err := mockFS.MkdirAll("/units", 0755); err != nil {
		t.Fatal(err)
	}
	if err := mockFS.WriteFile("/units/a.service", []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	data, err := mockFS.ReadFile("/units/a.service")
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(data) != "x" {
		t.Errorf("ReadFile = %q, want %q", data, "x")
	}
}

func TestMockFS_ReadDir(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/units/b.service", nil)
	mockFS.AddFile("/units/a.service", nil)
	mockFS.AddFile("/units/nested/c.service", nil)
	mockFS.AddFile("/other/d.service", nil)

	entries, err := mockFS.ReadDir("/units")
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}

	want := []struct {
		name  string
		isDir bool
	}{{"a.service", false}, {"b.service", false}, {"nested", true}}
	if len(entries) != len(want) {
		t.Fatalf("ReadDir returned %d entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Name() != w.name || entries[i].IsDir() != w.isDir {
			t.Errorf("entry %d = (%s, %v), want (%s, %v)", i, entries[i].Name(), entries[i].IsDir(), w.name, w.isDir)
		}
	}

	if _, err := mockFS.ReadDir("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadDir(/missing) error = %v, want fs.ErrNotExist", err)
	}
}

func TestMockFS_Remove(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/units/a.service", []byte("x"))

	if err := mockFS.Remove("/units/a.service"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if mockFS.Exists("/units/a.service") {
		t.Error("file should be removed")
	}
	if err := mockFS.Remove("/units/a.service"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("second Remove error = %v, want fs.ErrNotExist", err)
	}

	mockFS.RemoveErr = errors.New("read-only")
	mockFS.AddFile("/units/b.service", nil)
	if err := mockFS.Remove("/units/b.service"); err == nil {
		t.Error("expected injected error")
	}
}

func TestMockExecutor_LongestPrefix(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("docker", []byte("generic"), nil)
	exec.AddResponse("docker inspect", []byte("inspect"), nil)
	exec.AddResponse("docker inspect conduit-web", []byte("web"), nil)
	exec.DefaultResponse = MockResponse{Output: []byte("default")}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"docker", []string{"ps"}, "generic"},
		{"docker", []string{"inspect", "conduit-db"}, "inspect"},
		{"docker", []string{"inspect", "conduit-web"}, "web"},
		{"docker", []string{"inspect", "conduit-webapp"}, "inspect"},
		{"systemctl", []string{"show"}, "default"},
	}

	for _, tt := range tests {
		out, err := exec.Execute(context.Background(), tt.name, tt.args...)
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		if string(out) != tt.want {
			t.Errorf("Execute(%s %v) = %q, want %q", tt.name, tt.args, out, tt.want)
		}
	}

	if got := len(exec.Commands); got != len(tests) {
		t.Errorf("recorded %d commands, want %d", got, len(tests))
	}
}

func TestMockExecutor_Records(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("systemctl --user daemon-reload", nil, errors.New("bus down"))

	if _, err := exec.Execute(context.Background(), "systemctl", "--user", "daemon-reload"); err == nil {
		t.Error("expected configured error")
	}
	if _, err := exec.ExecuteWithStdin(context.Background(), "payload", "tee", "/tmp/x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	last, ok := exec.LastCommand()
	if !ok {
		t.Fatal("LastCommand should report a command")
	}
	if last.Stdin != "payload" {
		t.Errorf("Stdin = %q, want payload", last.Stdin)
	}

	lines := exec.CommandLines()
	if lines[0] != "systemctl --user daemon-reload" || lines[1] != "tee /tmp/x" {
		t.Errorf("CommandLines = %v", lines)
	}

	exec.Reset()
	if _, ok := exec.LastCommand(); ok {
		t.Error("Reset should clear recorded commands")
	}
}
