package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shardulc/dotty/pkg/classfile"
)

func TestDefault(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if s.Output != "out" || s.Workers != 4 || s.ClassfileVersion != classfile.DefaultMajorVersion {
		t.Errorf("got %+v", s)
	}
	if !s.VerifySignatures || !s.EmitSourceFile || s.NoGenericSig {
		t.Errorf("toggles: got %+v", s)
	}
}

func TestParse(t *testing.T) {
	s, err := Parse(`
no-generic-sig = true
verify-signatures = false
output = "classes"
workers = 8
classfile-version = 61
pickled = true
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.NoGenericSig || s.VerifySignatures || !s.Pickled {
		t.Errorf("toggles: got %+v", s)
	}
	if s.Output != "classes" || s.Workers != 8 || s.ClassfileVersion != 61 {
		t.Errorf("values: got %+v", s)
	}
	if !s.EmitSourceFile {
		t.Error("absent key lost its default")
	}

	bs := s.BcodeSettings()
	if !bs.NoGenericSig || bs.VerifySignatures || !bs.EmitSourceFile || bs.ClassfileVersion != 61 {
		t.Errorf("BcodeSettings: got %+v", bs)
	}
}

func TestParseZeroValuesFallBack(t *testing.T) {
	s, err := Parse("output = \"\"\nworkers = 0\nclassfile-version = 0\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Output != DefaultOutput || s.Workers != DefaultWorkers || s.ClassfileVersion != classfile.DefaultMajorVersion {
		t.Errorf("got %+v", s)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown key", "output = \"x\"\ncolour = true\n", "unknown keys: colour"},
		{"too many workers", "workers = 65", "workers: must be at most 64"},
		{"negative workers", "workers = -1", "workers: must be at least 1"},
		{"old version", "classfile-version = 45", "classfile-version: must be at least 49"},
		{"syntax", "workers = ", ""},
		{"wrong type", "workers = \"four\"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := Find(nested)
	if err != nil {
		t.Fatalf("Find without file: %v", err)
	}
	if s.Dir != "" || s.OutputDir() != DefaultOutput {
		t.Errorf("defaults: got dir %q, output %q", s.Dir, s.OutputDir())
	}

	if err := os.WriteFile(filepath.Join(root, "a", FileName), []byte("output = \"gen\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := filepath.Join(root, "a", "gen")
	if got := s.OutputDir(); got != want {
		t.Errorf("OutputDir: got %q, want %q", got, want)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, FileName)); err == nil || !strings.Contains(err.Error(), "cannot read") {
		t.Errorf("missing file: got %v", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("workers = 100\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse error in "+path) {
		t.Errorf("invalid file: got %v", err)
	}
}
