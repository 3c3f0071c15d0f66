package save

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_MissingIsNil(t *testing.T) {
	s := NewFileStore(t.TempDir())
	data, err := s.Load("NOPE")
	if err != nil || data != nil {
		t.Fatalf("Load missing got %v, %v; want nil, nil", data, err)
	}
}

func TestFileStore_RoundTripAndOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	s := NewFileStore(dir)
	if err := s.Save("POKEMON RED", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save("POKEMON RED", []byte{4, 5}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("POKEMON RED")
	if err != nil || !bytes.Equal(got, []byte{4, 5}) {
		t.Fatalf("Load got %v, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "POKEMON_RED.sav")); err != nil {
		t.Fatalf("expected POKEMON_RED.sav: %v", err)
	}
	ents, _ := os.ReadDir(dir)
	if len(ents) != 1 {
		t.Fatalf("dir holds %d entries, want 1 (temp files left behind?)", len(ents))
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := map[string]string{
		"TETRIS":       "TETRIS",
		"a/b\\c":       "abc",
		"  ":           "untitled",
		"..":           "untitled",
		"Zelda: DX v1": "Zelda_DX_v1",
	}
	for in, want := range cases {
		if got := SanitizeKey(in); got != want {
			t.Fatalf("SanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMemStore_CopiesData(t *testing.T) {
	s := NewMemStore()
	in := []byte{9}
	_ = s.Save("k", in)
	in[0] = 0
	got, _ := s.Load("k")
	if got[0] != 9 {
		t.Fatalf("MemStore aliased caller's slice")
	}
}

func TestMemStore_ZeroValue(t *testing.T) {
	var s MemStore
	if got, err := s.Load("k"); got != nil || err != nil {
		t.Fatalf("Load on empty store got %v, %v", got, err)
	}
	if err := s.Save("k", []byte{1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := s.Load("k"); !bytes.Equal(got, []byte{1}) {
		t.Fatalf("Load got %v, want [1]", got)
	}
}
