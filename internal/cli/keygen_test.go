package cli

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateKeyStdout(t *testing.T) {
	var output bytes.Buffer
	err := generateKey("", false, strings.NewReader(""), &output)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key, err := hex.DecodeString(strings.TrimSpace(output.String()))
	if err != nil {
		t.Fatalf("output is not hex: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("expected 32 byte key, got %d", len(key))
	}
}

func TestGenerateKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "link.key")

	tests := []struct {
		name        string
		force       bool
		answer      string
		wantErr     bool
		wantChanged bool
	}{
		{"new file", false, "", false, true},
		{"declined", false, "n\n", true, false},
		{"no answer", false, "", true, false},
		{"confirmed", false, "yes\n", false, true},
		{"forced", true, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := os.ReadFile(path)

			var output bytes.Buffer
			err := generateKey(path, tt.force, strings.NewReader(tt.answer), &output)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}

			after, readErr := os.ReadFile(path)
			if readErr != nil {
				t.Fatalf("key file missing: %v", readErr)
			}
			if changed := !bytes.Equal(before, after); changed != tt.wantChanged {
				t.Errorf("expected changed=%v, got %v", tt.wantChanged, changed)
			}

			info, _ := os.Stat(path)
			if info.Mode().Perm() != 0600 {
				t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
			}
		})
	}
}

func TestDefineOptions(t *testing.T) {
	root := DefineOptions()
	for _, name := range []string{"ground", "air", "keygen", "version"} {
		if _, ok := root.ChildCommands[name]; !ok {
			t.Errorf("missing command %s", name)
		}
	}
}
