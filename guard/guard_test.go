package guard

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSafePath(t *testing.T) {
	tests := []struct {
		base, input string
		wantErr     bool
	}{
		{"/data/source_dbs", "chrome.db", false},
		{"/data/source_dbs", "../unified.db", true},
		{"/data/source_dbs", "a/../../outside", true},
		{"/data/source_dbs", "knowledgeC.db", false},
	}
	for _, tt := range tests {
		_, err := SafePath(tt.base, tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("SafePath(%q, %q) error=%v, wantErr=%v", tt.base, tt.input, err, tt.wantErr)
		}
	}

	got, err := SafePath("/data/source_dbs", "chrome.db")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/data/source_dbs", "chrome.db"); got != want {
		t.Fatalf("SafePath = %q, want %q", got, want)
	}
}

func TestExpandHome(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"~/Library/Messages/chat.db", "/Users/me/Library/Messages/chat.db"},
		{"~", "/Users/me"},
		{"/private/var/db/knowledgeC.db", "/private/var/db/knowledgeC.db"},
		{"relative/History", "relative/History"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		got, err := ExpandHome(tt.in, "/Users/me")
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandHome_FallsBackToEnv(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	got, err := ExpandHome("~/x", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/tester/x" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandHome_NoHome(t *testing.T) {
	t.Setenv("HOME", "")
	if _, err := ExpandHome("~/x", ""); !errors.Is(err, ErrNoHome) {
		t.Fatalf("err = %v, want ErrNoHome", err)
	}
}

func TestValidateIdentifier(t *testing.T) {
	for _, ok := range []string{"messages", "knowledgeC", "chrome", "podcasts", "my-source_2"} {
		if err := ValidateIdentifier(ok); err != nil {
			t.Errorf("ValidateIdentifier(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "..", "a/b", "a b", "naïve"} {
		if err := ValidateIdentifier(bad); err == nil {
			t.Errorf("ValidateIdentifier(%q): expected error", bad)
		}
	}
}
