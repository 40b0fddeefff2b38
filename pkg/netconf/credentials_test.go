package netconf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCredentialStoreOverridesTakePrecedence(t *testing.T) {
	store := NewCredentialStore(Overrides{Username: "admin", Password: "secret"}, t.TempDir())
	creds, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if creds.Username != "admin" || creds.Password != "secret" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestCredentialStoreEnvironment(t *testing.T) {
	t.Setenv("NETWALKER_USERNAME", "envuser")
	t.Setenv("NETWALKER_PASSWORD", "envpass")
	t.Setenv("NETWALKER_ENABLE_PASSWORD", "envenable")

	store := NewCredentialStore(Overrides{}, t.TempDir())
	creds, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if creds.Username != "envuser" || creds.Password != "envpass" || creds.EnablePassword != "envenable" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestCredentialStoreFile(t *testing.T) {
	t.Setenv("NETWALKER_USERNAME", "")
	t.Setenv("NETWALKER_PASSWORD", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.ini")
	contents := "[credentials]\nusername = fileuser\npassword = filepass\nenable_password = enablepass\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := NewCredentialStore(Overrides{}, dir)
	creds, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if creds.Username != "fileuser" || creds.Password != "filepass" || creds.EnablePassword != "enablepass" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	rewritten, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(rewritten), "ENC:") {
		t.Error("expected password to be rewritten ENC:-prefixed after first read")
	}

	// A second read must decode the now-obfuscated password back to plain text.
	store2 := NewCredentialStore(Overrides{}, dir)
	creds2, err := store2.Get()
	if err != nil {
		t.Fatalf("Get (second read): %v", err)
	}
	if creds2.Password != "filepass" {
		t.Errorf("Password after round trip = %q, want filepass", creds2.Password)
	}
}

func TestDecodeOrObfuscate(t *testing.T) {
	value, rewriteTo, err := decodeOrObfuscate("hunter2")
	if err != nil {
		t.Fatalf("decodeOrObfuscate: %v", err)
	}
	if value != "hunter2" {
		t.Errorf("value = %q, want hunter2", value)
	}
	if rewriteTo == "" || !strings.HasPrefix(rewriteTo, "ENC:") {
		t.Errorf("rewriteTo = %q, want ENC:-prefixed", rewriteTo)
	}

	decoded, noRewrite, err := decodeOrObfuscate(rewriteTo)
	if err != nil {
		t.Fatalf("decodeOrObfuscate (decode): %v", err)
	}
	if decoded != "hunter2" {
		t.Errorf("decoded = %q, want hunter2", decoded)
	}
	if noRewrite != "" {
		t.Errorf("expected no further rewrite for an already-encoded value, got %q", noRewrite)
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" a, b ,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitCSV = %+v", got)
	}
	if splitCSV("") != nil {
		t.Error("expected nil for empty input")
	}
}
