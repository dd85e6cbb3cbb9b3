package vault

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testVault(t *testing.T, pass string) *Vault {
	t.Helper()
	v, err := Open(filepath.Join(t.TempDir(), "gh", "vault.age"), pass)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestSetAndGetToken(t *testing.T) {
	v := testVault(t, "hunter2")
	if err := v.SetToken("github.com", "ghp_abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	got, err := v.Token("github.com")
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if got != "ghp_abc" {
		t.Errorf("Token = %q", got)
	}
}

func TestTokenMissing(t *testing.T) {
	v := testVault(t, "pw")
	if _, err := v.Token("github.com"); !errors.Is(err, ErrNoToken) {
		t.Errorf("empty vault: err = %v, want ErrNoToken", err)
	}
	if err := v.SetToken("github.com", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Token("ghe.example.com"); !errors.Is(err, ErrNoToken) {
		t.Errorf("other host: err = %v, want ErrNoToken", err)
	}
}

func TestDeleteTokenAndHosts(t *testing.T) {
	v := testVault(t, "pw")
	if err := v.DeleteToken("github.com"); err != nil {
		t.Errorf("delete on empty vault: %v", err)
	}
	for _, h := range []string{"z.example.com", "github.com"} {
		if err := v.SetToken(h, "t-"+h); err != nil {
			t.Fatal(err)
		}
	}
	hosts, err := v.Hosts()
	if err != nil {
		t.Fatal(err)
	}
	if len(hosts) != 2 || hosts[0] != "github.com" {
		t.Errorf("Hosts = %v", hosts)
	}

	if err := v.DeleteToken("github.com"); err != nil {
		t.Fatal(err)
	}
	hosts, _ = v.Hosts()
	if len(hosts) != 1 || hosts[0] != "z.example.com" {
		t.Errorf("Hosts after delete = %v", hosts)
	}
}

func TestWrongPassphrase(t *testing.T) {
	v := testVault(t, "right")
	if err := v.SetToken("github.com", "x"); err != nil {
		t.Fatal(err)
	}
	other, _ := Open(v.Path(), "wrong")
	if _, err := other.Token("github.com"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("err = %v, want ErrWrongPassphrase", err)
	}
}

func TestCorruptedVault(t *testing.T) {
	v := testVault(t, "pw")
	if err := os.MkdirAll(filepath.Dir(v.Path()), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(v.Path(), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Token("github.com"); !errors.Is(err, ErrCorruptedVault) {
		t.Errorf("err = %v, want ErrCorruptedVault", err)
	}
}

func TestPlaintextNotOnDisk(t *testing.T) {
	v := testVault(t, "pw")
	if err := v.SetToken("github.com", "ghp_supersecret"); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(v.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "ghp_supersecret") {
		t.Error("token stored in plaintext")
	}
	info, _ := os.Stat(v.Path())
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.age")

	t.Setenv(PassphraseEnv, "")
	v, err := FromEnv(path)
	if err != nil || v != nil {
		t.Errorf("disabled vault: v = %v, err = %v", v, err)
	}

	t.Setenv(PassphraseEnv, "pw")
	v, err = FromEnv(path)
	if err != nil || v == nil {
		t.Fatalf("enabled vault: v = %v, err = %v", v, err)
	}
}

func TestOpenRejectsEmptyPassphrase(t *testing.T) {
	if _, err := Open("x", ""); err == nil {
		t.Error("expected error")
	}
}
