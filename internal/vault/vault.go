// Package vault stores GitHub tokens in an age-encrypted file instead of
// the plaintext config. It is enabled by setting GH_VAULT_PASSPHRASE.
//
// Tokens are keyed by API host. Every write replaces the file atomically
// (temp file, fsync, rename).
package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// PassphraseEnv is the environment variable that enables the vault.
const PassphraseEnv = "GH_VAULT_PASSPHRASE"

var (
	ErrWrongPassphrase = errors.New("wrong vault passphrase")
	ErrCorruptedVault  = errors.New("vault file is corrupted or unreadable")
	ErrNoToken         = errors.New("no token stored for host")
)

type contents struct {
	Tokens map[string]string `json:"tokens"`
}

// Vault is an age-encrypted token store.
type Vault struct {
	path       string
	passphrase string
}

// Open returns a vault at path. The file is created on first write.
func Open(path, passphrase string) (*Vault, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("empty passphrase; set %s", PassphraseEnv)
	}
	return &Vault{path: path, passphrase: passphrase}, nil
}

// FromEnv opens the vault at path when GH_VAULT_PASSPHRASE is set. It
// returns nil, nil when the vault is not enabled.
func FromEnv(path string) (*Vault, error) {
	pass := os.Getenv(PassphraseEnv)
	if pass == "" {
		return nil, nil
	}
	return Open(path, pass)
}

// Path returns the vault file path.
func (v *Vault) Path() string {
	return v.path
}

// Token returns the token stored for host.
func (v *Vault) Token(host string) (string, error) {
	c, err := v.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w %s", ErrNoToken, host)
		}
		return "", err
	}
	tok, ok := c.Tokens[host]
	if !ok {
		return "", fmt.Errorf("%w %s", ErrNoToken, host)
	}
	return tok, nil
}

// SetToken stores token for host.
func (v *Vault) SetToken(host, token string) error {
	if host == "" {
		return errors.New("host must not be empty")
	}
	c, err := v.load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if c == nil {
		c = &contents{Tokens: map[string]string{}}
	}
	c.Tokens[host] = token
	return v.save(c)
}

// DeleteToken removes the token for host. Deleting a missing token is a
// no-op.
func (v *Vault) DeleteToken(host string) error {
	c, err := v.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if _, ok := c.Tokens[host]; !ok {
		return nil
	}
	delete(c.Tokens, host)
	return v.save(c)
}

// Hosts lists the hosts with stored tokens.
func (v *Vault) Hosts() ([]string, error) {
	c, err := v.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	hosts := make([]string, 0, len(c.Tokens))
	for h := range c.Tokens {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts, nil
}

func (v *Vault) load() (*contents, error) {
	raw, err := os.ReadFile(v.path)
	if err != nil {
		return nil, err
	}
	return decrypt(raw, v.passphrase)
}

func (v *Vault) save(c *contents) error {
	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return fmt.Errorf("creating vault directory: %w", err)
	}
	raw, err := encrypt(c, v.passphrase)
	if err != nil {
		return err
	}
	return atomicWrite(v.path, raw)
}

func encrypt(c *contents, passphrase string) ([]byte, error) {
	plain, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("serializing vault: %w", err)
	}
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating age recipient: %w", err)
	}

	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)
	w, err := age.Encrypt(aw, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing age encryption: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return nil, fmt.Errorf("encrypting vault: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.Bytes(), nil
}

func decrypt(raw []byte, passphrase string) (*contents, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating age identity: %w", err)
	}
	r, err := age.Decrypt(armor.NewReader(bytes.NewReader(raw)), identity)
	if err != nil {
		// age has no typed error for a bad passphrase.
		msg := err.Error()
		if strings.Contains(msg, "no identity matched") || strings.Contains(msg, "incorrect") {
			return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptedVault, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedVault, err)
	}
	var c contents
	if err := json.Unmarshal(plain, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedVault, err)
	}
	if c.Tokens == nil {
		c.Tokens = map[string]string{}
	}
	return &c, nil
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".vault-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	name := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(name)
		}
	}()

	if err := os.Chmod(name, 0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting vault permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing vault: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing vault: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("committing vault: %w", err)
	}
	committed = true
	return nil
}
