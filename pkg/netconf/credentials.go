package netconf

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/ini.v1"

	"github.com/marktegna/netwalker/pkg/util"
)

// Credentials is the result of the Credential Store's single operation.
type Credentials struct {
	Username       string
	Password       string
	EnablePassword string
}

// Overrides carries explicit command-line values, which take precedence
// over every other resolution step.
type Overrides struct {
	Username       string
	Password       string
	EnablePassword string
}

const encPrefix = "ENC:"

// CredentialStore resolves device login credentials, per spec §4.1's
// order: CLI overrides, then environment variables, then a credentials
// file searched upward, then an interactive prompt.
type CredentialStore struct {
	overrides Overrides
	searchDir string
}

// NewCredentialStore returns a store that searches for a credentials file
// starting at searchDir (typically the current working directory).
func NewCredentialStore(overrides Overrides, searchDir string) *CredentialStore {
	return &CredentialStore{overrides: overrides, searchDir: searchDir}
}

// Get resolves credentials using the documented precedence. It returns an
// error only if every step including the interactive prompt fails.
func (c *CredentialStore) Get() (Credentials, error) {
	if c.overrides.Username != "" && c.overrides.Password != "" {
		return Credentials{
			Username:       c.overrides.Username,
			Password:       c.overrides.Password,
			EnablePassword: c.overrides.EnablePassword,
		}, nil
	}

	if u, p, ok := fromEnv(); ok {
		return Credentials{Username: u, Password: p, EnablePassword: os.Getenv("NETWALKER_ENABLE_PASSWORD")}, nil
	}

	if path, ok := findCredentialsFile(c.searchDir); ok {
		creds, err := loadCredentialsFile(path)
		if err == nil {
			return creds, nil
		}
		util.Warnf("netconf: credentials file %s unusable, falling back to prompt: %v", path, err)
	}

	return promptCredentials()
}

func fromEnv() (username, password string, ok bool) {
	username = os.Getenv("NETWALKER_USERNAME")
	password = os.Getenv("NETWALKER_PASSWORD")
	return username, password, username != "" && password != ""
}

// findCredentialsFile searches the current directory, then one and two
// levels up, per spec §4.1.
func findCredentialsFile(start string) (string, bool) {
	dir := start
	if dir == "" {
		dir, _ = os.Getwd()
	}
	for i := 0; i < 3; i++ {
		candidate := filepath.Join(dir, "credentials.ini")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

// loadCredentialsFile reads [credentials] username/password/enable_password.
// On first read of a plaintext password, it rewrites the file with the
// password ENC:-prefixed and base64-obfuscated — reversible obfuscation,
// not encryption, exactly as spec.md §4.1 requires callers be told.
func loadCredentialsFile(path string) (Credentials, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Credentials{}, util.NewCredentialError(path, err.Error())
	}
	sec := file.Section("credentials")

	username := sec.Key("username").String()
	if username == "" {
		return Credentials{}, util.NewCredentialError(path, "missing username in [credentials]")
	}

	passKey := sec.Key("password")
	password, rewritten, err := decodeOrObfuscate(passKey.String())
	if err != nil {
		return Credentials{}, util.NewCredentialError(path, err.Error())
	}
	if rewritten != "" {
		passKey.SetValue(rewritten)
		_ = file.SaveTo(path)
	}

	enablePassword := ""
	if enKey, err := sec.GetKey("enable_password"); err == nil {
		enPlain, enRewritten, derr := decodeOrObfuscate(enKey.String())
		if derr == nil {
			enablePassword = enPlain
			if enRewritten != "" {
				enKey.SetValue(enRewritten)
				_ = file.SaveTo(path)
			}
		}
	}

	return Credentials{Username: username, Password: password, EnablePassword: enablePassword}, nil
}

// decodeOrObfuscate decodes an ENC:-prefixed value, or, if raw is plain
// text, returns the value unchanged alongside the ENC:-prefixed form it
// should be rewritten to. An empty raw value passes through untouched.
func decodeOrObfuscate(raw string) (value string, rewriteTo string, err error) {
	if raw == "" {
		return "", "", nil
	}
	if strings.HasPrefix(raw, encPrefix) {
		decoded, derr := base64.StdEncoding.DecodeString(strings.TrimPrefix(raw, encPrefix))
		if derr != nil {
			return "", "", fmt.Errorf("invalid %s value: %w", encPrefix, derr)
		}
		return string(decoded), "", nil
	}
	encoded := encPrefix + base64.StdEncoding.EncodeToString([]byte(raw))
	return raw, encoded, nil
}

// promptCredentials interactively asks for username/password with echo
// suppressed for secrets, using golang.org/x/term — the teacher's own
// terminal dependency, reused here instead of a hand-rolled tty reader.
func promptCredentials() (Credentials, error) {
	fmt.Print("Username: ")
	var username string
	if _, err := fmt.Scanln(&username); err != nil {
		return Credentials{}, util.NewCredentialError("", "could not read username: "+err.Error())
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return Credentials{}, util.NewCredentialError("", "could not read password: "+err.Error())
	}

	return Credentials{Username: username, Password: string(passwordBytes)}, nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func newConfigError(path, section, details string) error {
	return util.NewConfigError(path, section, details)
}
