// Package transport opens interactive command sessions against network
// devices over SSH, falling back to Telnet, and keeps one session open
// across the several commands a fact collection pass issues.
package transport

import (
	"fmt"
	"regexp"
	"time"

	"github.com/marktegna/netwalker/pkg/util"
)

// Protocol identifies which transport carried a Session.
type Protocol string

const (
	ProtocolSSH    Protocol = "ssh"
	ProtocolTelnet Protocol = "telnet"
)

// Credentials are the username/password/enable-password triple resolved by
// the credential store before a dial is attempted.
type Credentials struct {
	Username       string
	Password       string
	EnablePassword string
}

// Preferences controls how Open dials a device: which ports to use, which
// protocol to try first, how long to wait for a dial versus a command, and
// which housekeeping commands to run once logged in (typically disabling
// the terminal pager).
type Preferences struct {
	SSHPort           int
	TelnetPort        int
	PreferSSH         bool
	DialTimeout       time.Duration
	CommandTimeout    time.Duration
	PostLoginCommands []string
	PromptPattern     *regexp.Regexp
}

// DefaultPreferences returns the preferences NetWalker dials with absent any
// device-specific config override.
func DefaultPreferences() Preferences {
	return Preferences{
		SSHPort:        22,
		TelnetPort:     23,
		PreferSSH:      true,
		DialTimeout:    10 * time.Second,
		CommandTimeout: 20 * time.Second,
		PromptPattern:  defaultPromptRE,
	}
}

// defaultPromptRE matches the trailing "hostname#", "hostname>" or
// "hostname(config)#" style prompts common to IOS-family, NX-OS, EOS and
// JunOS CLIs once the pager has been disabled.
var defaultPromptRE = regexp.MustCompile(`(?m)[\r\n]?[\w\-.()/: ]*[>#]\s*$`)

// Session is one authenticated, interactive connection to a device. Send
// may be called multiple times; the underlying connection, and any
// enable-mode state, persists across calls. Close must be called exactly
// once. A Session is owned by a single goroutine — it is never shared
// across crawl workers.
type Session interface {
	// Send writes cmd followed by a newline and reads output until the
	// device prompt reappears or timeout elapses.
	Send(cmd string, timeout time.Duration) (string, error)
	// Protocol reports which transport carried this session.
	Protocol() Protocol
	// Close tears down the underlying connection.
	Close() error
}

// Open dials host, trying the protocol order implied by prefs.PreferSSH,
// and returns an interactive Session. It returns a *util.UnreachableError,
// *util.AuthFailedError, *util.TimeoutError or *util.ProtocolError on
// failure — callers should use errors.Is against the util sentinel taxonomy
// rather than switching on concrete types.
func Open(host string, creds Credentials, prefs Preferences) (Session, error) {
	order := []Protocol{ProtocolSSH, ProtocolTelnet}
	if !prefs.PreferSSH {
		order = []Protocol{ProtocolTelnet, ProtocolSSH}
	}

	var lastErr error
	for _, proto := range order {
		var (
			sess Session
			err  error
		)
		switch proto {
		case ProtocolSSH:
			sess, err = openSSH(host, creds, prefs)
		case ProtocolTelnet:
			sess, err = openTelnet(host, creds, prefs)
		}
		if err == nil {
			return sess, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func enablePrompt(host string, s Session, creds Credentials, timeout time.Duration) error {
	if creds.EnablePassword == "" {
		return nil
	}
	out, err := s.Send("enable", timeout)
	if err != nil {
		return err
	}
	if regexp.MustCompile(`(?i)password`).MatchString(out) {
		if _, err := s.Send(creds.EnablePassword, timeout); err != nil {
			return err
		}
	}
	return nil
}

func wrapDialError(host string, port int, proto Protocol, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case regexp.MustCompile(`(?i)auth`).MatchString(msg):
		return util.NewAuthFailedError(host, "")
	case regexp.MustCompile(`(?i)timeout|timed out`).MatchString(msg):
		return util.NewTimeoutError(host, "dial", 0)
	default:
		return util.NewUnreachableError(host, port, string(proto), msg)
	}
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
