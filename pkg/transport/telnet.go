package transport

import (
	"io"
	"net"
	"regexp"
	"time"

	"github.com/marktegna/netwalker/pkg/util"
)

// Telnet IAC negotiation bytes (RFC 854/855). No usable Telnet client
// library exists anywhere in the reference corpus, so this is a minimal
// hand-rolled client: it negotiates only the two options every network OS
// CLI actually needs (echo and suppress-go-ahead) and otherwise refuses
// every other option the remote offers, which is sufficient to reach a
// usable line-mode login prompt on IOS-family, NX-OS and EOS devices.
const (
	iacIAC  = 255
	iacDONT = 254
	iacDO   = 253
	iacWONT = 252
	iacWILL = 251
	iacSB   = 250
	iacSE   = 240

	optEcho            = 1
	optSuppressGoAhead = 3
)

var (
	usernamePromptRE = regexp.MustCompile(`(?i)(user ?name|login):\s*$`)
	passwordPromptRE = regexp.MustCompile(`(?i)password:\s*$`)
)

type telnetSession struct {
	host  string
	conn  net.Conn
	prefs Preferences
}

func openTelnet(host string, creds Credentials, prefs Preferences) (Session, error) {
	port := prefs.TelnetPort
	if port == 0 {
		port = 23
	}

	conn, err := net.DialTimeout("tcp", fmtAddr(host, port), prefs.DialTimeout)
	if err != nil {
		return nil, wrapDialError(host, port, ProtocolTelnet, err)
	}
	conn.SetDeadline(time.Now().Add(prefs.DialTimeout))

	nr := &negotiatingReader{r: conn, w: conn}

	prompt := defaultPromptRE
	if prefs.PromptPattern != nil {
		prompt = prefs.PromptPattern
	}
	loginRE := regexp.MustCompile(usernamePromptRE.String() + "|" + passwordPromptRE.String() + "|" + prompt.String())

	// Drain the banner up to the first credential prompt and answer it;
	// a device may ask for username, password, or go straight to an
	// un-authenticated prompt (rare, but the loop tolerates it).
	for attempts := 0; attempts < 4; attempts++ {
		text, err := readUntilPrompt(nr, &regexPattern{loginRE}, prefs.DialTimeout, host)
		if err != nil {
			conn.Close()
			return nil, err
		}
		switch {
		case usernamePromptRE.MatchString(text):
			if _, err := io.WriteString(conn, creds.Username+"\r\n"); err != nil {
				conn.Close()
				return nil, util.NewProtocolError(host, "telnet write username: "+err.Error())
			}
		case passwordPromptRE.MatchString(text):
			if _, err := io.WriteString(conn, creds.Password+"\r\n"); err != nil {
				conn.Close()
				return nil, util.NewProtocolError(host, "telnet write password: "+err.Error())
			}
		default:
			// Reached the command prompt.
			conn.SetDeadline(time.Time{})
			s := &telnetSession{host: host, conn: conn, prefs: prefs}
			// Enable-mode transition and pager-disable commands are
			// best-effort: neither failure should prevent the session
			// from being usable for read-only collection.
			if err := enablePrompt(host, s, creds, prefs.CommandTimeout); err != nil {
				util.Warnf("telnet %s: enable mode transition failed: %v", host, err)
			}
			for _, cmd := range prefs.PostLoginCommands {
				if _, err := s.Send(cmd, prefs.CommandTimeout); err != nil {
					util.Warnf("telnet %s: post-login command %q failed: %v", host, cmd, err)
				}
			}
			return s, nil
		}
	}
	conn.Close()
	return nil, util.NewAuthFailedError(host, creds.Username)
}

func (s *telnetSession) Send(cmd string, timeout time.Duration) (string, error) {
	if timeout == 0 {
		timeout = s.prefs.CommandTimeout
	}
	if _, err := io.WriteString(s.conn, cmd+"\r\n"); err != nil {
		return "", util.NewProtocolError(s.host, "telnet write: "+err.Error())
	}
	prompt := defaultPromptRE
	if s.prefs.PromptPattern != nil {
		prompt = s.prefs.PromptPattern
	}
	return readUntilPrompt(&negotiatingReader{r: s.conn, w: s.conn}, &regexPattern{prompt}, timeout, s.host)
}

func (s *telnetSession) Protocol() Protocol { return ProtocolTelnet }

func (s *telnetSession) Close() error {
	return s.conn.Close()
}

// negotiatingReader strips and answers IAC option-negotiation sequences
// inline as it reads, passing everything else through unmodified.
type negotiatingReader struct {
	r io.Reader
	w io.Writer
}

func (n *negotiatingReader) Read(p []byte) (int, error) {
	raw := make([]byte, len(p))
	nr, err := n.r.Read(raw)
	if nr == 0 {
		return 0, err
	}

	out := p[:0]
	i := 0
	for i < nr {
		if raw[i] != iacIAC {
			out = append(out, raw[i])
			i++
			continue
		}
		if i+1 >= nr {
			break // incomplete sequence, drop the trailing IAC
		}
		cmd := raw[i+1]
		if cmd == iacIAC {
			out = append(out, iacIAC)
			i += 2
			continue
		}
		if i+2 >= nr {
			break
		}
		opt := raw[i+2]
		n.respond(cmd, opt)
		i += 3
	}
	return len(out), err
}

func (n *negotiatingReader) respond(cmd, opt byte) {
	switch cmd {
	case iacDO:
		if opt == optEcho || opt == optSuppressGoAhead {
			n.w.Write([]byte{iacIAC, iacWILL, opt})
		} else {
			n.w.Write([]byte{iacIAC, iacWONT, opt})
		}
	case iacWILL:
		if opt == optEcho || opt == optSuppressGoAhead {
			n.w.Write([]byte{iacIAC, iacDO, opt})
		} else {
			n.w.Write([]byte{iacIAC, iacDONT, opt})
		}
	case iacDONT, iacWONT:
		// No action required; the remote is declining or withdrawing an
		// option we never insisted on.
	}
}
