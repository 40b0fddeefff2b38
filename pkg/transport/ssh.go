package transport

import (
	"io"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/marktegna/netwalker/pkg/util"
)

// sshSession keeps one ssh.Client and one interactive ssh.Session (shell
// requested, pty attached) open across repeated Send calls, the same way a
// human operator's terminal stays connected for the duration of a login.
type sshSession struct {
	host   string
	client *ssh.Client
	sess   *ssh.Session
	stdin  io.WriteCloser
	stdout io.Reader
	prefs  Preferences
}

func openSSH(host string, creds Credentials, prefs Preferences) (Session, error) {
	port := prefs.SSHPort
	if port == 0 {
		port = 22
	}

	cfg := &ssh.ClientConfig{
		User: creds.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(creds.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         prefs.DialTimeout,
	}

	client, err := ssh.Dial("tcp", fmtAddr(host, port), cfg)
	if err != nil {
		return nil, wrapDialError(host, port, ProtocolSSH, err)
	}

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, util.NewProtocolError(host, "ssh session open: "+err.Error())
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, util.NewProtocolError(host, "ssh stdin pipe: "+err.Error())
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, util.NewProtocolError(host, "ssh stdout pipe: "+err.Error())
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := sess.RequestPty("vt100", 200, 512, modes); err != nil {
		sess.Close()
		client.Close()
		return nil, util.NewProtocolError(host, "ssh pty request: "+err.Error())
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		client.Close()
		return nil, util.NewProtocolError(host, "ssh shell request: "+err.Error())
	}

	s := &sshSession{
		host:   host,
		client: client,
		sess:   sess,
		stdin:  stdin,
		stdout: stdout,
		prefs:  prefs,
	}

	// Drain the login banner before issuing any command.
	readUntilPrompt(s.stdout, s.promptPattern(), prefs.DialTimeout, host)

	// Enable-mode transition and pager-disable commands are best-effort:
	// a rejected enable password or an unrecognized terminal command must
	// not prevent the session from being usable for read-only collection.
	if err := enablePrompt(host, s, creds, prefs.CommandTimeout); err != nil {
		util.Warnf("ssh %s: enable mode transition failed: %v", host, err)
	}
	for _, cmd := range prefs.PostLoginCommands {
		if _, err := s.Send(cmd, prefs.CommandTimeout); err != nil {
			util.Warnf("ssh %s: post-login command %q failed: %v", host, cmd, err)
		}
	}

	return s, nil
}

func (s *sshSession) promptPattern() *regexPattern {
	if s.prefs.PromptPattern != nil {
		return &regexPattern{s.prefs.PromptPattern}
	}
	return &regexPattern{defaultPromptRE}
}

func (s *sshSession) Send(cmd string, timeout time.Duration) (string, error) {
	if timeout == 0 {
		timeout = s.prefs.CommandTimeout
	}
	if _, err := io.WriteString(s.stdin, cmd+"\n"); err != nil {
		return "", util.NewProtocolError(s.host, "ssh write: "+err.Error())
	}
	return readUntilPrompt(s.stdout, s.promptPattern(), timeout, s.host)
}

func (s *sshSession) Protocol() Protocol { return ProtocolSSH }

func (s *sshSession) Close() error {
	s.sess.Close()
	return s.client.Close()
}
