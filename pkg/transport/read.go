package transport

import (
	"io"
	"regexp"
	"time"

	"github.com/marktegna/netwalker/pkg/util"
)

// regexPattern wraps a compiled prompt regexp so both the SSH and Telnet
// sessions can share one read loop without depending on each other's types.
type regexPattern struct {
	re *regexp.Regexp
}

// readUntilPrompt accumulates bytes from r on a background goroutine until
// the prompt pattern matches the tail of the buffer or timeout elapses.
// The goroutine leaks if r is never closed and the device never responds;
// callers rely on Session.Close to terminate the underlying connection,
// which unblocks the pending Read.
func readUntilPrompt(r io.Reader, prompt *regexPattern, timeout time.Duration, host string) (string, error) {
	type chunk struct {
		data []byte
		err  error
	}
	out := make(chan chunk, 1)

	go func() {
		buf := make([]byte, 4096)
		var acc []byte
		for {
			n, err := r.Read(buf)
			if n > 0 {
				acc = append(acc, buf[:n]...)
				if prompt.re.Match(acc) {
					out <- chunk{data: acc}
					return
				}
			}
			if err != nil {
				out <- chunk{data: acc, err: err}
				return
			}
		}
	}()

	select {
	case c := <-out:
		if c.err != nil && c.err != io.EOF {
			return string(c.data), util.NewProtocolError(host, "read: "+c.err.Error())
		}
		return string(c.data), nil
	case <-time.After(timeout):
		return "", util.NewTimeoutError(host, "command", timeout)
	}
}
