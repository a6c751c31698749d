package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrRejected is returned by Send when the server answers ERROR.
var ErrRejected = errors.New("command rejected")

// Send dials addr, sends one line and returns the reply text after "OK".
// The connection is closed with EXIT afterwards. If the server greets with a
// prompt, expectPrompt must be true so the greeting is skipped.
func Send(ctx context.Context, addr, line string, expectPrompt bool) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	r := bufio.NewReader(conn)
	if expectPrompt {
		if _, err := r.ReadString('\n'); err != nil {
			return "", fmt.Errorf("read prompt: %w", err)
		}
	}

	if _, err := fmt.Fprintln(conn, line); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	resp, err := r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	_, _ = fmt.Fprintln(conn, "EXIT")

	resp = strings.TrimSpace(resp)
	switch {
	case resp == "OK" || strings.HasPrefix(resp, "OK "):
		return strings.TrimSpace(strings.TrimPrefix(resp, "OK")), nil
	case strings.HasPrefix(resp, "ERROR"):
		return "", fmt.Errorf("%w: %s", ErrRejected, strings.TrimSpace(strings.TrimPrefix(resp, "ERROR")))
	}
	return "", fmt.Errorf("unexpected reply %q", resp)
}
