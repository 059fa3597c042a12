package engine

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	probeLineCap = 512
	probeTimeout = 10 * time.Second
)

// Probe runs a handshake-only check against a candidate binary: launch,
// send uci, wait for uciok, quit. Used during engine discovery to validate
// a binary before committing to a full session. Returns the name the
// engine reports on its "id name" line, if any.
func Probe(binaryPath string) (string, error) {
	cmd := exec.Command(binaryPath) // #nosec G204 -- probing a discovered candidate path

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: failed to start %s: %v", ErrEngineUnavailable, binaryPath, err)
	}

	defer func() {
		_, _ = fmt.Fprintln(stdin, "quit")
		_ = stdin.Close()

		done := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = cmd.Process.Kill()
		}
	}()

	lines := make(chan string, 64)
	go readLines(stdout, lines)

	if _, err := fmt.Fprintln(stdin, "uci"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	deadline := time.Now().Add(probeTimeout)
	name := ""
	for i := 0; i < probeLineCap; i++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", fmt.Errorf("%w: %s did not answer the handshake within %s", ErrEngineUnavailable, binaryPath, probeTimeout)
		}

		timer := time.NewTimer(remaining)
		select {
		case line, ok := <-lines:
			timer.Stop()
			if !ok {
				return "", fmt.Errorf("%w: %s exited during handshake", ErrEngineUnavailable, binaryPath)
			}
			if strings.HasPrefix(line, "id name ") {
				name = strings.TrimPrefix(line, "id name ")
			}
			if strings.HasPrefix(line, "uciok") {
				return name, nil
			}
		case <-timer.C:
			return "", fmt.Errorf("%w: %s did not answer the handshake within %s", ErrEngineUnavailable, binaryPath, probeTimeout)
		}
	}
	return "", fmt.Errorf("%w: no uciok from %s within %d lines", ErrEngineUnavailable, binaryPath, probeLineCap)
}
