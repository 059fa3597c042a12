package engine

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// DetectedEngine describes a UCI engine found on the system.
type DetectedEngine struct {
	BinaryPath string
	Name       string
	Errors     []string
}

// candidateNames lists bare binary names resolved against PATH, in
// preference order.
var candidateNames = []string{"stockfish", "lc0", "ethereal", "komodo"}

// DetectEngine locates a usable UCI engine: the PGNVIEW_ENGINE_PATH
// environment variable, then PATH, then common installation directories.
// Each candidate is probed with a handshake before being accepted, so a
// non-UCI binary with a familiar name is skipped rather than returned.
func DetectEngine() (*DetectedEngine, error) {
	detected := &DetectedEngine{Errors: []string{}}

	for _, path := range candidatePaths() {
		name, err := Probe(path)
		if err != nil {
			detected.Errors = append(detected.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		detected.BinaryPath = path
		detected.Name = name
		return detected, nil
	}

	return detected, fmt.Errorf("%w: no UCI engine found:\n%s", ErrEngineUnavailable, strings.Join(detected.Errors, "\n"))
}

func candidatePaths() []string {
	var candidates []string

	if path := os.Getenv("PGNVIEW_ENGINE_PATH"); path != "" {
		candidates = append(candidates, path)
	}

	for _, name := range candidateNames {
		if found, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, found)
		}
	}

	searchDirs := []string{
		"/usr/local/bin",
		"/usr/bin",
		"/opt/homebrew/bin",
		"/opt/local/bin",
	}
	if home, err := os.UserHomeDir(); err == nil {
		searchDirs = append(searchDirs,
			filepath.Join(home, "bin"),
			filepath.Join(home, ".local", "bin"),
		)
	}

	for _, dir := range searchDirs {
		for _, name := range candidateNames {
			path := filepath.Join(dir, name)
			if runtime.GOOS == "windows" {
				path += ".exe"
			}
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				candidates = append(candidates, path)
			}
		}
	}

	return dedupe(candidates)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// GetInstallationInstructions returns per-platform guidance shown when no
// engine could be detected.
func GetInstallationInstructions() string {
	var b strings.Builder

	b.WriteString("UCI Engine Installation Instructions\n")
	b.WriteString("====================================\n\n")

	switch runtime.GOOS {
	case "darwin":
		b.WriteString("macOS:\n")
		b.WriteString("  brew install stockfish\n\n")
	case "linux":
		b.WriteString("Linux:\n")
		b.WriteString("  Ubuntu/Debian: sudo apt install stockfish\n")
		b.WriteString("  Fedora: sudo dnf install stockfish\n\n")
	case "windows":
		b.WriteString("Windows:\n")
		b.WriteString("  Download from: https://stockfishchess.org/download/\n")
		b.WriteString("  Add the extracted directory to your PATH\n\n")
	}

	b.WriteString("Any UCI-speaking engine works. Point directly at a binary with:\n")
	b.WriteString("  export PGNVIEW_ENGINE_PATH=/path/to/engine\n")

	return b.String()
}
