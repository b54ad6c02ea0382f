package avahi

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/MrSnakeDoc/presence/internal/logger"
	"github.com/MrSnakeDoc/presence/internal/utils"
)

// DefaultArgs makes avahi-browse print parsable, resolved records for every
// service type and terminate once the cache is dumped.
var DefaultArgs = []string{"-p", "-l", "-a", "-r", "-k", "-t"}

// TXT blobs can get long; bufio's 64KiB default is not enough for some
// printers.
const maxLineSize = 1 << 20

// BrowseScanner runs avahi-browse and returns its stdout lines.
type BrowseScanner struct {
	binary string
	args   []string
	log    logger.Logger
}

// NewBrowseScanner creates a scanner for the given binary. Empty args
// select DefaultArgs.
func NewBrowseScanner(binary string, args []string, log logger.Logger) *BrowseScanner {
	if binary == "" {
		binary = "avahi-browse"
	}
	if len(args) == 0 {
		args = DefaultArgs
	}
	return &BrowseScanner{binary: binary, args: args, log: log}
}

func (s *BrowseScanner) Name() string { return "avahi" }

// Scan runs one browse to completion. A non-zero exit that still produced
// output returns the output; the exit status is only logged.
func (s *BrowseScanner) Scan(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, s.binary, s.args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", s.binary, ctxErr)
	}

	lines, err := readLines(&stdout)
	if err != nil {
		return nil, fmt.Errorf("read %s output: %w", s.binary, err)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) || len(lines) == 0 {
			return nil, fmt.Errorf("run %s: %w%s", s.binary, runErr, stderrSuffix(&stderr))
		}
		if s.log != nil {
			s.log.Warn("scanner exited with error, keeping partial output",
				logger.String("binary", s.binary),
				logger.Int("exit_code", exitErr.ExitCode()),
				logger.Int("lines", len(lines)),
				logger.String("stderr", strings.TrimSpace(stderr.String())),
			)
		}
	}

	return lines, nil
}

func stderrSuffix(stderr *bytes.Buffer) string {
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return ""
	}
	return ": " + msg
}

// DumpScanner replays a captured avahi-browse dump from disk.
type DumpScanner struct {
	path string
	log  logger.Logger
}

func NewDumpScanner(path string, log logger.Logger) *DumpScanner {
	return &DumpScanner{path: path, log: log}
}

func (s *DumpScanner) Name() string { return "file" }

func (s *DumpScanner) Scan(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan dump: %w", err)
	}
	defer utils.MustClose(f, s.log, s.path)

	lines, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan dump: %w", err)
	}
	return lines, nil
}

// readLines returns every line of r without its terminator. Empty lines
// are kept so line numbers match the source.
func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := make([]string, 0, 64)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
