package scan

import (
	"context"
	"fmt"
	"strings"

	"github.com/zzmio78/wrdrv/internal/execx"
)

// ScanError reports a scan invocation that returned a non-zero exit status.
// It carries the tool's diagnostic output verbatim for the user-facing
// message.
type ScanError struct {
	Interface string
	ExitCode  int
	Stderr    string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan on %s failed (exit code %d): %s",
		e.Interface, e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Scanner runs the scan tool against one interface and merges results into
// its registry.
type Scanner struct {
	iface    string
	runner   execx.Runner
	logger   execx.Logger
	registry *Registry
}

// NewScanner creates a scanner bound to an interface and a fresh registry
func NewScanner(iface string, runner execx.Runner, logger execx.Logger) *Scanner {
	return &Scanner{
		iface:    iface,
		runner:   runner,
		logger:   logger,
		registry: NewRegistry(),
	}
}

// Registry exposes the accumulated results of all scans so far.
func (s *Scanner) Registry() *Registry {
	return s.registry
}

// Scan performs one blocking `iw dev <iface> scan`, merges the parsed
// records into the registry and returns this round's records. No timeout is
// imposed here; iw bounds its own dwell time.
func (s *Scanner) Scan(ctx context.Context) ([]AccessPoint, error) {
	result, err := s.runner.Run(ctx, "iw", "dev", s.iface, "scan")
	if err != nil {
		return nil, fmt.Errorf("failed to invoke iw: %w", err)
	}
	if !result.Ok() {
		return nil, &ScanError{
			Interface: s.iface,
			ExitCode:  result.ExitCode,
			Stderr:    result.Stderr,
		}
	}

	records := ParseScan(result.Stdout)
	s.registry.Merge(records)

	s.logger.Infof("Scan complete on %s: %d APs this round, %d total",
		s.iface, len(records), s.registry.Len())
	return records, nil
}
