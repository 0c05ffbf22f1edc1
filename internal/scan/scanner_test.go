package scan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zzmio78/wrdrv/internal/execx"
	"github.com/zzmio78/wrdrv/testutils"
)

func TestScanner(t *testing.T) {
	logger := execx.NewTestLogger(t)

	t.Run("Successful scan merges into registry", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("iw dev wlan0 scan", execx.Result{Stdout: testutils.IwScanTwoNetworks})

		scanner := NewScanner("wlan0", runner, logger)

		records, err := scanner.Scan(context.Background())
		if err != nil {
			t.Fatalf("Scan should succeed: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("Expected 2 records this round, got %d", len(records))
		}
		if scanner.Registry().Len() != 2 {
			t.Errorf("Registry should hold 2 APs, got %d", scanner.Registry().Len())
		}
	})

	t.Run("Non-zero exit surfaces ScanError with stderr", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("iw dev wlan0 scan", execx.Result{
			ExitCode: 240,
			Stderr:   "command failed: Operation not permitted (-1)",
		})

		scanner := NewScanner("wlan0", runner, logger)

		_, err := scanner.Scan(context.Background())
		var scanErr *ScanError
		if !errors.As(err, &scanErr) {
			t.Fatalf("Expected *ScanError, got %v", err)
		}
		if scanErr.ExitCode != 240 {
			t.Errorf("Expected exit code 240, got %d", scanErr.ExitCode)
		}
		if !strings.Contains(scanErr.Error(), "Operation not permitted") {
			t.Errorf("Diagnostic text should carry stderr verbatim, got %q", scanErr.Error())
		}
	})

	t.Run("Invocation failure is not a ScanError", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.OnError("iw dev wlan0 scan", errors.New("exec: \"iw\": executable file not found in $PATH"))

		scanner := NewScanner("wlan0", runner, logger)

		_, err := scanner.Scan(context.Background())
		if err == nil {
			t.Fatal("Expected an error")
		}
		var scanErr *ScanError
		if errors.As(err, &scanErr) {
			t.Error("A missing binary is an invocation failure, not a scan failure")
		}
	})
}
