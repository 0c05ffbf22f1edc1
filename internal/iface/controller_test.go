package iface

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zzmio78/wrdrv/internal/execx"
	"github.com/zzmio78/wrdrv/testutils"
)

func TestResolve(t *testing.T) {
	logger := execx.NewTestLogger(t)

	t.Run("Extracts wiphy index", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("iw dev wlan0 info", execx.Result{Stdout: testutils.IwDevInfo})

		controller := NewController("wlan0", runner, logger)
		handle, err := controller.Resolve(context.Background())
		if err != nil {
			t.Fatalf("Resolve should succeed: %v", err)
		}
		if handle.Phy != 0 || handle.Name != "wlan0" {
			t.Errorf("Unexpected handle %+v", handle)
		}
		if handle.PhyName() != "phy0" {
			t.Errorf("Expected phy0, got %s", handle.PhyName())
		}
	})

	t.Run("Failure is a ResolutionError", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("iw dev wlan0 info", execx.Result{ExitCode: 237, Stderr: "No such device (-19)"})

		controller := NewController("wlan0", runner, logger)
		_, err := controller.Resolve(context.Background())
		var resErr *ResolutionError
		if !errors.As(err, &resErr) {
			t.Fatalf("Expected *ResolutionError, got %v", err)
		}
		if !strings.Contains(resErr.Error(), "No such device") {
			t.Errorf("Diagnostic should carry stderr, got %q", resErr.Error())
		}
	})

	t.Run("Missing wiphy line is a ResolutionError", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("iw dev wlan0 info", execx.Result{Stdout: "Interface wlan0\n\ttype managed\n"})

		controller := NewController("wlan0", runner, logger)
		if _, err := controller.Resolve(context.Background()); err == nil {
			t.Fatal("Expected a resolution error")
		}
	})
}

func TestSetMode(t *testing.T) {
	logger := execx.NewTestLogger(t)

	newRunner := func() *testutils.StubRunner {
		runner := testutils.NewStubRunner()
		runner.On("iw dev wlan0 info", execx.Result{Stdout: testutils.IwDevInfo})
		return runner
	}

	t.Run("Happy path runs the full sequence", func(t *testing.T) {
		runner := newRunner()
		controller := NewController("wlan0", runner, logger)

		if err := controller.SetMode(context.Background(), Monitor); err != nil {
			t.Fatalf("SetMode should succeed: %v", err)
		}

		want := []string{
			"iw dev wlan0 info",
			"ip link set wlan0 down",
			"iw dev wlan0 del",
			"iw phy phy0 interface add wlan0 type monitor",
			"ip link set wlan0 up",
		}
		if len(runner.Calls) != len(want) {
			t.Fatalf("Expected %d calls, got %v", len(want), runner.Calls)
		}
		for i, call := range want {
			if runner.Calls[i] != call {
				t.Errorf("Step %d: expected %q, got %q", i, call, runner.Calls[i])
			}
		}
	})

	t.Run("Resolution failure aborts before any destructive step", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("iw dev wlan0 info", execx.Result{ExitCode: 237, Stderr: "No such device (-19)"})

		controller := NewController("wlan0", runner, logger)
		err := controller.SetMode(context.Background(), Monitor)
		var resErr *ResolutionError
		if !errors.As(err, &resErr) {
			t.Fatalf("Expected *ResolutionError, got %v", err)
		}
		if runner.Called("iw dev wlan0 del") || runner.Called("ip link set") {
			t.Errorf("No destructive command may run after a resolution failure: %v", runner.Calls)
		}
	})

	t.Run("Link-down failure is tolerated", func(t *testing.T) {
		runner := newRunner()
		runner.On("ip link set wlan0 down", execx.Result{ExitCode: 1, Stderr: "Cannot find device \"wlan0\""})

		controller := NewController("wlan0", runner, logger)
		if err := controller.SetMode(context.Background(), Managed); err != nil {
			t.Fatalf("A failed link-down must be ignored: %v", err)
		}
	})

	t.Run("Delete failure is fatal with diagnostic", func(t *testing.T) {
		runner := newRunner()
		runner.On("iw dev wlan0 del", execx.Result{ExitCode: 1, Stderr: "Operation not supported (-95)"})

		controller := NewController("wlan0", runner, logger)
		err := controller.SetMode(context.Background(), Monitor)
		var modeErr *ModeSwitchError
		if !errors.As(err, &modeErr) {
			t.Fatalf("Expected *ModeSwitchError, got %v", err)
		}
		if modeErr.Step != "delete" {
			t.Errorf("Expected delete step, got %q", modeErr.Step)
		}
		if runner.Called("iw phy") {
			t.Error("Recreate must not run after a failed delete")
		}
	})

	t.Run("Recreate failure surfaces stderr and skips up", func(t *testing.T) {
		runner := newRunner()
		runner.On("iw phy phy0 interface add wlan0 type monitor",
			execx.Result{ExitCode: 1, Stderr: "Device or resource busy (-16)"})

		controller := NewController("wlan0", runner, logger)
		err := controller.SetMode(context.Background(), Monitor)

		var modeErr *ModeSwitchError
		if !errors.As(err, &modeErr) {
			t.Fatalf("Expected *ModeSwitchError, got %v", err)
		}
		if modeErr.Step != "recreate" {
			t.Errorf("Expected recreate step, got %q", modeErr.Step)
		}
		if !strings.Contains(err.Error(), "Device or resource busy") {
			t.Errorf("Diagnostic should carry the stub's stderr, got %q", err.Error())
		}
		if runner.Called("ip link set wlan0 up") {
			t.Errorf("No up step may run after a failed recreate: %v", runner.Calls)
		}
	})

	t.Run("Up failure after recreate is surfaced", func(t *testing.T) {
		runner := newRunner()
		runner.On("ip link set wlan0 up", execx.Result{ExitCode: 2, Stderr: "RTNETLINK answers: Operation not permitted"})

		controller := NewController("wlan0", runner, logger)
		err := controller.SetMode(context.Background(), Monitor)
		if err == nil {
			t.Fatal("A failed final up must be surfaced")
		}
		if !strings.Contains(err.Error(), "Operation not permitted") {
			t.Errorf("Diagnostic should carry stderr, got %q", err.Error())
		}
	})
}

func TestSetLink(t *testing.T) {
	logger := execx.NewTestLogger(t)

	runner := testutils.NewStubRunner()
	controller := NewController("wlan0", runner, logger)

	if err := controller.SetLink(context.Background(), Down); err != nil {
		t.Fatalf("SetLink should succeed: %v", err)
	}
	if runner.Calls[0] != "ip link set wlan0 down" {
		t.Errorf("Unexpected command %q", runner.Calls[0])
	}

	runner.On("ip link set wlan0 up", execx.Result{ExitCode: 1, Stderr: "nope"})
	if err := controller.SetLink(context.Background(), Up); err == nil {
		t.Error("A standalone link failure must propagate")
	}
}
