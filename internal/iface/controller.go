package iface

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zzmio78/wrdrv/internal/execx"
)

// Mode is an interface operating mode. The set is closed; command arguments
// are only ever built from these constants.
type Mode string

const (
	Managed Mode = "managed"
	Monitor Mode = "monitor"
)

// LinkState is an administrative link action.
type LinkState string

const (
	Up   LinkState = "up"
	Down LinkState = "down"
)

// Handle binds an interface name to the physical radio backing it. It is
// resolved once before a mode switch and becomes stale if the interface is
// deleted without being recreated: after a failed switch, re-resolve rather
// than reusing the handle.
type Handle struct {
	Name string
	Phy  int
}

// PhyName returns the radio's device name as used by iw, e.g. "phy0".
func (h Handle) PhyName() string {
	return fmt.Sprintf("phy%d", h.Phy)
}

// ResolutionError means the physical radio backing an interface could not
// be determined. It is raised before any destructive step.
type ResolutionError struct {
	Interface string
	Detail    string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve radio for %s: %s", e.Interface, e.Detail)
}

// ModeSwitchError means the delete or recreate step of a mode switch failed.
// Stderr carries the external tool's diagnostic text verbatim. When Step is
// "recreate" the interface no longer exists on the system; there is no
// automatic rollback.
type ModeSwitchError struct {
	Interface string
	Step      string
	Stderr    string
}

func (e *ModeSwitchError) Error() string {
	return fmt.Sprintf("mode switch on %s failed at %s: %s",
		e.Interface, e.Step, strings.TrimSpace(e.Stderr))
}

// Controller switches a wireless interface between managed and monitor mode.
//
// Some drivers refuse an in-place type change while the interface is up or
// already bound to a mode, so the controller always deletes the virtual
// interface and recreates it on the same radio with the target type. The
// interface is briefly absent during the switch; a failure in the recreate
// step leaves it absent.
type Controller struct {
	iface  string
	runner execx.Runner
	logger execx.Logger
}

// NewController creates a mode controller for the named interface
func NewController(iface string, runner execx.Runner, logger execx.Logger) *Controller {
	return &Controller{
		iface:  iface,
		runner: runner,
		logger: logger,
	}
}

// Resolve introspects the interface via `iw dev <iface> info` and extracts
// the backing radio index from the line containing "wiphy".
func (c *Controller) Resolve(ctx context.Context) (Handle, error) {
	result, err := c.runner.Run(ctx, "iw", "dev", c.iface, "info")
	if err != nil {
		return Handle{}, &ResolutionError{Interface: c.iface, Detail: err.Error()}
	}
	if !result.Ok() {
		return Handle{}, &ResolutionError{
			Interface: c.iface,
			Detail:    fmt.Sprintf("iw info exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr)),
		}
	}

	for _, line := range strings.Split(result.Stdout, "\n") {
		if !strings.Contains(line, "wiphy") {
			continue
		}
		fields := strings.Fields(line)
		phy, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		return Handle{Name: c.iface, Phy: phy}, nil
	}

	return Handle{}, &ResolutionError{Interface: c.iface, Detail: "no wiphy line in iw info output"}
}

// SetMode performs the destructive down, delete, recreate, up sequence. The
// transition is unconditional: the controller never inspects the current
// mode. The link-down step is best effort; delete and recreate failures are
// fatal and carry the tool's stderr.
func (c *Controller) SetMode(ctx context.Context, mode Mode) error {
	handle, err := c.Resolve(ctx)
	if err != nil {
		return err
	}

	c.logger.Infof("Switching %s (phy%d) to %s mode", c.iface, handle.Phy, mode)

	// The interface may already be down or gone; either is fine since it is
	// about to be deleted.
	if err := c.SetLink(ctx, Down); err != nil {
		c.logger.Debugf("Ignoring link-down failure on %s: %v", c.iface, err)
	}

	result, err := c.runner.Run(ctx, "iw", "dev", c.iface, "del")
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", c.iface, err)
	}
	if !result.Ok() {
		return &ModeSwitchError{Interface: c.iface, Step: "delete", Stderr: result.Stderr}
	}

	result, err = c.runner.Run(ctx, "iw", "phy", handle.PhyName(),
		"interface", "add", c.iface, "type", string(mode))
	if err != nil {
		return fmt.Errorf("failed to recreate %s: %w", c.iface, err)
	}
	if !result.Ok() {
		// The interface was already deleted; the caller is left without it.
		return &ModeSwitchError{Interface: c.iface, Step: "recreate", Stderr: result.Stderr}
	}

	if err := c.SetLink(ctx, Up); err != nil {
		return fmt.Errorf("recreated %s in %s mode but failed to bring it up: %w", c.iface, mode, err)
	}

	c.logger.Infof("%s is now in %s mode", c.iface, mode)
	return nil
}

// SetLink sets the administrative link state via `ip link set`.
func (c *Controller) SetLink(ctx context.Context, state LinkState) error {
	result, err := c.runner.Run(ctx, "ip", "link", "set", c.iface, string(state))
	if err != nil {
		return fmt.Errorf("failed to set %s %s: %w", c.iface, state, err)
	}
	if !result.Ok() {
		return fmt.Errorf("ip link set %s %s exited %d: %s",
			c.iface, state, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}
