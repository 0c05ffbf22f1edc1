package conflict

import (
	"context"
	"errors"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/zzmio78/wrdrv/internal/execx"
)

// Lists is the immutable configuration of a Resolver: which services and
// processes count as interfering, and which services are candidates for a
// later restart. Injected at construction so tests can substitute small
// sets.
type Lists struct {
	Services       []string
	Processes      []string
	RestoreTargets []string
}

// DefaultLists returns the built-in conflict sets: network managers, DHCP
// clients and supplicants known to re-assert managed mode or otherwise
// interfere with low-level interface control.
func DefaultLists() Lists {
	return Lists{
		Services: []string{
			"wicd", "network-manager", "avahi-daemon", "NetworkManager", "wpa_supplicant",
		},
		Processes: []string{
			"wpa_action", "wpa_supplicant", "wpa_cli", "dhclient", "ifplugd",
			"dhcdbd", "dhcpcd", "udhcpc", "NetworkManager", "knetworkmanager",
			"avahi-autoipd", "avahi-daemon", "wlassistant", "wifibox",
			"net_applet", "wicd-daemon", "wicd-client", "iwd", "hostapd",
		},
		RestoreTargets: []string{
			"NetworkManager", "avahi-daemon", "wicd", "wpa_supplicant",
		},
	}
}

// CheckResult lists what was found running. Processes carries one entry per
// live process instance, since termination signals are sent per instance.
type CheckResult struct {
	Services  []string `json:"services"`
	Processes []string `json:"processes"`
}

// Empty reports whether nothing conflicting was detected.
func (r CheckResult) Empty() bool {
	return len(r.Services) == 0 && len(r.Processes) == 0
}

// ProcessHandle is the slice of gopsutil's process API the resolver needs;
// *process.Process satisfies it.
type ProcessHandle interface {
	Name() (string, error)
	Terminate() error
}

// ProcessLister enumerates live processes. The default wraps gopsutil;
// tests inject fakes.
type ProcessLister func(ctx context.Context) ([]ProcessHandle, error)

func gopsutilLister(ctx context.Context) ([]ProcessHandle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	handles := make([]ProcessHandle, len(procs))
	for i, p := range procs {
		handles[i] = p
	}
	return handles, nil
}

// Resolver detects and optionally neutralizes system services and processes
// that interfere with low-level wireless operations.
type Resolver struct {
	lists  Lists
	runner execx.Runner
	logger execx.Logger
	lister ProcessLister
}

// NewResolver creates a resolver over the given conflict lists
func NewResolver(lists Lists, runner execx.Runner, logger execx.Logger) *Resolver {
	return &Resolver{
		lists:  lists,
		runner: runner,
		logger: logger,
		lister: gopsutilLister,
	}
}

// SetLister replaces the process enumerator, for tests.
func (r *Resolver) SetLister(lister ProcessLister) {
	r.lister = lister
}

// Check reports running conflicting services and processes without touching
// them.
func (r *Resolver) Check(ctx context.Context) (CheckResult, error) {
	return r.resolve(ctx, false)
}

// CheckAndKill detects conflicting services and processes and terminates
// them: services are stopped via the service manager, processes receive
// SIGTERM. Targets that vanish before the signal lands, or that we lack
// privilege to signal, do not abort the batch.
func (r *Resolver) CheckAndKill(ctx context.Context) (CheckResult, error) {
	return r.resolve(ctx, true)
}

func (r *Resolver) resolve(ctx context.Context, kill bool) (CheckResult, error) {
	services, err := r.checkServices(ctx, kill)
	if err != nil {
		return CheckResult{}, err
	}
	processes, err := r.checkProcesses(ctx, kill)
	if err != nil {
		return CheckResult{Services: services}, err
	}
	return CheckResult{Services: services, Processes: processes}, nil
}

func (r *Resolver) checkServices(ctx context.Context, kill bool) ([]string, error) {
	var found []string
	for _, service := range r.lists.Services {
		result, err := r.runner.Run(ctx, "systemctl", "status", service)
		if err != nil {
			return found, err
		}
		if !result.Ok() {
			continue
		}
		found = append(found, service)
		if kill {
			r.stopService(ctx, service)
		}
	}
	return found, nil
}

func (r *Resolver) stopService(ctx context.Context, service string) {
	result, err := r.runner.Run(ctx, "systemctl", "stop", service)
	if err != nil {
		r.logger.Errorf("Failed to invoke systemctl stop %s: %v", service, err)
		return
	}
	if result.Ok() {
		r.logger.Infof("Service %s stopped", service)
	} else {
		r.logger.Warnf("Service %s did not stop (status %d)", service, result.ExitCode)
	}
}

func (r *Resolver) checkProcesses(ctx context.Context, kill bool) ([]string, error) {
	handles, err := r.lister(ctx)
	if err != nil {
		return nil, err
	}

	conflicting := make(map[string]bool, len(r.lists.Processes))
	for _, name := range r.lists.Processes {
		conflicting[name] = true
	}

	var found []string
	for _, handle := range handles {
		name, err := handle.Name()
		if err != nil {
			// Process vanished mid-enumeration.
			continue
		}
		if !conflicting[name] {
			continue
		}
		found = append(found, name)
		if kill {
			r.terminate(handle, name)
		}
	}
	return found, nil
}

func (r *Resolver) terminate(handle ProcessHandle, name string) {
	err := handle.Terminate()
	switch {
	case err == nil:
	case errors.Is(err, process.ErrorProcessNotRunning), errors.Is(err, syscall.ESRCH):
		// Already gone between detection and kill.
	case errors.Is(err, syscall.EPERM):
		r.logger.Warnf("Unable to kill %s, are you root?", name)
	default:
		r.logger.Errorf("Failed to signal %s: %v", name, err)
	}
}

// Restore restarts every restore target that the service manager reports as
// enabled, regardless of whether this resolver stopped it earlier. Restart
// failures are skipped; only the services actually restarted are returned.
func (r *Resolver) Restore(ctx context.Context) ([]string, error) {
	var restored []string
	for _, service := range r.lists.RestoreTargets {
		result, err := r.runner.Run(ctx, "systemctl", "is-enabled", service)
		if err != nil {
			return restored, err
		}
		if !result.Ok() {
			continue
		}

		result, err = r.runner.Run(ctx, "systemctl", "restart", service)
		if err != nil {
			return restored, err
		}
		if result.Ok() {
			r.logger.Infof("Restored service %s", service)
			restored = append(restored, service)
		} else {
			r.logger.Warnf("Failed to restore service %s (status %d)", service, result.ExitCode)
		}
	}
	return restored, nil
}
