package iface

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zzmio78/wrdrv/internal/execx"
)

// sysClassNet is the sysfs directory enumerating network interfaces;
// overridable in tests.
var sysClassNet = "/sys/class/net"

// NotFoundError reports an interface name that is not enumerable on the
// system. Available carries the interfaces that do exist so the caller can
// print a helpful diagnostic.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("interface required, available: %s", strings.Join(e.Available, ", "))
	}
	return fmt.Sprintf("interface %q not found, available: %s", e.Name, strings.Join(e.Available, ", "))
}

// Exists reports whether the named interface is enumerable on the system.
func Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(sysClassNet, name))
	return err == nil
}

// Check validates an interface name before any scan or mode operation and
// returns a NotFoundError listing the available interfaces on failure.
func Check(ctx context.Context, name string, runner execx.Runner) error {
	if Exists(name) {
		return nil
	}
	available, _ := List(ctx, runner)
	return &NotFoundError{Name: name, Available: available}
}

// List enumerates interface names by parsing `ip link show` output, lines of
// the form "2: wlan0: <BROADCAST,...>" with an optional "@parent" suffix.
func List(ctx context.Context, runner execx.Runner) ([]string, error) {
	result, err := runner.Run(ctx, "ip", "link", "show")
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var names []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		_, rest, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		name, _, _ := strings.Cut(rest, ":")
		name, _, _ = strings.Cut(name, "@")
		name = strings.TrimSpace(name)
		if name != "" && !strings.Contains(name, " ") {
			names = append(names, name)
		}
	}
	return names, nil
}
