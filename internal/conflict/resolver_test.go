package conflict

import (
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzmio78/wrdrv/internal/execx"
	"github.com/zzmio78/wrdrv/testutils"
)

type fakeProcess struct {
	name       string
	nameErr    error
	termErr    error
	terminated int
}

func (p *fakeProcess) Name() (string, error) { return p.name, p.nameErr }

func (p *fakeProcess) Terminate() error {
	p.terminated++
	return p.termErr
}

func fakeLister(procs ...*fakeProcess) ProcessLister {
	return func(context.Context) ([]ProcessHandle, error) {
		handles := make([]ProcessHandle, len(procs))
		for i, p := range procs {
			handles[i] = p
		}
		return handles, nil
	}
}

func testLists() Lists {
	return Lists{
		Services:       []string{"NetworkManager", "wpa_supplicant"},
		Processes:      []string{"dhclient", "wpa_supplicant"},
		RestoreTargets: []string{"NetworkManager", "avahi-daemon"},
	}
}

func TestCheckIsNonDestructive(t *testing.T) {
	runner := testutils.NewStubRunner()
	// NetworkManager running, wpa_supplicant not.
	runner.On("systemctl status NetworkManager", execx.Result{ExitCode: 0})
	runner.On("systemctl status wpa_supplicant", execx.Result{ExitCode: 3})

	proc := &fakeProcess{name: "dhclient"}
	resolver := NewResolver(testLists(), runner, execx.NewTestLogger(t))
	resolver.SetLister(fakeLister(proc, &fakeProcess{name: "bash"}))

	result, err := resolver.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"NetworkManager"}, result.Services)
	assert.Equal(t, []string{"dhclient"}, result.Processes)
	assert.False(t, result.Empty())

	assert.False(t, runner.Called("systemctl stop"), "check() must never stop a service")
	assert.Zero(t, proc.terminated, "check() must never signal a process")
}

func TestCheckAndKill(t *testing.T) {
	t.Run("Stops services and signals each process instance", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("systemctl status NetworkManager", execx.Result{ExitCode: 0})
		runner.On("systemctl status wpa_supplicant", execx.Result{ExitCode: 3})

		// Two live instances sharing the same conflicting name.
		first := &fakeProcess{name: "wpa_supplicant"}
		second := &fakeProcess{name: "wpa_supplicant"}
		resolver := NewResolver(testLists(), runner, execx.NewTestLogger(t))
		resolver.SetLister(fakeLister(first, second))

		result, err := resolver.CheckAndKill(context.Background())
		require.NoError(t, err)

		assert.True(t, runner.Called("systemctl stop NetworkManager"))
		assert.Equal(t, 1, first.terminated)
		assert.Equal(t, 1, second.terminated)
		// One result entry per live instance, since each is signaled.
		assert.Equal(t, []string{"wpa_supplicant", "wpa_supplicant"}, result.Processes)
	})

	t.Run("Vanished process is ignored silently", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.Default = execx.Result{ExitCode: 3}

		proc := &fakeProcess{name: "dhclient", termErr: syscall.ESRCH}
		resolver := NewResolver(testLists(), runner, execx.NewTestLogger(t))
		resolver.SetLister(fakeLister(proc))

		result, err := resolver.CheckAndKill(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"dhclient"}, result.Processes)
	})

	t.Run("Permission denied does not abort the batch", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.Default = execx.Result{ExitCode: 3}

		privileged := &fakeProcess{name: "dhclient", termErr: syscall.EPERM}
		next := &fakeProcess{name: "wpa_supplicant"}
		resolver := NewResolver(testLists(), runner, execx.NewTestLogger(t))
		resolver.SetLister(fakeLister(privileged, next))

		result, err := resolver.CheckAndKill(context.Background())
		require.NoError(t, err)
		assert.Len(t, result.Processes, 2)
		assert.Equal(t, 1, next.terminated, "remaining targets must still be signaled")
	})

	t.Run("Name lookup failure skips the process", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.Default = execx.Result{ExitCode: 3}

		gone := &fakeProcess{nameErr: syscall.ESRCH}
		resolver := NewResolver(testLists(), runner, execx.NewTestLogger(t))
		resolver.SetLister(fakeLister(gone))

		result, err := resolver.CheckAndKill(context.Background())
		require.NoError(t, err)
		assert.Empty(t, result.Processes)
		assert.Zero(t, gone.terminated)
	})
}

func TestRestore(t *testing.T) {
	t.Run("Restarts enabled targets only", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("systemctl is-enabled NetworkManager", execx.Result{ExitCode: 0})
		runner.On("systemctl is-enabled avahi-daemon", execx.Result{ExitCode: 1})

		resolver := NewResolver(testLists(), runner, execx.NewTestLogger(t))
		resolver.SetLister(fakeLister())

		restored, err := resolver.Restore(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"NetworkManager"}, restored)
		assert.False(t, runner.Called("systemctl restart avahi-daemon"),
			"disabled services must not be restarted")
	})

	t.Run("Restart failure is silently excluded", func(t *testing.T) {
		runner := testutils.NewStubRunner()
		runner.On("systemctl is-enabled NetworkManager", execx.Result{ExitCode: 0})
		runner.On("systemctl is-enabled avahi-daemon", execx.Result{ExitCode: 0})
		runner.On("systemctl restart NetworkManager", execx.Result{ExitCode: 1, Stderr: "Job failed"})

		resolver := NewResolver(testLists(), runner, execx.NewTestLogger(t))

		restored, err := resolver.Restore(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"avahi-daemon"}, restored)
	})
}
