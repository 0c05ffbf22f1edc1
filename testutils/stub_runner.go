package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/zzmio78/wrdrv/internal/execx"
)

// StubRunner is a scripted execx.Runner. Responses are keyed by the full
// command line ("systemctl status NetworkManager"); unmatched commands get
// the Default result. Every invocation is recorded for assertions.
type StubRunner struct {
	mu        sync.Mutex
	Responses map[string]execx.Result
	Errs      map[string]error
	Default   execx.Result
	Calls     []string
}

// NewStubRunner creates an empty stub whose default response is exit 0
func NewStubRunner() *StubRunner {
	return &StubRunner{
		Responses: make(map[string]execx.Result),
		Errs:      make(map[string]error),
	}
}

// On scripts the result for one exact command line.
func (s *StubRunner) On(commandLine string, result execx.Result) *StubRunner {
	s.Responses[commandLine] = result
	return s
}

// OnError scripts an invocation failure (command could not start).
func (s *StubRunner) OnError(commandLine string, err error) *StubRunner {
	s.Errs[commandLine] = err
	return s
}

func (s *StubRunner) Run(_ context.Context, name string, args ...string) (execx.Result, error) {
	key := strings.Join(append([]string{name}, args...), " ")

	s.mu.Lock()
	s.Calls = append(s.Calls, key)
	s.mu.Unlock()

	if err, ok := s.Errs[key]; ok {
		return execx.Result{}, err
	}
	if result, ok := s.Responses[key]; ok {
		return result, nil
	}
	return s.Default, nil
}

// Called reports whether any recorded invocation starts with prefix.
func (s *StubRunner) Called(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, call := range s.Calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

// CallsMatching returns the recorded invocations starting with prefix.
func (s *StubRunner) CallsMatching(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []string
	for _, call := range s.Calls {
		if strings.HasPrefix(call, prefix) {
			matches = append(matches, call)
		}
	}
	return matches
}
