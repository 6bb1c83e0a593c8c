package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn     bool
	loginPending bool
	observed     int

	calls []string
	err   error
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) observeInput()    { f.observed++ }
func (f *fakeExec) takeLoginRequest() bool {
	p := f.loginPending
	f.loginPending = false
	return p
}
func (f *fakeExec) Login(context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return f.err
}
func (f *fakeExec) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Me(context.Context) error      { f.calls = append(f.calls, "me"); return f.err }
func (f *fakeExec) Refresh(context.Context) error { f.calls = append(f.calls, "refresh"); return nil }
func (f *fakeExec) ChangePassword(context.Context) error {
	f.calls = append(f.calls, "passwd")
	return nil
}
func (f *fakeExec) Status(context.Context) error { f.calls = append(f.calls, "status"); return nil }
func (f *fakeExec) Ping(context.Context) error   { f.calls = append(f.calls, "ping"); return nil }

func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var out []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i], _ = v.(string)
			if e, ok := v.(error); ok {
				parts[i] = e.Error()
			}
		}
		out = append(out, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &out
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := capturePrint(t)

	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"me",
		"whoami",
		"",
		"refresh",
		"passwd",
		"status",
		"ping",
		"foobar",
		"logout",
		"exit",
		"me",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{"login", "me", "me", "refresh", "passwd", "status", "ping", "logout"}, exec.calls)
	assert.Equal(t, 13, exec.observed, "every line read counts as input")
	assert.Contains(t, *out, "Available commands: login, ping, status, exit")
	assert.Contains(t, *out, "Available commands: me, refresh, passwd, logout, ping, status, exit")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_PromptsForLoginWhenRequested(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{loginPending: true}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("me\n")))

	require.Equal(t, []string{"login", "me"}, exec.calls)
}

func TestRunREPL_ReportsErrors(t *testing.T) {
	out := capturePrint(t)

	exec := &fakeExec{loggedIn: true, err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("me\nexit\n")))

	assert.Contains(t, *out, "Error: boom")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("")))

	assert.Empty(t, exec.calls)
	assert.Zero(t, exec.observed)
}
