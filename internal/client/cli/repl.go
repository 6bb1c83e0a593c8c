package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it; tests
// provide a stub.
type execIface interface {
	isLoggedIn() bool
	observeInput()
	takeLoginRequest() bool

	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Refresh(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Status(ctx context.Context) error
	Ping(ctx context.Context) error
}

// runREPL reads commands until EOF or "exit".
//
//	Not logged in:  help, login, ping, status, exit
//	Logged in:      help, me, refresh, passwd, logout, ping, status, exit
//
// Every line, empty or not, is reported to the watchdog as input. Command
// errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if a.takeLoginRequest() {
			report(a.Login(ctx))
		}

		printlnFn(fmt.Sprintf("gc %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		a.observeInput()

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, refresh, passwd, logout, ping, status, exit")
			} else {
				printlnFn("Available commands: login, ping, status, exit")
			}

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "me", "whoami":
			report(a.Me(ctx))

		case "refresh":
			report(a.Refresh(ctx))

		case "passwd":
			report(a.ChangePassword(ctx))

		case "status":
			report(a.Status(ctx))

		case "ping":
			report(a.Ping(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", describeError(err))
	}
}
