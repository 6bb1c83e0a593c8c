// Package cli is the interactive gridconsole admin console.
//
// It wires configuration, the local credential database, the gRPC client,
// the session store and the inactivity watchdog, then runs a REPL. Every
// line the operator types counts as user input for the watchdog. When the
// session ends for any reason (logout, rejected token, failed refresh, idle
// timeout) the console announces it and asks for credentials again before
// the next command.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
