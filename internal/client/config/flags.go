package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/flagx"
)

// parseFlags populates Config from command-line flags:
//
//	-a string   address and port of the auth server
//	-d string   path of the local SQLite database
//	-i int      idle timeout (minutes)
//	-t int      request timeout (seconds)
//	-r int      refresh timeout (seconds)
//
// os.Args is filtered with flagx.FilterArgs first so the JSON loader's -c
// does not trip the flag set.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-t", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local session database")
	idle := fs.Int("i", int(cfg.IdleTimeout.Minutes()), "idle timeout (in minutes)")
	request := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	refresh := fs.Int("r", int(cfg.RefreshTimeout.Seconds()), "refresh timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.IdleTimeout = time.Duration(*idle) * time.Minute
	cfg.RequestTimeout = time.Duration(*request) * time.Second
	cfg.RefreshTimeout = time.Duration(*refresh) * time.Second
}
