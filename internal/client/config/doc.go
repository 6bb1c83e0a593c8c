// Package config loads runtime configuration for the console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the auth server
//	-d string   local SQLite database path
//	-i int      idle timeout (minutes)
//	-t int      request timeout (seconds)
//	-r int      refresh timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "session.db",
//	  "idle_timeout": "30m",
//	  "request_timeout": "30s",
//	  "refresh_timeout": "10s"
//	}
package config
