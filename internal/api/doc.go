// Package api is the wire contract between the console and the auth server.
//
// The service is plain gRPC. Messages are Go structs carried by a JSON codec
// registered under the "json" content subtype, so both sides must import this
// package (the init function registers the codec).
//
// Auth failures are statuses with a google.rpc.ErrorInfo detail whose Reason
// is one of the common.Reason* constants; see Error and ReasonOf.
package api
