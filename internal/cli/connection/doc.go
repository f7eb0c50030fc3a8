// Package connection provides the HTTP client for nftreg-cli.
//
// The client speaks the registry server's JSON envelope protocol and
// attaches API key credentials to every request.
package connection
