// Package integration runs the activity registry API server in-process and
// exercises it over real HTTP connections.
package integration
