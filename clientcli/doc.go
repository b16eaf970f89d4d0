// Package clientcli implements the photoctl client: profile management and
// an HTTP client that logs in with the shared password and talks to the
// gateway with a bearer token.
package clientcli
