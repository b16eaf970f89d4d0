// Package http implements the gateway's REST surface: the login endpoint,
// the bearer-token auth gate, and the photo/groups routes, built on chi.
package http
