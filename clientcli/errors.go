package clientcli

import "errors"

var (
	// ErrConfigRequired is returned when a Client is created without config.
	ErrConfigRequired = errors.New("config required")
	// ErrNoProfiles is returned when the config file has no profiles.
	ErrNoProfiles = errors.New("no profiles configured")
	// ErrProfileNotFound is returned when a named profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileExists is returned when adding a profile that already exists.
	ErrProfileExists = errors.New("profile already exists")
	// ErrLoginFailed is returned when the server rejects the password.
	ErrLoginFailed = errors.New("login failed")
)
