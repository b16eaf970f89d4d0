// Package photoapi implements a password-gated photo gateway: one shared
// credential, signed time-bounded bearer tokens, and CRUD access to a blob
// store holding photo images and a JSON groups document.
//
// # Key Components
//
//   - TokenAuthority: issues and verifies HS256 bearer tokens
//   - Credential: the shared password and its derived signing secret
//   - PhotoService: combines metadata repository and file storage
//   - MetaDataRepo: interface for metadata persistence (PostgreSQL, SQLite)
//   - FileStorage: interface for blob operations (filesystem)
//
// The gateway keeps no session state. A token is minted on login and every
// subsequent request re-verifies the token it carries; validity is purely a
// function of the signature and the clock.
//
// See the http package for the REST surface and the database subpackages for
// metadata backends.
package photoapi
