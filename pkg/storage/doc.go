// Package storage implements sandboxed, per-client persistent storage areas
// on top of the host filesystem.
//
// A Registry owns the storages root on disk and hands out Storage handles,
// enforcing the single-acquisition-per-name rule: a second request for a name
// that is already bound to a live handle permanently revokes that handle and
// fails the new request. The registry cannot tell a legitimate re-entry from
// a competing claim, so it refuses both. This is a deliberate product
// decision, not first-come-first-served arbitration.
//
// A Storage handle is a capability bound to exactly one directory. Once
// revoked it is permanently inert; every file operation on it fails without
// touching the filesystem. Revocation never deletes files.
package storage
