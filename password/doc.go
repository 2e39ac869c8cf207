// Package password implements password hashing and verification with bcrypt.
//
// # Output format
//
// Hashes are standard bcrypt strings carrying their own salt and cost:
//
//	$2a$<cost>$<22-char salt><31-char hash>
//
// The [Bcrypt] hasher supports transparent parameter upgrades: if the stored
// hash was produced with a lower cost, [Bcrypt.NeedsUpgrade] returns true so
// the caller can re-hash on the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length,
// reuse) is enforced by the Service.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other credgate package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
