// Package password hashes and verifies credentials with Argon2id.
// Hashes are stored in PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash) so the parameters used
// at hash time travel with the hash and verification keeps working
// after a cost upgrade. Length and complexity policy is the caller's
// concern; this package only deals in hashing.
package password
