// Package hashing computes content-addressed identities for media files.
//
// A file's identity is the SHA-256 of its full byte contents, hex
// encoded. Derivative files on disk are named by a 16 character prefix of
// that digest; the full digest is always what the store indexes.
package hashing
