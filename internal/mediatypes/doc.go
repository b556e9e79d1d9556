// Package mediatypes defines the closed media type enumeration and the
// extension tables used to decide which files the scanner and optimizer
// consider media.
package mediatypes
