// Package importer copies media from external sources into a library,
// organizing by capture date and registering copies with the store.
package importer
