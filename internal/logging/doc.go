// Package logging provides leveled logging for the media cache service.
//
// The level is read once from the environment: DEBUG=1 forces debug
// output, otherwise LOG_LEVEL selects one of debug, info, warn or error
// (default info).
package logging
