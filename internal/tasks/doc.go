// Package tasks coordinates pausable, stoppable per-folder batch runs.
// Workers check in with their folder's Task before each file: a paused
// task blocks them on a condition variable, a stopped task makes the
// checkpoint return ErrTaskStopped so the worker aborts cleanly.
package tasks
