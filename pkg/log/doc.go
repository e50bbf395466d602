// Package log provides the process-wide structured logger used by every
// other package: a zerolog instance configured once via Init, with
// component/run/provider-scoped child loggers handed out from there.
package log
