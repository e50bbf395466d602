// Package shim installs the per-provider launcher scripts that route an
// operator's normal agent invocation to `lux shim exec`, and prepares that
// exec: argument validation, supervisor and provider-plane bring-up, and
// composition of the provider's tui command.
package shim
