// Package config implements the policy paths & config store (C3): the
// versioned configuration document, the path-class invariant battery
// (workspace under $HOME, log root outside it, no overlap), atomic
// temp-file+rename writes, and a line-level YAML patcher that edits a
// single scalar value without disturbing the rest of the file.
package config
