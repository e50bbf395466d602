// Package compose translates lifecycle verbs into `docker compose` argv,
// generates per-provider runtime overlays, and classifies subprocess
// failures into a stable error-code + remediation taxonomy.
package compose
