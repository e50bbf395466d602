// Package harness models the agent harness's session/job directory
// layout (harness/sessions/<id>, harness/jobs/<id>, each with a
// status.json canonical state file) and the harness API client `lux run`
// calls into.
package harness
