package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePatchDoc = `version: 2
# trusted root comment kept verbatim
paths:
  trusted_root: /opt/lux
  workspace_root: ~/lux-workspace
collector:
  auto_start: true
  idle_timeout_min: 30  # tune this knob
  rotate_every_min: 60
`

func TestPatchScalarPreservesCommentsAndOtherLines(t *testing.T) {
	out, err := PatchScalar([]byte(samplePatchDoc), "collector.idle_timeout_min", "45")
	require.NoError(t, err)

	expected := `version: 2
# trusted root comment kept verbatim
paths:
  trusted_root: /opt/lux
  workspace_root: ~/lux-workspace
collector:
  auto_start: true
  idle_timeout_min: 45  # tune this knob
  rotate_every_min: 60
`
	require.Equal(t, expected, string(out))
}

func TestPatchScalarTopLevelKey(t *testing.T) {
	out, err := PatchScalar([]byte(samplePatchDoc), "version", "3")
	require.NoError(t, err)
	require.Contains(t, string(out), "version: 3\n")
	require.Contains(t, string(out), "# trusted root comment kept verbatim\n")
}

func TestPatchScalarQuotesValuesNeedingIt(t *testing.T) {
	out, err := PatchScalar([]byte(samplePatchDoc), "paths.trusted_root", "a: weird value")
	require.NoError(t, err)
	require.Contains(t, string(out), `trusted_root: "a: weird value"`)
}

func TestPatchScalarUnknownKeyErrors(t *testing.T) {
	_, err := PatchScalar([]byte(samplePatchDoc), "collector.does_not_exist", "1")
	require.Error(t, err)
}

func TestPatchScalarRejectsTabIndentation(t *testing.T) {
	doc := "version: 2\ncollector:\n\tidle_timeout_min: 30\n"
	_, err := PatchScalar([]byte(doc), "collector.idle_timeout_min", "45")
	require.Error(t, err)
}
