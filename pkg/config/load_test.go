package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validDocYAML(workspace, logRoot string) string {
	return `version: 2
paths:
  trusted_root: /opt/lux
  log_root: ` + logRoot + `
  workspace_root: ` + workspace + `
docker:
  project_name: lux
harness:
  api_host: 127.0.0.1
  api_port: 8077
  api_token: test-token
collector:
  auto_start: true
  idle_timeout_min: 30
  rotate_every_min: 60
runtime_control_plane:
  socket_path: /tmp/lux.sock
providers:
  claude:
    auth_mode: api_key
    tui_command: claude
    run_template: "claude {{.Prompt}}"
`
}

func TestLoadValidDocument(t *testing.T) {
	home := t.TempDir()
	workspace := filepath.Join(home, "workspace")
	require.NoError(t, os.Mkdir(workspace, 0o755))
	logRoot := t.TempDir()

	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDocYAML(workspace, logRoot)), 0o644))

	doc, err := Load(path, home)
	require.NoError(t, err)
	require.Equal(t, 2, doc.Version)
	require.Equal(t, "lux", doc.Docker.ProjectName)
	require.Contains(t, doc.Providers, "claude")
	require.Equal(t, AuthModeAPIKey, doc.Providers["claude"].AuthMode)
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	home := t.TempDir()
	workspace := filepath.Join(home, "workspace")
	require.NoError(t, os.Mkdir(workspace, 0o755))
	logRoot := t.TempDir()

	doc := validDocYAML(workspace, logRoot)
	doc = "version: 1\n" + doc[len("version: 2\n"):]

	_, err := Parse([]byte(doc), home)
	require.Error(t, err)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	home := t.TempDir()
	workspace := filepath.Join(home, "workspace")
	require.NoError(t, os.Mkdir(workspace, 0o755))
	logRoot := t.TempDir()

	doc := validDocYAML(workspace, logRoot) + "unknown_top_level_key: true\n"

	_, err := Parse([]byte(doc), home)
	require.Error(t, err)
}

func TestLoadRejectsLogRootInsideHome(t *testing.T) {
	home := t.TempDir()
	workspace := filepath.Join(home, "workspace")
	require.NoError(t, os.Mkdir(workspace, 0o755))
	logRoot := filepath.Join(home, "logs")
	require.NoError(t, os.Mkdir(logRoot, 0o755))

	_, err := Parse([]byte(validDocYAML(workspace, logRoot)), home)
	require.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	home := t.TempDir()
	workspace := filepath.Join(home, "workspace")
	require.NoError(t, os.Mkdir(workspace, 0o755))
	logRoot := t.TempDir()

	doc := &Document{
		Version: CurrentVersion,
		Paths: Paths{
			TrustedRoot:   "/opt/lux",
			LogRoot:       logRoot,
			WorkspaceRoot: workspace,
		},
	}

	out, err := Marshal(doc)
	require.NoError(t, err)

	parsed, err := Parse(out, home)
	require.NoError(t, err)
	require.Equal(t, doc.Version, parsed.Version)
	require.Equal(t, doc.Paths.WorkspaceRoot, parsed.Paths.WorkspaceRoot)
}
