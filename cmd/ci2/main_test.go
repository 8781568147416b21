package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ci2/internal/app"
	"ci2/internal/doctor"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	fn()
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func boolPtr(v bool) *bool { return &v }

func writePaths(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	root := filepath.Join(home, "CI2")
	cfgPath := filepath.Join(home, "config", "paths.yaml")
	body := "ci2:\n  drive_root: " + root + "\nprojects:\n  qwass2:\n    db: db/qwass2\n    outputs: outputs/qwass2\n"
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, root
}

func TestNewRootCmdIncludesCoreCommands(t *testing.T) {
	cmd := newRootCmd()
	got := map[string]bool{}
	for _, c := range cmd.Commands() {
		got[c.Name()] = true
	}
	for _, want := range []string{"collect", "check", "paths", "runs", "version"} {
		if !got[want] {
			t.Fatalf("expected command %q", want)
		}
	}
}

func TestCollectRequiresFirmAndMonthBeforeService(t *testing.T) {
	called := false
	cmd := newCollectCmd(func() (*app.Service, error) {
		called = true
		return nil, errors.New("should not be called")
	}, boolPtr(false))
	cmd.SetArgs([]string{"--month", "2025-01"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "firm") {
		t.Fatalf("expected firm required error, got %v", err)
	}
	if called {
		t.Fatalf("newSvc should not be called when --firm missing")
	}

	cmd = newCollectCmd(func() (*app.Service, error) {
		called = true
		return nil, errors.New("should not be called")
	}, boolPtr(false))
	cmd.SetArgs([]string{"--firm", "  ", "--month", "2025-01"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "blank") {
		t.Fatalf("expected blank firm error, got %v", err)
	}
	if called {
		t.Fatalf("newSvc should not be called for a blank firm")
	}
}

func TestCollectDefaultsProject(t *testing.T) {
	cmd := newCollectCmd(nil, boolPtr(false))
	flag := cmd.Flags().Lookup("project")
	if flag == nil || flag.DefValue != app.DefaultProject {
		t.Fatalf("expected --project default %q, got %+v", app.DefaultProject, flag)
	}
}

func TestCollectCommandWritesArtifacts(t *testing.T) {
	cfgPath, root := writePaths(t)
	out := captureStdout(t, func() {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--config", cfgPath, "collect", "--firm", "Citadel Securities!", "--month", "2025-01", "--notes", "cli test"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("collect: %v", err)
		}
	})
	dir := filepath.Join(root, "outputs", "qwass2", "Citadel_Securities", "2025-01")
	if !strings.Contains(out, "micro collect complete") || !strings.Contains(out, "Output dir: "+dir) {
		t.Fatalf("unexpected output %q", out)
	}
	manifests, _ := filepath.Glob(filepath.Join(dir, "manifest_*.json"))
	data, _ := filepath.Glob(filepath.Join(dir, "stories_Citadel_Securities_2025-01_*.csv"))
	if len(manifests) != 1 || len(data) != 1 {
		t.Fatalf("expected one manifest and one data file, got %v %v", manifests, data)
	}
}

func TestCollectUnknownProjectFails(t *testing.T) {
	cfgPath, _ := writePaths(t)
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "collect", "--project", "nope", "--firm", "x", "--month", "2025-01"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "qwass2") {
		t.Fatalf("expected unknown project error listing qwass2, got %v", err)
	}
}

func TestCheckCommandExitCode(t *testing.T) {
	cfgPath, _ := writePaths(t)
	var err error
	out := captureStdout(t, func() {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--config", cfgPath, "check"})
		err = cmd.Execute()
	})
	var ex ExitCoder
	if !errors.As(err, &ex) || ex.ExitCode() != 2 {
		t.Fatalf("expected exit code 2, got %v", err)
	}
	if !strings.Contains(out, "missing directories:") {
		t.Fatalf("expected itemized missing dirs, got %q", out)
	}
}

func TestPathsCommandJSON(t *testing.T) {
	cfgPath, root := writePaths(t)
	t.Setenv("CI2_KEYS_ENV", "/override/keys.env")
	out := captureStdout(t, func() {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--config", cfgPath, "--json", "paths"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("paths: %v", err)
		}
	})
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if got["outputs"] != filepath.Join(root, "outputs", "qwass2") || got["secretsPath"] != "/override/keys.env" {
		t.Fatalf("unexpected paths payload %+v", got)
	}
}

func TestRunsCommandListsTokens(t *testing.T) {
	cfgPath, _ := writePaths(t)
	for i := 0; i < 2; i++ {
		captureStdout(t, func() {
			cmd := newRootCmd()
			cmd.SetArgs([]string{"--config", cfgPath, "collect", "--firm", "Citadel", "--month", "2025-01"})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("collect: %v", err)
			}
		})
	}
	out := captureStdout(t, func() {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--config", cfgPath, "runs", "--firm", "Citadel", "--month", "2025-01"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("runs: %v", err)
		}
	})
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 {
		t.Fatalf("expected two runs, got %q", out)
	}
}

func TestPrintMessageAndJSON(t *testing.T) {
	msgOut := captureStdout(t, func() {
		if err := print(false, nil, "ok-message"); err != nil {
			t.Fatalf("print message failed: %v", err)
		}
	})
	if !strings.Contains(msgOut, "ok-message") {
		t.Fatalf("expected message output, got %q", msgOut)
	}

	jsonOut := captureStdout(t, func() {
		if err := print(true, map[string]string{"k": "v"}, "ignored"); err != nil {
			t.Fatalf("print json failed: %v", err)
		}
	})
	var parsed map[string]string
	if err := json.Unmarshal([]byte(jsonOut), &parsed); err != nil {
		t.Fatalf("expected valid json output, got %q: %v", jsonOut, err)
	}
	if parsed["k"] != "v" {
		t.Fatalf("unexpected json payload: %+v", parsed)
	}
}

func TestRenderCheckUnreadableSecrets(t *testing.T) {
	res := app.CheckResult{Report: doctor.Report{
		Root:          "/drive/CI2",
		RootReachable: true,
		Secrets:       doctor.SecretsStatus{Path: "/drive/CI2/ci2_keys.env", Exists: true},
		Findings: []doctor.Finding{{
			Code:    "ENV_SECRETS_UNREADABLE",
			Level:   doctor.LevelError,
			Path:    "/drive/CI2/ci2_keys.env",
			Message: "permission denied",
		}},
	}}
	out := captureStdout(t, func() { renderCheck(newStyles(), res) })
	if !strings.Contains(out, "keys file could not be read") {
		t.Fatalf("expected unreadable message, got %q", out)
	}
	if strings.Contains(out, "appears empty") {
		t.Fatalf("unreadable file described as empty: %q", out)
	}
}
