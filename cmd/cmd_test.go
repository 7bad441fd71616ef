package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/firefly-engineering/conduit-console/internal/audit"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/errors"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
	"github.com/firefly-engineering/conduit-console/internal/testutil"
)

// resetFlags restores every flag of every command to its default so runs
// do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommandWithInput(in io.Reader, args ...string) (string, string, error) {
	resetFlags(rootCmd)

	cmd := rootCmd
	cmd.SetArgs(args)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(in)

	err := cmd.Execute()

	// Reset for next test
	cmd.SetArgs(nil)
	cmd.SetOut(nil)
	cmd.SetErr(nil)
	cmd.SetIn(nil)
	logging.SetOutput(nil, nil)

	return stdout.String(), stderr.String(), err
}

func executeCommand(args ...string) (string, string, error) {
	return executeCommandWithInput(strings.NewReader(""), args...)
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	if !strings.HasPrefix(stdout, "Description:") {
		t.Errorf("Help output should start with a Description section:\n%s", stdout)
	}
	if !strings.Contains(stdout, "conduit-console") {
		t.Error("Help output should contain 'conduit-console'")
	}
	if !strings.Contains(stdout, "Available Commands") {
		t.Error("Help output should list available commands")
	}
}

func TestHelpCommand(t *testing.T) {
	stdout, _, err := executeCommand("help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}
	if !strings.Contains(stdout, "Description:") {
		t.Errorf("help output should contain Description:\n%s", stdout)
	}
}

func TestSubcommandHelp_Description(t *testing.T) {
	for _, sub := range rootCmd.Commands() {
		if sub.Hidden {
			continue
		}
		name := sub.Name()
		t.Run(name, func(t *testing.T) {
			stdout, _, err := executeCommand(name, "--help")
			if err != nil {
				t.Fatalf("%s --help failed: %v", name, err)
			}
			if !strings.Contains(stdout, "Description:") {
				t.Errorf("%s --help should contain Description:\n%s", name, stdout)
			}
			if !strings.Contains(stdout, "Usage:") {
				t.Errorf("%s --help should contain usage", name)
			}
		})
	}

	stdout, _, err := executeCommand("help", "create")
	if err != nil {
		t.Fatalf("help create failed: %v", err)
	}
	if !strings.Contains(stdout, "Description:") || !strings.Contains(stdout, "--image") {
		t.Errorf("help create output unexpected:\n%s", stdout)
	}
}

func TestIndent(t *testing.T) {
	got := indent("one\n\ntwo")
	if got != "  one\n\n  two" {
		t.Errorf("indent() = %q", got)
	}
}

func TestCreateCommand_Docker(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	stdout, _, err := executeCommand("create", "web",
		"--backend", "docker",
		"--image", "nginx:1.27",
		"-p", "8080:80",
		"-e", "MODE=prod",
		"--mount", "/srv/www:/usr/share/nginx/html:ro",
	)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	c := env.GetConduit("web")
	if c == nil {
		t.Fatal("conduit metadata should exist")
	}
	if _, err := uuid.Parse(c.InstanceID); err != nil {
		t.Errorf("InstanceID %q is not a UUID", c.InstanceID)
	}
	if !strings.Contains(stdout, c.InstanceID) {
		t.Errorf("output should print the instance id:\n%s", stdout)
	}
	if !strings.Contains(stdout, "unless-stopped") {
		t.Errorf("output should mention the engine restart policy:\n%s", stdout)
	}

	created, ok := env.DockerRuntime.Created["web"]
	if !ok || !created.Start {
		t.Fatalf("docker runtime should create and start web, got %+v", env.DockerRuntime.Created)
	}
	if created.Conduit.Env["MODE"] != "prod" || !created.Conduit.Mounts[0].ReadOnly {
		t.Errorf("flags not carried through: %+v", created.Conduit)
	}
	if files := env.UnitFiles(); len(files) != 0 {
		t.Errorf("docker create should not write unit files, got %v", files)
	}
}

func TestCreateCommand_SystemdCommandAfterDash(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	_, _, err := executeCommand("create", "relay", "--backend", "systemd", "--no-start",
		"--", "/usr/bin/socat", "TCP-LISTEN:9000,fork", "TCP:10.0.0.5:9000")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	created, ok := env.UnitRuntime.Created["relay"]
	if !ok {
		t.Fatal("systemd runtime should receive the conduit")
	}
	if created.Start {
		t.Error("--no-start should not start the conduit")
	}
	want := []string{"/usr/bin/socat", "TCP-LISTEN:9000,fork", "TCP:10.0.0.5:9000"}
	if strings.Join(created.Conduit.Command, "|") != strings.Join(want, "|") {
		t.Errorf("Command = %v, want %v", created.Conduit.Command, want)
	}
}

func TestCreateCommand_QuotedCommand(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	_, _, err := executeCommand("create", "relay", "-b", "systemd",
		"--command", `/bin/sh -c "exec sleep 100"`)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	got := env.GetConduit("relay").Command
	if len(got) != 3 || got[2] != "exec sleep 100" {
		t.Errorf("Command = %q", got)
	}
}

func TestCreateCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad backend", []string{"create", "x", "--backend", "lxc"}, errors.ExitValidation},
		{"bad port", []string{"create", "x", "--image", "nginx", "-p", "99999"}, errors.ExitValidation},
		{"bad env", []string{"create", "x", "--image", "nginx", "-e", "NOVALUE"}, errors.ExitValidation},
		{"bad mount", []string{"create", "x", "--image", "nginx", "--mount", "rel:/data"}, errors.ExitValidation},
		{"missing image", []string{"create", "x"}, errors.ExitValidation},
		{"both command forms", []string{"create", "x", "-b", "systemd", "--command", "/bin/true", "--", "/bin/false"}, errors.ExitValidation},
		{"bad name", []string{"create", "Bad_Name", "--image", "nginx"}, errors.ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv(t)
			defer env.Cleanup()

			_, _, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := errors.GetExitCode(err); code != tt.code {
				t.Errorf("exit code = %d, want %d (err=%v)", code, tt.code, err)
			}
		})
	}
}

func TestCreateCommand_Duplicate(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	env.AddConduit(testutil.DockerConduit("web"), runtime.StatusRunning)

	_, _, err := executeCommand("create", "web", "--image", "nginx")
	if code := errors.GetExitCode(err); code != errors.ExitConduitExists {
		t.Errorf("exit code = %d, want %d", code, errors.ExitConduitExists)
	}
}

func TestPsCommand(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	stdout, _, err := executeCommand("ps")
	if err != nil {
		t.Fatalf("ps failed: %v", err)
	}
	if !strings.Contains(stdout, "No conduits found") {
		t.Errorf("empty ps output unexpected:\n%s", stdout)
	}

	env.AddConduit(testutil.DockerConduit("web"), runtime.StatusRunning)
	env.AddConduit(testutil.SystemdConduit("relay"), runtime.StatusStopped)
	env.AddConduit(testutil.DockerConduit("gone"), runtime.StatusNotFound)

	stdout, _, err = executeCommand("ps")
	if err != nil {
		t.Fatalf("ps failed: %v", err)
	}
	for _, want := range []string{"NAME", "web", "✓ healthy", "relay", "● stopped", "gone", "○ missing"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("ps output missing %q:\n%s", want, stdout)
		}
	}
}

func TestStatusCommand(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	c := testutil.SystemdConduit("relay")
	c.Description = "database relay"
	env.AddConduit(c, runtime.StatusRunning)

	stdout, _, err := executeCommand("status", "relay")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{"Conduit: relay", "Description: database relay", "Unit: conduit-relay.service", "Status: ✓ healthy"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("status output missing %q:\n%s", want, stdout)
		}
	}
}

func TestStatusCommand_Formats(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	env.AddConduit(testutil.DockerConduit("web"), runtime.StatusRunning)

	t.Run("json", func(t *testing.T) {
		stdout, _, err := executeCommand("status", "web", "-o", "json")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		var report struct {
			Conduit config.Conduit `json:"conduit"`
			Health  struct {
				Status string `json:"status"`
			} `json:"health"`
		}
		if err := json.Unmarshal([]byte(stdout), &report); err != nil {
			t.Fatalf("invalid json: %v\n%s", err, stdout)
		}
		if report.Conduit.Name != "web" || report.Health.Status != "healthy" {
			t.Errorf("unexpected report: %+v", report)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, _, err := executeCommand("status", "web", "-o", "yaml")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		var report map[string]map[string]any
		if err := yaml.Unmarshal([]byte(stdout), &report); err != nil {
			t.Fatalf("invalid yaml: %v\n%s", err, stdout)
		}
		if report["conduit"]["backend"] != "docker" || report["health"]["status"] != "healthy" {
			t.Errorf("unexpected report: %v", report)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := executeCommand("status", "web", "-o", "xml")
		if code := errors.GetExitCode(err); code != errors.ExitValidation {
			t.Errorf("exit code = %d, want %d", code, errors.ExitValidation)
		}
	})
}

func TestStatusCommand_NotFound(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	_, _, err := executeCommand("status", "ghost")
	if code := errors.GetExitCode(err); code != errors.ExitConduitNotFound {
		t.Errorf("exit code = %d, want %d", code, errors.ExitConduitNotFound)
	}
}

func TestLifecycleCommands(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	env.AddConduit(testutil.DockerConduit("web"), runtime.StatusStopped)

	steps := [][]string{
		{"start", "web"},
		{"stop", "web", "--timeout", "5"},
		{"restart", "web"},
		{"stop", "web", "-t", "0"},
	}
	for _, args := range steps {
		if _, _, err := executeCommand(args...); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
	}

	if n := len(env.DockerRuntime.GetCallsFor("GracefulStop")); n != 1 {
		t.Errorf("GracefulStop calls = %d, want 1", n)
	}

	events, err := env.App.Audit.Events("web")
	if err != nil {
		t.Fatal(err)
	}
	var types []audit.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	want := []audit.EventType{audit.EventStart, audit.EventStop, audit.EventRestart, audit.EventStop}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestRmCommand(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	env.AddConduit(testutil.DockerConduit("web"), runtime.StatusRunning)
	env.AddConduit(testutil.DockerConduit("api"), runtime.StatusRunning)

	if _, _, err := executeCommand("rm", "web"); err != nil {
		t.Fatalf("rm failed: %v", err)
	}
	if env.ConduitExists("web") {
		t.Error("web should be removed")
	}

	// down is an alias
	if _, _, err := executeCommand("down", "api"); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if env.ConduitExists("api") {
		t.Error("api should be removed")
	}

	_, _, err := executeCommand("rm", "web")
	if code := errors.GetExitCode(err); code != errors.ExitConduitNotFound {
		t.Errorf("exit code = %d, want %d", code, errors.ExitConduitNotFound)
	}
}

func TestLogsCommand(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	env.AddConduit(testutil.DockerConduit("web"), runtime.StatusRunning)
	env.DockerRuntime.LogOutput["web"] = "line one\nline two"

	stdout, _, err := executeCommand("logs", "web", "-n", "10")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if stdout != "line one\nline two\n" {
		t.Errorf("logs output = %q", stdout)
	}

	calls := env.DockerRuntime.GetCallsFor("Logs")
	if len(calls) != 1 || calls[0].Args[1].(runtime.LogOptions).Lines != 10 {
		t.Errorf("unexpected Logs calls: %+v", calls)
	}
}

func TestAuditLogCommand(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	for _, et := range []audit.EventType{audit.EventCreate, audit.EventStart, audit.EventStop} {
		if err := env.App.Audit.LogEvent(et, "web", ""); err != nil {
			t.Fatal(err)
		}
	}

	stdout, _, err := executeCommand("audit-log", "web", "-n", "2")
	if err != nil {
		t.Fatalf("audit-log failed: %v", err)
	}
	if strings.Contains(stdout, "create") || !strings.Contains(stdout, "start") || !strings.Contains(stdout, "stop") {
		t.Errorf("audit-log -n 2 output unexpected:\n%s", stdout)
	}

	stdout, _, err = executeCommand("audit-log", "web", "-o", "jsonl")
	if err != nil {
		t.Fatalf("audit-log failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 jsonl lines, got %d", len(lines))
	}
	var e audit.Event
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil || e.Type != audit.EventCreate {
		t.Errorf("first line = %q (err=%v)", lines[0], err)
	}
}

func TestRuntimeCommand(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	stdout, _, err := executeCommand("runtime")
	if err != nil {
		t.Fatalf("runtime failed: %v", err)
	}
	for _, want := range []string{"docker", "systemd", env.Paths.UnitDir} {
		if !strings.Contains(stdout, want) {
			t.Errorf("runtime output missing %q:\n%s", want, stdout)
		}
	}
}

func TestMonitorCommand_Duration(t *testing.T) {
	env := testutil.NewTestEnv(t)
	defer env.Cleanup()

	env.AddConduit(testutil.DockerConduit("web"), runtime.StatusStopped)

	stdout, _, err := executeCommand("monitor", "--interval", "10ms", "--duration", "100ms", "--auto-restart")
	if err != nil {
		t.Fatalf("monitor failed: %v", err)
	}
	if !strings.Contains(stdout, "Monitor stopped") {
		t.Errorf("monitor output unexpected:\n%s", stdout)
	}
	if len(env.DockerRuntime.GetCallsFor("Start")) == 0 {
		t.Error("auto-restart should start the stopped conduit")
	}
}
