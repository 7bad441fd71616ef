package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/system"
)

func testDockerConduit() *config.Conduit {
	return &config.Conduit{
		Name:       "web",
		InstanceID: "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Backend:    config.BackendDocker,
		Image:      "nginx:1.27",
		Command:    []string{"nginx", "-g", "daemon off;"},
		WorkingDir: "/srv",
		Env:        map[string]string{"B": "2", "A": "1"},
		Ports:      []config.PortMapping{{Host: 8080, Container: 80}},
		Mounts: []config.Mount{
			{Host: "/var/www", Container: "/usr/share/nginx/html", ReadOnly: true},
			{Host: "/var/cache/web", Container: "/cache"},
		},
	}
}

func TestDockerRuntime_Name(t *testing.T) {
	for _, cmd := range []string{"docker", "podman"} {
		rt := NewDockerRuntimeWithExecutor(cmd, "conduit-", system.NewMockExecutor())
		if rt.Name() != "docker" {
			t.Errorf("Name() with %s = %q, want docker", cmd, rt.Name())
		}
	}
}

func TestDockerRuntime_containerName(t *testing.T) {
	rt := &DockerRuntime{Command: "docker", ContainerPrefix: "conduit-"}

	tests := []struct {
		name string
		want string
	}{
		{"web", "conduit-web"},
		{"api-1", "conduit-api-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rt.containerName(tt.name); got != tt.want {
				t.Errorf("containerName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestDockerRuntime_CreateArgs(t *testing.T) {
	rt := &DockerRuntime{Command: "docker", ContainerPrefix: "conduit-"}

	want := []string{
		"create",
		"--name", "conduit-web",
		"--restart", "unless-stopped",
		"--label", "conduit-console.managed=true",
		"--label", "conduit-console.instance=7c9e6679-7425-40de-944b-e07fc1f90ae7",
		"--label", "conduit-console.name=web",
		"-w", "/srv",
		"-e", "A=1",
		"-e", "B=2",
		"-p", "127.0.0.1:8080:80",
		"-v", "/var/www:/usr/share/nginx/html:ro",
		"-v", "/var/cache/web:/cache",
		"nginx:1.27",
		"nginx", "-g", "daemon off;",
	}

	if diff := cmp.Diff(want, rt.createArgs(testDockerConduit())); diff != "" {
		t.Errorf("createArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestDockerRuntime_CreateAndStart(t *testing.T) {
	exec := system.NewMockExecutor()
	rt := NewDockerRuntimeWithExecutor("docker", "conduit-", exec)

	c := testDockerConduit()
	c.Restart = config.RestartAlways
	if err := rt.Create(context.Background(), CreateOptions{Conduit: c, Start: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	lines := exec.CommandLines()
	if len(lines) != 2 {
		t.Fatalf("expected create and start, got %v", lines)
	}
	if !strings.HasPrefix(lines[0], "docker create --name conduit-web --restart always ") {
		t.Errorf("unexpected create command: %s", lines[0])
	}
	if lines[1] != "docker start conduit-web" {
		t.Errorf("unexpected start command: %s", lines[1])
	}
}

func TestDockerRuntime_CreateRejectsSystemdConduit(t *testing.T) {
	exec := system.NewMockExecutor()
	rt := NewDockerRuntimeWithExecutor("docker", "conduit-", exec)

	c := testDockerConduit()
	c.Backend = config.BackendSystemd
	if err := rt.Create(context.Background(), CreateOptions{Conduit: c}); err == nil {
		t.Fatal("expected error for systemd conduit")
	}
	if len(exec.Commands) != 0 {
		t.Errorf("no command should run, got %v", exec.CommandLines())
	}
}

func TestDockerRuntime_CreateFailure(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("docker create", []byte("Error: pull access denied"), errors.New("exit status 125"))
	rt := NewDockerRuntimeWithExecutor("docker", "conduit-", exec)

	err := rt.Create(context.Background(), CreateOptions{Conduit: testDockerConduit(), Start: true})
	if err == nil || !strings.Contains(err.Error(), "pull access denied") {
		t.Fatalf("Create error = %v, want engine output", err)
	}
	if len(exec.Commands) != 1 {
		t.Errorf("start must not run after a failed create, got %v", exec.CommandLines())
	}
}

func TestDockerRuntime_GracefulStop(t *testing.T) {
	exec := system.NewMockExecutor()
	rt := NewDockerRuntimeWithExecutor("podman", "conduit-", exec)

	if err := rt.GracefulStop(context.Background(), "web", 1500*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	last, _ := exec.LastCommand()
	if last.String() != "podman stop -t 2 conduit-web" {
		t.Errorf("GracefulStop ran %q", last.String())
	}
}

func TestDockerRuntime_DestroyMissing(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("docker rm", []byte("Error: No such container: conduit-web"), errors.New("exit status 1"))
	rt := NewDockerRuntimeWithExecutor("docker", "conduit-", exec)

	if err := rt.Destroy(context.Background(), "web"); err != nil {
		t.Errorf("Destroy of a missing container should succeed, got %v", err)
	}
}

func TestDockerRuntime_IsRunning(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("docker inspect -f {{.State.Running}} conduit-web", []byte("true\n"), nil)
	exec.AddResponse("docker inspect -f {{.State.Running}} conduit-gone", []byte("Error: No such object: conduit-gone"), errors.New("exit status 1"))
	exec.AddResponse("docker inspect -f {{.State.Running}} conduit-broken", []byte("Cannot connect to the Docker daemon"), errors.New("exit status 1"))
	rt := NewDockerRuntimeWithExecutor("docker", "conduit-", exec)
	ctx := context.Background()

	if running, err := rt.IsRunning(ctx, "web"); err != nil || !running {
		t.Errorf("IsRunning(web) = %v, %v; want true, nil", running, err)
	}
	if running, err := rt.IsRunning(ctx, "gone"); err != nil || running {
		t.Errorf("IsRunning(gone) = %v, %v; want false, nil", running, err)
	}
	if _, err := rt.IsRunning(ctx, "broken"); err == nil {
		t.Error("IsRunning(broken) should surface daemon errors")
	}
}

func TestParseInspect(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantStatus ContainerStatus
		wantHealth string
		wantCount  int
	}{
		{
			name: "running healthy",
			json: `[{"State":{"Status":"running","Running":true,"StartedAt":"2026-01-01T00:00:00.123456789Z",
				"Health":{"Status":"healthy"}},"RestartCount":0,
				"Config":{"Labels":{"conduit-console.instance":"abc"}}}]`,
			wantStatus: StatusRunning,
			wantHealth: "healthy",
		},
		{
			name:       "restarting",
			json:       `[{"State":{"Status":"restarting","Running":true,"Restarting":true},"RestartCount":4}]`,
			wantStatus: StatusRestarting,
			wantCount:  4,
		},
		{
			name:       "exited",
			json:       `[{"State":{"Status":"exited","Running":false,"StartedAt":"0001-01-01T00:00:00Z"}}]`,
			wantStatus: StatusStopped,
		},
		{
			name:       "created",
			json:       `[{"State":{"Status":"created"}}]`,
			wantStatus: StatusStopped,
		},
		{
			name:       "removing",
			json:       `[{"State":{"Status":"removing"}}]`,
			wantStatus: StatusUnknown,
		},
		{
			name:       "empty",
			json:       `[]`,
			wantStatus: StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseInspect("web", []byte(tt.json))
			if err != nil {
				t.Fatalf("parseInspect error: %v", err)
			}
			if info.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", info.Status, tt.wantStatus)
			}
			if info.Health != tt.wantHealth {
				t.Errorf("Health = %q, want %q", info.Health, tt.wantHealth)
			}
			if info.RestartCount != tt.wantCount {
				t.Errorf("RestartCount = %d, want %d", info.RestartCount, tt.wantCount)
			}
		})
	}

	info, _ := parseInspect("web", []byte(tests[0].json))
	if info.InstanceID != "abc" {
		t.Errorf("InstanceID = %q, want abc", info.InstanceID)
	}
	if info.StartedAt.IsZero() {
		t.Error("StartedAt should be parsed")
	}

	info, _ = parseInspect("web", []byte(tests[2].json))
	if !info.StartedAt.IsZero() {
		t.Error("zero StartedAt should stay unset")
	}

	if _, err := parseInspect("web", []byte("not json")); err == nil {
		t.Error("expected parse error")
	}
}

func TestDockerRuntime_Logs(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("docker logs --tail 50 conduit-web", []byte("GET / 200\n"), nil)
	rt := NewDockerRuntimeWithExecutor("docker", "conduit-", exec)

	out, err := rt.Logs(context.Background(), "web", LogOptions{Lines: 50})
	if err != nil {
		t.Fatal(err)
	}
	if out != "GET / 200\n" {
		t.Errorf("Logs = %q", out)
	}

	if _, err := rt.Logs(context.Background(), "web", LogOptions{Follow: true}); err != nil {
		t.Fatal(err)
	}
	last, _ := exec.LastCommand()
	if last.String() != "docker logs -f conduit-web" {
		t.Errorf("follow ran %q", last.String())
	}
}

func TestDockerRuntime_List(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("docker ps", []byte("conduit-web\nother-thing\nconduit-db\n"), nil)
	exec.AddResponse("docker inspect conduit-web", []byte(`[{"State":{"Status":"running","Running":true}}]`), nil)
	exec.AddResponse("docker inspect conduit-db", []byte(`[{"State":{"Status":"exited"}}]`), nil)
	rt := NewDockerRuntimeWithExecutor("docker", "conduit-", exec)

	infos, err := rt.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]ContainerStatus{}
	for _, i := range infos {
		got[i.Name] = i.Status
	}
	want := map[string]ContainerStatus{"web": StatusRunning, "db": StatusStopped}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(exec.CommandLines()[0], "--filter label=conduit-console.managed=true") {
		t.Errorf("ps should filter on the managed label: %s", exec.CommandLines()[0])
	}
}
