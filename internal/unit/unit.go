package unit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/firefly-engineering/conduit-console/internal/config"
)

// ErrContainerManaged is returned when asked to render a unit for a
// conduit whose lifecycle belongs to the container engine.
var ErrContainerManaged = errors.New("conduit is supervised by the container engine and has no unit file")

// Suffix is the file extension of service units.
const Suffix = ".service"

// ManagedHeader opens every generated unit file.
const ManagedHeader = "# Managed by conduit-console."

// IsManaged reports whether unit file contents were generated by Render.
func IsManaged(data []byte) bool {
	return bytes.HasPrefix(data, []byte(ManagedHeader))
}

// legacyDockerSuffix marks units that used to wrap docker containers.
const legacyDockerSuffix = "-docker" + Suffix

// Options controls unit rendering.
type Options struct {
	// UserUnit selects default.target instead of multi-user.target.
	UserUnit bool
}

// Name returns the unit file name for a conduit.
func Name(prefix string, c *config.Conduit) string {
	return prefix + c.Name + Suffix
}

// IsLegacyDockerUnit reports whether a unit file name follows the
// "*-docker.service" pattern of container-wrapping units.
func IsLegacyDockerUnit(file string) bool {
	return strings.HasSuffix(file, legacyDockerSuffix) && len(file) > len(legacyDockerSuffix)
}

// ConduitName extracts the conduit name from a unit file name, returning
// false when the file does not carry the prefix.
func ConduitName(prefix, file string) (string, bool) {
	if !strings.HasPrefix(file, prefix) || !strings.HasSuffix(file, Suffix) {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(file, prefix), Suffix)
	if name == "" {
		return "", false
	}
	return name, true
}

type templateData struct {
	Description string
	InstanceID  string
	ExecStart   string
	WorkingDir  string
	Env         []envVar
	Restart     string
	WantedBy    string
}

type envVar struct {
	Name  string
	Value string
}

// systemdEscape escapes a value for a double-quoted Environment= assignment.
func systemdEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return escapeSpecifiers(s)
}

// escapeSpecifiers doubles % so systemd does not expand specifiers.
func escapeSpecifiers(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// execArg renders one ExecStart= argument. $ is doubled so systemd does not
// substitute variables. Arguments that would otherwise split or be
// unescaped are double-quoted.
func execArg(s string) string {
	escaped := strings.ReplaceAll(systemdEscape(s), "$", "$$")
	if s == "" || s == ";" || strings.ContainsAny(s, " \t\n'\"\\") {
		return `"` + escaped + `"`
	}
	return escaped
}

// execLine renders a command for ExecStart=.
func execLine(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = execArg(a)
	}
	return strings.Join(out, " ")
}

const unitTemplateText = ManagedHeader + ` Changes will be overwritten.
[Unit]
Description={{.Description}}
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
Environment="CONDUIT_INSTANCE_ID={{.InstanceID}}"
{{- range .Env}}
Environment="{{.Name}}={{escape .Value}}"
{{- end}}
{{- if .WorkingDir}}
WorkingDirectory={{.WorkingDir}}
{{- end}}
ExecStart={{.ExecStart}}
Restart={{.Restart}}
RestartSec=5

[Install]
WantedBy={{.WantedBy}}
`

var unitTemplate = template.Must(template.New("unit").Funcs(template.FuncMap{
	"escape": systemdEscape,
}).Parse(unitTemplateText))

// systemdRestart maps a conduit restart policy to systemd's Restart= value.
func systemdRestart(policy string) string {
	switch policy {
	case config.RestartNo:
		return "no"
	case config.RestartAlways, config.RestartUnlessStopped:
		return "always"
	default:
		return "on-failure"
	}
}

// Render produces the unit file contents for a systemd-backed conduit.
func Render(c *config.Conduit, opts Options) ([]byte, error) {
	if !c.ManagesUnitFile() {
		return nil, fmt.Errorf("%s: %w", c.Name, ErrContainerManaged)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	desc := c.Description
	if desc == "" {
		desc = "conduit " + c.Name
	}

	data := templateData{
		Description: escapeSpecifiers(strings.ReplaceAll(desc, "\n", " ")),
		InstanceID:  c.InstanceID,
		ExecStart:   execLine(c.Command),
		WorkingDir:  escapeSpecifiers(c.WorkingDir),
		Restart:     systemdRestart(c.EffectiveRestart()),
		WantedBy:    "multi-user.target",
	}
	if opts.UserUnit {
		data.WantedBy = "default.target"
	}
	for _, k := range sortedKeys(c.Env) {
		data.Env = append(data.Env, envVar{Name: k, Value: c.Env[k]})
	}

	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute unit template: %w", err)
	}
	return buf.Bytes(), nil
}
