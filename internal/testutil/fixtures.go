package testutil

import (
	"embed"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/conduit-console/internal/config"
)

//go:embed fixtures/*.toml
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// LoadConduitFixture loads a conduit fixture.
func LoadConduitFixture(name string) (*config.Conduit, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	var c config.Conduit
	if _, err := toml.Decode(string(data), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidDockerConduit returns the docker conduit fixture.
func ValidDockerConduit() (*config.Conduit, error) {
	return LoadConduitFixture("docker_conduit.toml")
}

// ValidSystemdConduit returns the systemd conduit fixture.
func ValidSystemdConduit() (*config.Conduit, error) {
	return LoadConduitFixture("systemd_conduit.toml")
}

// InvalidConduit returns a conduit fixture that fails validation.
func InvalidConduit() (*config.Conduit, error) {
	return LoadConduitFixture("invalid_conduit.toml")
}
