package conduit

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/firefly-engineering/conduit-console/internal/config"
)

func TestParseEnv(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, nil, false},
		{"pairs", []string{"A=1", "B=two=2"}, map[string]string{"A": "1", "B": "two=2"}, false},
		{"empty value", []string{"A="}, map[string]string{"A": ""}, false},
		{"missing equals", []string{"A"}, nil, true},
		{"empty key", []string{"=1"}, nil, true},
		{"space in key", []string{"A B=1"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnv(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseEnv() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    config.PortMapping
		wantErr bool
	}{
		{"8080:80", config.PortMapping{Host: 8080, Container: 80}, false},
		{"9000", config.PortMapping{Host: 9000, Container: 9000}, false},
		{"0:80", config.PortMapping{}, true},
		{"8080:70000", config.PortMapping{}, true},
		{"http:80", config.PortMapping{}, true},
		{"", config.PortMapping{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePort(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePort(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePort(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMount(t *testing.T) {
	tests := []struct {
		in      string
		want    config.Mount
		wantErr bool
	}{
		{"/srv:/data", config.Mount{Host: "/srv", Container: "/data"}, false},
		{"/srv:/data:ro", config.Mount{Host: "/srv", Container: "/data", ReadOnly: true}, false},
		{"/srv:/data:rw", config.Mount{Host: "/srv", Container: "/data"}, false},
		{"/srv:/data:xx", config.Mount{}, true},
		{"srv:/data", config.Mount{}, true},
		{"/srv", config.Mount{}, true},
		{"/a:/b:ro:extra", config.Mount{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMount(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
