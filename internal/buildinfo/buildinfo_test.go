package buildinfo

import "testing"

func TestParseEnv(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"", EnvProduction},
		{"production", EnvProduction},
		{"sandbox", EnvSandbox},
		{"Sandbox", EnvSandbox},
		{"simulator", EnvSimulator},
		{"dev", EnvSimulator},
		{"  sandbox  ", EnvSandbox},
		{"garbage", EnvProduction},
	}

	for _, tt := range tests {
		if got := parseEnv(tt.in); got != tt.want {
			t.Errorf("parseEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVersionString(t *testing.T) {
	v := Version{Build: "205", Env: EnvSandbox}
	if got := v.String(); got != "sandbox 205" {
		t.Errorf("String = %q", got)
	}
}
