package config

import "testing"

func TestMaxConcurrentJobs(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"unset defaults to 32", "", 32},
		{"valid value", "8", 8},
		{"zero falls back to default", "0", 32},
		{"negative falls back to default", "-5", 32},
		{"non-numeric falls back to default", "many", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvMaxConcurrentJobs, tt.env)
			if got := MaxConcurrentJobs(); got != tt.want {
				t.Errorf("MaxConcurrentJobs() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDefaultSandbox(t *testing.T) {
	t.Setenv(EnvDefaultSandbox, "")
	if got := DefaultSandbox(); got != "" {
		t.Errorf("DefaultSandbox() = %q, want empty", got)
	}

	t.Setenv(EnvDefaultSandbox, "read-only")
	if got := DefaultSandbox(); got != "read-only" {
		t.Errorf("DefaultSandbox() = %q, want read-only", got)
	}
}

func TestStaleJobWarnAfter(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want string
	}{
		{"unset defaults to 30m", "", "30m0s"},
		{"valid duration", "10m", "10m0s"},
		{"invalid duration falls back", "not-a-duration", "30m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvStaleJobWarnAfter, tt.env)
			if got := StaleJobWarnAfter().String(); got != tt.want {
				t.Errorf("StaleJobWarnAfter() = %s, want %s", got, tt.want)
			}
		})
	}
}
