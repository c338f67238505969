package main

import (
	"errors"
	"io"
	"testing"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		check   func(*options) bool
	}{
		{"up", []string{"-up"}, nil, func(o *options) bool { return o.up }},
		{"steps back", []string{"-steps", "-1"}, nil, func(o *options) bool { return o.steps == -1 }},
		{"force zero", []string{"-force", "0"}, nil, func(o *options) bool { return o.forceSet && o.force == 0 }},
		{"dsn", []string{"-dsn", "postgres://x", "-version"}, nil, func(o *options) bool { return o.dsn == "postgres://x" }},
		{"no action", nil, errUsage, nil},
		{"two actions", []string{"-up", "-down"}, errUsage, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(opts) {
				t.Errorf("unexpected options: %+v", opts)
			}
		})
	}
}

func TestResolveDSNPrecedence(t *testing.T) {
	t.Setenv(envDSN, "postgres://env")

	if got, _ := resolveDSN("postgres://flag"); got != "postgres://flag" {
		t.Errorf("flag: got %s", got)
	}
	if got, _ := resolveDSN(""); got != "postgres://env" {
		t.Errorf("env: got %s", got)
	}
}
