package formatting_test

import (
	"testing"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/formatting"
)

const (
	kib = int64(1) << 10
	mib = kib << 10
	gib = mib << 10
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"512B", 512, false},
		{"1KB", kib, false},
		{"10MB", 10 * mib, false},
		{"10mb", 10 * mib, false},
		{"10M", 10 * mib, false},
		{"10MiB", 10 * mib, false},
		{"1.5 GB", gib + gib/2, false},
		{"  25 MB  ", 25 * mib, false},
		{"0", 0, false},
		{"", 0, true},
		{"MB", 0, true},
		{"-5MB", 0, true},
		{"50XX", 0, true},
		{"10QB", 0, true},
		{"1.2.3MB", 0, true},
		{"9000000EB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBytes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n         int64
		precision int
		want      string
	}{
		{0, 2, "0 B"},
		{500, 1, "500 B"},
		{kib, 0, "1 KB"},
		{10 * mib, 0, "10 MB"},
		{mib + mib/2, 1, "1.5 MB"},
		{gib, 0, "1 GB"},
		{kib, -3, "1 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
				t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
			}
		})
	}
}

func TestFormatParsesBack(t *testing.T) {
	for _, n := range []int64{kib, 10 * mib, gib} {
		formatted := formatting.FormatBytes(n, 0)
		parsed, err := formatting.ParseBytes(formatted)
		if err != nil || parsed != n {
			t.Errorf("%d formatted as %q parsed back as %d (%v)", n, formatted, parsed, err)
		}
	}
}
