package schedule

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestCronSpec(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"07:00", "0 7 * * *", true},
		{"23:59", "59 23 * * *", true},
		{"0:5", "5 0 * * *", true},
		{"24:00", "", false},
		{"07:60", "", false},
		{"seven", "", false},
	}

	for _, tc := range cases {
		got, err := cronSpec(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("cronSpec(%q) err = %v", tc.in, err)
		}

		if got != tc.want {
			t.Fatalf("cronSpec(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewRejectsBadTimezone(t *testing.T) {
	logger := zerolog.Nop()

	if _, err := New("Mars/Olympus", "07:00", &logger); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestNewValid(t *testing.T) {
	logger := zerolog.Nop()

	s, err := New("Asia/Tokyo", "07:00", &logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if s.spec != "0 7 * * *" {
		t.Fatalf("spec = %q", s.spec)
	}
}
