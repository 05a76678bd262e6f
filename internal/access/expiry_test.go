package access

import (
	"errors"
	"testing"
	"time"
)

var testLoc = time.FixedZone("CET", 3600)

func TestParseLocalizedDate_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"15 septembre 2025", time.Date(2025, time.September, 15, 0, 0, 0, 0, testLoc)},
		{"1 janvier 2030", time.Date(2030, time.January, 1, 0, 0, 0, 0, testLoc)},
		{"10 juin 2024", time.Date(2024, time.June, 10, 0, 0, 0, 0, testLoc)},
		{"01 août 2026", time.Date(2026, time.August, 1, 0, 0, 0, 0, testLoc)},
		{"31 décembre 2025", time.Date(2025, time.December, 31, 0, 0, 0, 0, testLoc)},
		{"29 février 2024", time.Date(2024, time.February, 29, 0, 0, 0, 0, testLoc)},
		{"3 Mars 2025", time.Date(2025, time.March, 3, 0, 0, 0, 0, testLoc)},
		{"  7   mai   2025 ", time.Date(2025, time.May, 7, 0, 0, 0, 0, testLoc)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLocalizedDate(tt.input, testLoc)
			if err != nil {
				t.Fatalf("ParseLocalizedDate(%q) returned error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseLocalizedDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLocalizedDate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"two tokens", "15 septembre"},
		{"four tokens", "lundi 15 septembre 2025"},
		{"english month", "15 September 2025"},
		{"unaccented month", "15 fevrier 2025"},
		{"non numeric day", "quinze septembre 2025"},
		{"three digit day", "015 septembre 2025"},
		{"two digit year", "15 septembre 25"},
		{"day zero", "0 mars 2025"},
		{"day overflow", "31 avril 2025"},
		{"not leap year", "29 février 2025"},
		{"iso format", "2025-09-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLocalizedDate(tt.input, testLoc)
			if err == nil {
				t.Fatalf("ParseLocalizedDate(%q) should fail", tt.input)
			}
			var perr *DateParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error should be *DateParseError, got %T", err)
			}
			if perr.Input != tt.input {
				t.Errorf("Input = %q, want %q", perr.Input, tt.input)
			}
		})
	}
}

func TestParseLocalizedDate_NilLocation(t *testing.T) {
	got, err := ParseLocalizedDate("1 janvier 2030", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != time.Local {
		t.Errorf("Location = %v, want Local", got.Location())
	}
}

func TestEvaluateExpiry_FixedNow(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, testLoc)

	status, err := EvaluateExpiry("1 janvier 2030", now, testLoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != ExpiryActive {
		t.Errorf("1 janvier 2030: status = %v, want active", status)
	}

	status, err = EvaluateExpiry("1 janvier 2020", now, testLoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != ExpiryExpired {
		t.Errorf("1 janvier 2020: status = %v, want expired", status)
	}
}

func TestEvaluateExpiry_Boundary(t *testing.T) {
	midnight := time.Date(2025, time.June, 10, 0, 0, 0, 0, testLoc)

	tests := []struct {
		name string
		now  time.Time
		want ExpiryStatus
	}{
		{"one nanosecond before", midnight.Add(-time.Nanosecond), ExpiryActive},
		{"exactly equal", midnight, ExpiryExpired},
		{"later that day", midnight.Add(9 * time.Hour), ExpiryExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateExpiry("10 juin 2025", tt.now, testLoc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateExpiry_InvalidIsExpired(t *testing.T) {
	status, err := EvaluateExpiry("bientôt", time.Now(), testLoc)
	if err == nil {
		t.Fatal("invalid date should return an error")
	}
	if status != ExpiryExpired {
		t.Errorf("status = %v, want expired", status)
	}
}
