package utils

import (
	"testing"
	"time"
)

func TestThaiDateRoundTrip(t *testing.T) {
	d := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	thai := ToThaiDate(d)
	if thai != "07/03/2568" {
		t.Fatalf("ToThaiDate = %q", thai)
	}
	back, err := ParseThaiDate(thai)
	if err != nil {
		t.Fatalf("ParseThaiDate: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip lost the date: %s != %s", back, d)
	}
}

func TestParseThaiDateBuddhistThreshold(t *testing.T) {
	// Years above 2400 are Buddhist era, at or below are Gregorian.
	be, err := ParseThaiDate("15/06/2567")
	if err != nil {
		t.Fatalf("ParseThaiDate: %v", err)
	}
	if be.Year() != 2024 {
		t.Errorf("BE year not converted: got %d", be.Year())
	}

	ad, err := ParseThaiDate("15/06/2024")
	if err != nil {
		t.Fatalf("ParseThaiDate: %v", err)
	}
	if ad.Year() != 2024 {
		t.Errorf("AD year must pass through: got %d", ad.Year())
	}
}

func TestParseThaiDateRejectsBadInput(t *testing.T) {
	for _, s := range []string{"2024-06-15", "1/1/2024", "", "15/06/24"} {
		if _, err := ParseThaiDate(s); err == nil {
			t.Errorf("ParseThaiDate(%q) should fail", s)
		}
	}
}

func TestNormalizeInputDateFormats(t *testing.T) {
	want := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"15/06/2567", "2024-06-15", "2024-06-15T00:00:00Z"} {
		got, err := NormalizeInputDate(s)
		if err != nil {
			t.Errorf("NormalizeInputDate(%q): %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("NormalizeInputDate(%q) = %s, want %s", s, got, want)
		}
	}
	if _, err := NormalizeInputDate("June 15th"); err == nil {
		t.Error("free-form dates must be rejected")
	}
}
