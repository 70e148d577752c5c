package validation

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "valid date", value: "2024-03-01", valid: true},
		{name: "leap day", value: "2024-02-29", valid: true},
		{name: "non leap day", value: "2023-02-29", valid: false},
		{name: "short month", value: "2024-3-01", valid: false},
		{name: "with time", value: "2024-03-01T10:00:00", valid: false},
		{name: "slashes", value: "2024/03/01", valid: false},
		{name: "empty string", value: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDate(tt.value)
			if tt.valid && err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.value, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("ParseDate(%q) = %v, want ErrInvalidDate", tt.value, err)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2024-03-01", "2024-03-05")
	if err != nil {
		t.Fatalf("ParseDateRange error: %v", err)
	}
	if !start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range: %v - %v", start, end)
	}

	if _, _, err := ParseDateRange("2024-03-05", "2024-03-05"); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("equal dates: got %v, want ErrInvalidDateRange", err)
	}
	if _, _, err := ParseDateRange("2024-03-06", "2024-03-05"); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("reversed dates: got %v, want ErrInvalidDateRange", err)
	}
	if _, _, err := ParseDateRange("2024-03-01", "tomorrow"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("bad end date: got %v, want ErrInvalidDate", err)
	}
}

func TestParseReservationStatus(t *testing.T) {
	if s, err := ParseReservationStatus("CANCELED"); err != nil || s != "CANCELED" {
		t.Fatalf("CANCELED: got %q, %v", s, err)
	}
	if _, err := ParseReservationStatus("REFUNDED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("REFUNDED: got %v, want ErrInvalidStatus", err)
	}
	if _, err := ParseReservationStatus(""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("empty: got %v, want ErrInvalidStatus", err)
	}
}
