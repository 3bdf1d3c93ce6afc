package booking

import "testing"

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15.06.2025", "2025-06-15"},
		{"1.7.25", "2025-07-01"},
		{" 29.5.2025 ", "2025-05-29"},
		{"2025-06-15", "2025-06-15"},
		{"5. Mai", "5. Mai"},
		{"12.08", "12.08"},
		{"32.01.2025", "32.01.2025"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.in); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"14 Uhr", "14:00"},
		{"9 uhr", "09:00"},
		{"15Uhr", "15:00"},
		{"9:15", "09:15"},
		{"14:30", "14:30"},
		{"7", "07:00"},
		{"25:00", "25:00"},
		{"nachmittags", "nachmittags"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTime(tt.in); got != tt.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
