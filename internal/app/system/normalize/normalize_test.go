package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  Abbe.Diouf@Paroisse.SN  ", "abbe.diouf@paroisse.sn"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"parish_admin", "parish_admin"},
		{"PARISH_ADMIN", "parish_admin"},
		{"  Church_Admin ", "church_admin"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Role(tt.input); got != tt.want {
				t.Errorf("Role(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDioceseCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"DAKAR", "DAKAR"},
		{"dakar", "DAKAR"},
		{" thies ", "THIES"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DioceseCode(tt.input); got != tt.want {
				t.Errorf("DioceseCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
