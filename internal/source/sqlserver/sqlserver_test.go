package sqlserver

import "testing"

func TestSQLServerQuoteIdentifier(t *testing.T) {
	handler := sqlServerHandler{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Simple name", "befolkning", "[befolkning]"},
		{"Name with closing bracket", "my]table", "[my]]table]"},
		{"Name with spaces", "my table", "[my table]"},
		{"Empty name", "", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.QuoteIdentifier(tt.in); got != tt.want {
				t.Errorf("QuoteIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}
