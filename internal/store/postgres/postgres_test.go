package postgres

import "testing"

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@db:5432/foyer?sslmode=disable", "pgx5://u:p@db:5432/foyer?sslmode=disable"},
		{"postgresql://u:p@db/foyer", "pgx5://u:p@db/foyer"},
		{"pgx5://u:p@db/foyer", "pgx5://u:p@db/foyer"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.dsn); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}
