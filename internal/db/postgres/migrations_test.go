package postgres

import (
	"strings"
	"testing"
)

func TestMigrationsOrdered(t *testing.T) {
	prev := 0
	for _, m := range migrations {
		if m.version != prev+1 {
			t.Fatalf("migration %s has version %d, want %d", m.name, m.version, prev+1)
		}
		if strings.TrimSpace(m.sql) == "" {
			t.Fatalf("migration %d is empty", m.version)
		}
		prev = m.version
	}
}
