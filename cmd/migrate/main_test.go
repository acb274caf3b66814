package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrator_Names(t *testing.T) {
	m := &migrator{dir: filepath.Join("..", "..", "migrations")}

	names, err := m.names(".up.sql")
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	want := []string{"001_create_users", "002_create_contact_messages"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestUpMigrations_KeepExistingData(t *testing.T) {
	dir := filepath.Join("..", "..", "migrations")
	for _, name := range []string{"001_create_users", "002_create_contact_messages"} {
		b, err := os.ReadFile(filepath.Join(dir, name+".up.sql"))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		sql := strings.ToUpper(string(b))
		if strings.Contains(sql, "DROP TABLE") {
			t.Errorf("%s: up migration must not drop tables", name)
		}
		if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("%s: expected CREATE TABLE IF NOT EXISTS", name)
		}
	}
}
