package server

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.DBPath != "tidechest.db" {
		t.Fatalf("expected default db path tidechest.db, got %q", cfg.DBPath)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TIDECHEST_PORT", "9000")
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9001", "-db", "other.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9001 {
		t.Fatalf("expected flag port 9001, got %d", cfg.Port)
	}
	if cfg.DBPath != "other.db" {
		t.Fatalf("expected flag db other.db, got %q", cfg.DBPath)
	}
}
