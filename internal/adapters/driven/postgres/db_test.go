package postgres

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/documind")
	if cfg.URL != "postgres://localhost/documind" {
		t.Errorf("unexpected URL %s", cfg.URL)
	}
	if cfg.MaxOpenConns <= cfg.MaxIdleConns {
		t.Errorf("expected more open than idle conns, got %d/%d", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
}

func TestSchema_CoreTables(t *testing.T) {
	for _, table := range []string{"chat_sessions", "messages", "document_hashes", "documents"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("expected schema to create %s", table)
		}
	}
}

func TestVectorSchema_Dimensions(t *testing.T) {
	ddl := VectorSchema(384)
	if !strings.Contains(ddl, "vector(384)") {
		t.Error("expected dimension to be substituted")
	}
	if strings.Contains(ddl, "{{dimensions}}") {
		t.Error("expected no placeholder left")
	}
	if !strings.Contains(ddl, "CREATE EXTENSION IF NOT EXISTS vector") {
		t.Error("expected pgvector extension")
	}
}

func TestLockKey_Stable(t *testing.T) {
	if lockKey("ingest:a") != lockKey("ingest:a") {
		t.Error("expected stable key")
	}
	if lockKey("ingest:a") == lockKey("ingest:b") {
		t.Error("expected distinct keys")
	}
}
