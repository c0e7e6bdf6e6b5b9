package testutil

import (
	"testing"
)

func TestStubRoundTrip(t *testing.T) {
	db, conn := NewStubDB()
	defer func() { _ = db.Close() }()
	if _, err := db.Exec(`INSERT INTO catalogs(name,payload) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload`, "a", []byte("1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO catalogs(name,payload) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload`, "a", []byte("2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	var payload []byte
	if err := db.QueryRow(`SELECT payload FROM catalogs`).Scan(&payload); err != nil || string(payload) != "2" {
		t.Fatalf("select = %q, %v", payload, err)
	}
	res, err := db.Exec(`DELETE FROM catalogs WHERE name = $1`, "a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 || len(conn.Tables["catalogs"]) != 0 {
		t.Fatalf("delete affected %d rows", n)
	}
	if len(conn.Execs) != 3 {
		t.Fatalf("expected 3 recorded statements, got %d", len(conn.Execs))
	}
}

func TestStubParsersRejectGarbage(t *testing.T) {
	if _, _, err := parseInsert("INSERT INTO catalogs VALUES"); err == nil {
		t.Fatalf("expected insert parse error")
	}
	if _, _, err := parseDelete("DELETE FROM catalogs"); err == nil {
		t.Fatalf("expected delete parse error")
	}
	if _, _, err := parseSelect("UPDATE catalogs"); err == nil {
		t.Fatalf("expected select parse error")
	}
}
