package models

import (
	"fmt"
	"testing"
	"time"
)

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDB(DBOptions{Driver: "oracle"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestWithSQLiteBusyTimeout(t *testing.T) {
	cases := map[string]string{
		"affiliate.db":                 "affiliate.db?" + sqliteBusyPragma,
		"file:x?mode=memory":           "file:x?mode=memory&" + sqliteBusyPragma,
		"a.db?_pragma=busy_timeout(1)": "a.db?_pragma=busy_timeout(1)",
	}
	for input, want := range cases {
		if got := withSQLiteBusyTimeout(input); got != want {
			t.Fatalf("withSQLiteBusyTimeout(%q) want %q got %q", input, want, got)
		}
	}
}

func TestEnsureDefaultAdminIsIdempotent(t *testing.T) {
	dsn := fmt.Sprintf("file:models_admin_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := OpenDB(DBOptions{Driver: "sqlite", DSN: dsn, LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open db failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	created, err := EnsureDefaultAdmin(db, " ops ", "s3cret-pass")
	if err != nil || !created {
		t.Fatalf("expected admin created, got created=%v err=%v", created, err)
	}
	created, err = EnsureDefaultAdmin(db, "other", "")
	if err != nil || created {
		t.Fatalf("expected second call to be a no-op, got created=%v err=%v", created, err)
	}

	var admin Admin
	if err := db.Where("username = ?", "ops").Take(&admin).Error; err != nil {
		t.Fatalf("load admin failed: %v", err)
	}
	if !admin.IsSuper {
		t.Fatalf("default admin must be super admin")
	}
}
