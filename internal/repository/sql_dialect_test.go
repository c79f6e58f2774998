package repository

import (
	"testing"
)

func TestParseDialect(t *testing.T) {
	cases := map[string]sqlDialect{
		"postgres":   dialectPostgres,
		"PostgreSQL": dialectPostgres,
		"sqlite":     dialectSQLite,
		"":           dialectSQLite,
	}
	for input, want := range cases {
		if got := parseDialect(input); got != want {
			t.Fatalf("parseDialect(%q) want %s got %s", input, want, got)
		}
	}
	if dialectOf(nil) != dialectSQLite {
		t.Fatalf("nil db should default to sqlite")
	}
}

func TestDialectJSONText(t *testing.T) {
	if got := dialectSQLite.jsonText("payout_details", "email"); got != "json_extract(payout_details, '$.\"email\"')" {
		t.Fatalf("unexpected sqlite json expr: %s", got)
	}
	if got := dialectPostgres.jsonText("payout_details", "email"); got != "(payout_details::jsonb ->> 'email')" {
		t.Fatalf("unexpected postgres json expr: %s", got)
	}
}

func TestKeywordMatch(t *testing.T) {
	condition, args := dialectSQLite.keywordMatch("bob", []string{"affiliates.code", " "}, "affiliate_payouts.payout_details", payoutDetailSearchKeys)
	want := "(affiliates.code LIKE ? OR json_extract(affiliate_payouts.payout_details, '$.\"account\"') LIKE ? OR " +
		"json_extract(affiliate_payouts.payout_details, '$.\"email\"') LIKE ? OR " +
		"json_extract(affiliate_payouts.payout_details, '$.\"address\"') LIKE ?)"
	if condition != want {
		t.Fatalf("unexpected condition:\n%s", condition)
	}
	if len(args) != 4 || args[0] != "%bob%" {
		t.Fatalf("unexpected args %v", args)
	}

	condition, args = dialectPostgres.keywordMatch("x", []string{"sub_id"}, "", nil)
	if condition != "(sub_id ILIKE ?)" || len(args) != 1 {
		t.Fatalf("unexpected postgres condition %s %v", condition, args)
	}
}
