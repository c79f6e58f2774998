package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMatchLocale(t *testing.T) {
	cases := map[string]string{
		"":                      LocaleEnUS,
		"zh-CN,zh;q=0.9":        LocaleZhCN,
		"zh":                    LocaleZhCN,
		"en-GB,en;q=0.8":        LocaleEnUS,
		"fr-FR":                 LocaleEnUS,
		"not a language header": LocaleEnUS,
	}
	for raw, want := range cases {
		if got := MatchLocale(raw); got != want {
			t.Fatalf("MatchLocale(%q) want %s got %s", raw, want, got)
		}
	}
}

func TestResolveLocalePrefersQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?lang=zh-CN", nil)
	c.Request.Header.Set("Accept-Language", "en-US")
	if got := ResolveLocale(c); got != LocaleZhCN {
		t.Fatalf("want zh-CN got %s", got)
	}
}

func TestTFallbacks(t *testing.T) {
	if got := T(LocaleZhCN, "error.not_found"); got != "资源不存在" {
		t.Fatalf("unexpected zh message: %s", got)
	}
	if got := T("ja-JP", "error.not_found"); got != "Resource not found" {
		t.Fatalf("unknown locale should fall back to default, got %s", got)
	}
	if got := T(LocaleEnUS, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("missing key should fall back to key, got %s", got)
	}
	if got := Sprintf(LocaleEnUS, "error.affiliate_link_limit", "10"); got != "Maximum of 10 active links reached" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}

func TestCataloguesHaveSameKeys(t *testing.T) {
	for key := range catalogues[LocaleEnUS] {
		if _, ok := catalogues[LocaleZhCN][key]; !ok {
			t.Fatalf("zh-CN catalogue missing key %s", key)
		}
	}
}
