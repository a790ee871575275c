package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(mw func(http.Handler) http.Handler, header, value string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAdmin_AllowsAdminKey_BlocksReadKey(t *testing.T) {
	keys := Keys{Read: []string{"read_key"}, Admin: []string{"adm_key"}}

	if code := serve(RequireAdmin(keys), "X-API-Key", "adm_key"); code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "Authorization", "Bearer adm_key"); code != http.StatusOK {
		t.Fatalf("bearer admin key should pass; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "X-API-Key", "read_key"); code != http.StatusForbidden {
		t.Fatalf("read key should be forbidden; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "", ""); code != http.StatusUnauthorized {
		t.Fatalf("missing key should be 401; got %d", code)
	}
}

func TestRequireAdmin_ClosedWithoutKeys(t *testing.T) {
	if code := serve(RequireAdmin(Keys{}), "X-API-Key", "anything"); code != http.StatusForbidden {
		t.Fatalf("no admin keys configured must not allow pages; got %d", code)
	}
}

func TestRequireAny(t *testing.T) {
	keys := Keys{Read: []string{"read_key"}, Admin: []string{"adm_key"}}
	if code := serve(RequireAny(keys), "X-API-Key", "read_key"); code != http.StatusOK {
		t.Fatalf("read key should pass; got %d", code)
	}
	if code := serve(RequireAny(keys), "X-API-Key", "adm_key"); code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", code)
	}
	if code := serve(RequireAny(keys), "X-API-Key", "nope"); code != http.StatusUnauthorized {
		t.Fatalf("unknown key should be 401; got %d", code)
	}
	if code := serve(RequireAny(Keys{}), "", ""); code != http.StatusOK {
		t.Fatalf("no keys configured should allow reads; got %d", code)
	}
}
