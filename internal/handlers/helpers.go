// Package handlers holds the JSON controllers. They decode input, call one
// service operation and map the result with httpx.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/i18n"
	"github.com/diewo77/go-lawfirm/internal/store"
)

// maxJSONBody bounds request bodies that are not file uploads.
const maxJSONBody = 1 << 20

// decode reads a JSON body into dst and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return false
	}
	return true
}

func lang(r *http.Request) string { return i18n.LangFrom(r.Context()) }

// staff returns the principal of the staff session. Routes are registered
// behind auth.RequireAuth, so it is always present there.
func staff(r *http.Request) auth.Principal {
	p, _ := auth.UserFromContext(r.Context())
	return p
}

func portalClient(r *http.Request) auth.Principal {
	p, _ := auth.ClientFromContext(r.Context())
	return p
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(r *http.Request, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	return nil, false
}

func invalidQuery(w http.ResponseWriter, field string) {
	httpx.JSONError(w, http.StatusBadRequest, "invalid_query", map[string]string{field: "invalid"})
}

func noContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// pageParams reads page and limit with the same bounds the store applies.
func pageParams(r *http.Request) (page, limit int) {
	page, limit = max(queryInt(r, "page"), 1), queryInt(r, "limit")
	if limit <= 0 {
		limit = store.DefaultLimit
	}
	return page, min(limit, store.MaxLimit)
}
