// Package handlers implements the HTTP handlers of the REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/api/response"
	"github.com/ramonehamilton/bulkbuddy/internal/auth"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst. An empty body leaves dst
// unchanged. It writes a 400 and returns false on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// currentUser returns the authenticated user. Routes behind the auth
// middleware always have one.
func currentUser(r *http.Request) string {
	userID, _ := auth.UserID(r.Context())
	return userID
}

// writeError maps err to a response and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if status := response.StatusOf(err); status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	response.FromError(w, err)
}

// parseCardFilter reads catalog filters from the query string:
// name, type_line, rarity, set, colors (comma separated), match=any,
// colorless=true, page and limit.
func parseCardFilter(r *http.Request) models.CardFilter {
	q := r.URL.Query()
	filter := models.CardFilter{
		Name:      q.Get("name"),
		TypeLine:  q.Get("type_line"),
		Rarity:    strings.ToLower(q.Get("rarity")),
		SetCode:   strings.ToLower(q.Get("set")),
		MatchAny:  strings.EqualFold(q.Get("match"), "any"),
		Colorless: q.Get("colorless") == "true",
		Page:      queryInt(r, "page", 0),
		Limit:     queryInt(r, "limit", 0),
	}
	if colors := q.Get("colors"); colors != "" {
		filter.Colors = strings.Split(colors, ",")
	}
	return filter
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	return nil, false
}
