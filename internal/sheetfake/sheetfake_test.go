package sheetfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, s *Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestSheetFiltersByQuery(t *testing.T) {
	s := New()
	s.AddSheetRows("intake", "docks", map[string]any{"value": "D1", "site": "north"}, map[string]any{"value": "D2", "site": "south"})

	rec := do(t, s, http.MethodGet, "/api/intake/sheet/docks?site=north", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []any{"D1"}, got)

	rec = do(t, s, http.MethodGet, "/api/intake/sheet/docks", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []any{"D1", "D2"}, got)
}

func TestEntryRecordsAppendsAndFeedsRanges(t *testing.T) {
	s := New()

	rec := do(t, s, http.MethodPost, "/api/intake/entry?range=crates", `[["C9"]]`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/intake/entry", `[["2026-10-14T09:00:00.000Z", 3]]`)
	require.Equal(t, http.StatusOK, rec.Code)

	appends := s.Appends()
	require.Len(t, appends, 2)
	assert.Equal(t, "crates", appends[0].Range)
	assert.Equal(t, PrimaryRange, appends[1].Range)
	assert.Equal(t, [][]any{{"2026-10-14T09:00:00.000Z", float64(3)}}, appends[1].Rows)

	rec = do(t, s, http.MethodGet, "/api/intake/sheet/crates", "")
	assert.JSONEq(t, `["C9"]`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/intake/entry", `{"not":"rows"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCurrentAndSchema(t *testing.T) {
	s := New()
	s.SetSchema("intake", []byte(`{"columns":[]}`))
	s.SetRecord("intake", "north--D1", map[string]any{"count": 4})

	rec := do(t, s, http.MethodGet, "/api/intake/schema", "")
	assert.JSONEq(t, `{"columns":[]}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/intake/current?index=north--D1", "")
	assert.JSONEq(t, `{"current":{"rows":[{"count":4}]}}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/intake/current?index=missing", "")
	assert.JSONEq(t, `{"current":{"rows":[]}}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/other/schema", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, s.Hits("/api/other/schema"))
}

func TestFailInjection(t *testing.T) {
	s := New()
	s.SetSchema("intake", []byte(`{"columns":[]}`))
	s.Fail("/api/intake/schema", http.StatusBadGateway, "sheet offline")

	rec := do(t, s, http.MethodGet, "/api/intake/schema", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"message":"sheet offline"}`, rec.Body.String())
}
