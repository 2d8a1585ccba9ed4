// Package sheetfake is an in-memory remote data service speaking the same
// routes as the real one. It backs the client, engine and CLI tests.
package sheetfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PrimaryRange names the appends made without a range parameter.
const PrimaryRange = ""

// Append is one recorded POST to the entry route.
type Append struct {
	FormID string
	Range  string
	Rows   [][]any
}

type failure struct {
	status  int
	message string
}

// Service holds schemas, option sheets, indexed records and every append.
type Service struct {
	mu       sync.Mutex
	schemas  map[string][]byte
	sheets   map[string]map[string][]map[string]any
	records  map[string]map[string]map[string]any
	appends  []Append
	failures map[string]failure
	hits     map[string]int

	router chi.Router
}

func New() *Service {
	s := &Service{
		schemas:  make(map[string][]byte),
		sheets:   make(map[string]map[string][]map[string]any),
		records:  make(map[string]map[string]map[string]any),
		failures: make(map[string]failure),
		hits:     make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countHits)
	r.Use(s.injectFailures)
	r.Get("/api/{id}/schema", s.getSchema)
	r.Get("/api/{id}/sheet/{range}", s.getSheet)
	r.Get("/api/{id}/current", s.getCurrent)
	r.Post("/api/{id}/entry", s.postEntry)
	s.router = r
	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves the fake on a local listener; close the server when done.
func (s *Service) Start() *httptest.Server {
	return httptest.NewServer(s)
}

// SetSchema stores the schema document returned for id.
func (s *Service) SetSchema(id string, doc []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[id] = append([]byte(nil), doc...)
}

// AddSheetRows appends rows to the option sheet at rng. The "value" column
// is what the options route returns; the other columns filter it.
func (s *Service) AddSheetRows(id, rng string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSheetRowsLocked(id, rng, rows...)
}

func (s *Service) addSheetRowsLocked(id, rng string, rows ...map[string]any) {
	if s.sheets[id] == nil {
		s.sheets[id] = make(map[string][]map[string]any)
	}
	s.sheets[id][rng] = append(s.sheets[id][rng], rows...)
}

// SetRecord stores the row returned for index.
func (s *Service) SetRecord(id, index string, row map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[id] == nil {
		s.records[id] = make(map[string]map[string]any)
	}
	s.records[id][index] = row
}

// Fail makes requests whose path equals path answer status with message.
func (s *Service) Fail(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, message: message}
}

// Appends returns a copy of every recorded append.
func (s *Service) Appends() []Append {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Append, len(s.appends))
	copy(out, s.appends)
	return out
}

// Hits returns how many requests reached path.
func (s *Service) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Service) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Service) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.URL.Path]
		s.mu.Unlock()
		if ok {
			writeJSON(w, f.status, map[string]string{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) getSchema(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	doc, ok := s.schemas[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": fmt.Sprintf("form %s not found", id)})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Service) getSheet(w http.ResponseWriter, r *http.Request) {
	id, rng := chi.URLParam(r, "id"), pathParam(r, "range")
	query := r.URL.Query()

	s.mu.Lock()
	rows := s.sheets[id][rng]
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		if matches(row, query) {
			values = append(values, row["value"])
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, values)
}

func (s *Service) getCurrent(w http.ResponseWriter, r *http.Request) {
	id, index := chi.URLParam(r, "id"), r.URL.Query().Get("index")

	s.mu.Lock()
	row, ok := s.records[id][index]
	s.mu.Unlock()

	rows := []map[string]any{}
	if ok {
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{"current": map[string]any{"rows": rows}})
}

func (s *Service) postEntry(w http.ResponseWriter, r *http.Request) {
	id, rng := chi.URLParam(r, "id"), r.URL.Query().Get("range")

	var rows [][]any
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "body must be an array of rows"})
		return
	}

	s.mu.Lock()
	s.appends = append(s.appends, Append{FormID: id, Range: rng, Rows: rows})
	if rng != PrimaryRange {
		for _, row := range rows {
			for _, v := range row {
				s.addSheetRowsLocked(id, rng, map[string]any{"value": v})
			}
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"updatedRows": len(rows)})
}

// pathParam unescapes a route parameter; chi matches on the raw path when
// the request carries escaped characters.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func matches(row map[string]any, query map[string][]string) bool {
	for k, vs := range query {
		if len(vs) == 0 {
			continue
		}
		if fmt.Sprint(row[k]) != vs[0] {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
