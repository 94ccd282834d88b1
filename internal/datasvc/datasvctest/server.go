// Package datasvctest provides an in-memory data service that speaks the
// same REST dialect as the real one, for tests.
package datasvctest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one stored entity as JSON fields.
type Record = map[string]any

// Server is an in-memory users/companies store served over HTTP.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     []Record
	companies []Record
	nextID    int
	calls     map[string]int
	faults    map[string]int
	requests  []*http.Request
}

// Fixture returns the seed data used by most tests: two companies, three
// users with a company and one without.
func Fixture() (users, companies []Record) {
	companies = []Record{
		{"id": "1", "name": "Apple", "description": "iphone"},
		{"id": "2", "name": "Google", "description": "search"},
	}
	users = []Record{
		{"id": "23", "firstName": "Bill", "age": 20, "companyId": "1"},
		{"id": "40", "firstName": "Alex", "age": 40, "companyId": "2"},
		{"id": "41", "firstName": "Nick", "age": 40, "companyId": "1"},
		{"id": "44", "firstName": "Loner", "age": 30},
	}
	return users, companies
}

// NewServer starts a server seeded with users and companies. Close it when done.
func NewServer(users, companies []Record) *Server {
	s := &Server{
		calls:  map[string]int{},
		faults: map[string]int{},
		nextID: 100,
	}
	for _, u := range users {
		s.users = append(s.users, clone(u))
	}
	for _, c := range companies {
		s.companies = append(s.companies, clone(c))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}", s.getUser)
	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("PATCH /users/{id}", s.patchUser)
	mux.HandleFunc("DELETE /users/{id}", s.deleteUser)
	mux.HandleFunc("GET /companies/{id}", s.getCompany)
	mux.HandleFunc("GET /companies/{id}/users", s.companyUsers)
	s.Server = httptest.NewServer(s.count(mux))
	return s
}

// Fail makes every later "METHOD /path" request answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = status
}

// Calls returns how many times "METHOD /path" was requested.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Requests returns the received requests in arrival order.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// User returns a copy of the stored user.
func (s *Server) User(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := find(s.users, id)
	if i < 0 {
		return nil, false
	}
	return clone(s.users[i]), true
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		s.requests = append(s.requests, r.Clone(r.Context()))
		status, fail := s.faults[key]
		s.mu.Unlock()
		if fail {
			writeJSON(w, status, Record{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeRecord(w, s.users, r.PathValue("id"))
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeRecord(w, s.companies, r.PathValue("id"))
}

func (s *Server) companyUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if find(s.companies, id) < 0 {
		writeJSON(w, http.StatusNotFound, Record{})
		return
	}
	out := []Record{}
	for _, u := range s.users {
		if cid, ok := u["companyId"]; ok && idString(cid) == id {
			out = append(out, u)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := body["id"]; !ok {
		body["id"] = strconv.Itoa(s.nextID)
		s.nextID++
	}
	s.users = append(s.users, body)
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) patchUser(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := find(s.users, r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, Record{})
		return
	}
	for k, v := range body {
		if k != "id" {
			s.users[i][k] = v
		}
	}
	writeJSON(w, http.StatusOK, s.users[i])
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := find(s.users, r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, Record{})
		return
	}
	deleted := s.users[i]
	s.users = append(s.users[:i:i], s.users[i+1:]...)
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) writeRecord(w http.ResponseWriter, records []Record, id string) {
	i := find(records, id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, Record{})
		return
	}
	writeJSON(w, http.StatusOK, records[i])
}

func readBody(w http.ResponseWriter, r *http.Request) (Record, bool) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Record{"error": err.Error()})
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil || rec == nil {
		writeJSON(w, http.StatusBadRequest, Record{"error": "body must be a JSON object"})
		return nil, false
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func find(records []Record, id string) int {
	for i, r := range records {
		if idString(r["id"]) == id {
			return i
		}
	}
	return -1
}

func idString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	}
	return ""
}

func clone(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
