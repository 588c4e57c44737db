package mocks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// FakeStore is an in-memory stand-in for the hosted CRUD store. It assigns ids the
// way the hosted store does (strings, increasing) and answers immediately, so a
// create is visible to the next list.
type FakeStore struct {
	mu       sync.Mutex
	records  []map[string]any
	nextID   int
	failCode int
	failBody string
	requests []string

	Server *httptest.Server
}

// NewFakeStore starts a FakeStore. The collection lives at URL().
func NewFakeStore() *FakeStore {
	fs := &FakeStore{nextID: 1}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	return fs
}

// URL returns the collection endpoint.
func (fs *FakeStore) URL() string {
	return fs.Server.URL + "/carstatus"
}

// Close shuts the server down. Requests made afterwards fail with a network error.
func (fs *FakeStore) Close() {
	fs.Server.Close()
}

// SetNextID sets the id the next created record receives.
func (fs *FakeStore) SetNextID(id int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nextID = id
}

// FailWith makes every following request answer with code and body. A zero code
// restores normal behaviour.
func (fs *FakeStore) FailWith(code int, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failCode = code
	fs.failBody = body
}

// Seed appends raw records in the given order, ids included.
func (fs *FakeStore) Seed(records ...map[string]any) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.records = append(fs.records, records...)
}

// Requests returns "METHOD path" for every request received.
func (fs *FakeStore) Requests() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]string, len(fs.requests))
	copy(out, fs.requests)
	return out
}

// Records returns a copy of the stored records.
func (fs *FakeStore) Records() []map[string]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]map[string]any, len(fs.records))
	copy(out, fs.records)
	return out
}

func (fs *FakeStore) serve(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.requests = append(fs.requests, r.Method+" "+r.URL.Path)

	if fs.failCode != 0 {
		w.WriteHeader(fs.failCode)
		_, _ = io.WriteString(w, fs.failBody)
		return
	}

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/carstatus"), "/")

	switch {
	case id == "" && r.Method == http.MethodPost:
		var record map[string]any
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			http.Error(w, `"invalid body"`, http.StatusBadRequest)
			return
		}
		record["id"] = strconv.Itoa(fs.nextID)
		fs.nextID++
		fs.records = append(fs.records, record)
		writeFakeJSON(w, http.StatusCreated, record)

	case id == "" && r.Method == http.MethodGet:
		writeFakeJSON(w, http.StatusOK, fs.records)

	case id != "":
		idx := fs.indexOf(id)
		if idx < 0 {
			writeFakeJSON(w, http.StatusNotFound, "Not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeFakeJSON(w, http.StatusOK, fs.records[idx])
		case http.MethodPut:
			var record map[string]any
			if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
				http.Error(w, `"invalid body"`, http.StatusBadRequest)
				return
			}
			record["id"] = id
			fs.records[idx] = record
			writeFakeJSON(w, http.StatusOK, record)
		case http.MethodDelete:
			deleted := fs.records[idx]
			fs.records = append(fs.records[:idx], fs.records[idx+1:]...)
			writeFakeJSON(w, http.StatusOK, deleted)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fs *FakeStore) indexOf(id string) int {
	for i, record := range fs.records {
		if v, ok := record["id"]; ok && toString(v) == id {
			return i
		}
	}
	return -1
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
