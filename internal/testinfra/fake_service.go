// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package testinfra

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelsync/internal/models"
)

// DefaultToken is the credential FakeService accepts unless Token is changed.
const DefaultToken = "test-token"

// Capture represents a captured request.
type Capture struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// Decode unmarshals the captured body into v.
func (c Capture) Decode(v interface{}) error {
	return json.Unmarshal(c.Body, v)
}

// RecommendReply is one scripted GET /recommend answer.
type RecommendReply struct {
	Status int
	Body   interface{}
}

// Generating is a 200 "still computing" reply carrying interim movies.
func Generating(interim ...models.RecommendedMovie) RecommendReply {
	if interim == nil {
		interim = []models.RecommendedMovie{}
	}
	return RecommendReply{Status: http.StatusOK, Body: map[string]interface{}{
		"recommended_movies": interim,
		"status":             models.ServerStatusGenerating,
	}}
}

// Ready is a 200 reply with a complete result set.
func Ready(movies ...models.RecommendedMovie) RecommendReply {
	if movies == nil {
		movies = []models.RecommendedMovie{}
	}
	return RecommendReply{Status: http.StatusOK, Body: map[string]interface{}{
		"recommended_movies": movies,
	}}
}

// Fallback is a 200 reply using the legacy recommend_movies key.
func Fallback(movies ...models.RecommendedMovie) RecommendReply {
	return RecommendReply{Status: http.StatusOK, Body: map[string]interface{}{
		"recommend_movies": movies,
		"status":           "fallback",
	}}
}

// ErrorReply is a non-2xx reply with {"error": message}.
func ErrorReply(status int, message string) RecommendReply {
	return RecommendReply{Status: status, Body: map[string]string{"error": message}}
}

type injected struct {
	status  int
	message string
}

// FakeService is an in-memory remote movie service.
type FakeService struct {
	Server *httptest.Server
	// Token is the accepted bearer credential.
	Token string

	mu        sync.Mutex
	captures  []Capture
	watchlist []models.WatchlistEntry
	nextID    int64
	recommend []RecommendReply
	feedback  []models.FeedbackPayload
	disliked  map[int64]models.DislikedMovie
	failures  map[string][]injected
	gates     map[string]chan struct{}
	holds     map[string][]chan struct{}
	now       func() time.Time
}

// NewFakeService starts a fake service that is shut down with the test.
func NewFakeService(t testing.TB) *FakeService {
	t.Helper()

	fs := &FakeService{
		Token:    DefaultToken,
		nextID:   1,
		disliked: map[int64]models.DislikedMovie{},
		failures: map[string][]injected{},
		gates:    map[string]chan struct{}{},
		holds:    map[string][]chan struct{}{},
		now:      time.Now,
	}

	r := chi.NewRouter()
	r.Use(fs.capture, fs.inject, fs.auth)
	r.Get("/watchlist", fs.listWatchlist)
	r.Post("/watchlist", fs.addWatchlist)
	r.Put("/watchlist/{movieID}", fs.updateWatchlist)
	r.Delete("/watchlist/{movieID}", fs.deleteWatchlist)
	r.Get("/recommend", fs.getRecommend)
	r.Post("/refresh-recommendations", fs.refreshRecommendations)
	r.Post("/recommendation-feedback", fs.submitFeedback)
	r.Get("/disliked-recommendations", fs.listDisliked)

	fs.Server = httptest.NewServer(r)
	t.Cleanup(fs.Close)
	return fs
}

// URL returns the server URL.
func (fs *FakeService) URL() string {
	return fs.Server.URL
}

// Close releases any gates and shuts down the server.
func (fs *FakeService) Close() {
	fs.mu.Lock()
	for key, gate := range fs.gates {
		close(gate)
		delete(fs.gates, key)
	}
	fs.mu.Unlock()
	fs.Server.Close()
}

// Captures returns all captured requests.
func (fs *FakeService) Captures() []Capture {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]Capture, len(fs.captures))
	copy(out, fs.captures)
	return out
}

// Count returns how many requests hit method and path.
func (fs *FakeService) Count(method, path string) int {
	n := 0
	for _, c := range fs.Captures() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// CapturesFor returns the captured requests for method and path.
func (fs *FakeService) CapturesFor(method, path string) []Capture {
	var out []Capture
	for _, c := range fs.Captures() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// SeedWatchlist replaces the server-side watchlist.
func (fs *FakeService) SeedWatchlist(entries ...models.WatchlistEntry) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.watchlist = append([]models.WatchlistEntry(nil), entries...)
	for _, e := range entries {
		if e.ID >= fs.nextID {
			fs.nextID = e.ID + 1
		}
	}
}

// Watchlist returns the server-side watchlist.
func (fs *FakeService) Watchlist() []models.WatchlistEntry {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]models.WatchlistEntry(nil), fs.watchlist...)
}

// QueueRecommend appends scripted /recommend replies. When the queue is
// empty the service answers with an empty ready set.
func (fs *FakeService) QueueRecommend(replies ...RecommendReply) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.recommend = append(fs.recommend, replies...)
}

// Feedback returns every accepted feedback payload.
func (fs *FakeService) Feedback() []models.FeedbackPayload {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]models.FeedbackPayload(nil), fs.feedback...)
}

// FailNext makes the next request to method and path answer status with
// {"error": message}.
func (fs *FakeService) FailNext(method, path string, status int, message ...string) {
	msg := http.StatusText(status)
	if len(message) > 0 {
		msg = message[0]
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	key := method + " " + path
	fs.failures[key] = append(fs.failures[key], injected{status: status, message: msg})
}

// Gate holds requests to method and path until release is called.
func (fs *FakeService) Gate(method, path string) (release func()) {
	gate := make(chan struct{})
	key := method + " " + path
	fs.mu.Lock()
	fs.gates[key] = gate
	fs.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			fs.mu.Lock()
			if fs.gates[key] == gate {
				delete(fs.gates, key)
				close(gate)
			}
			fs.mu.Unlock()
		})
	}
}

// HoldNext holds only the next request to method and path, after it has
// claimed any failure queued by FailNext. Later requests pass straight through.
func (fs *FakeService) HoldNext(method, path string) (release func()) {
	hold := make(chan struct{})
	key := method + " " + path
	fs.mu.Lock()
	fs.holds[key] = append(fs.holds[key], hold)
	fs.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(hold) }) }
}

// WaitHeld waits until every hold registered for method and path has been
// claimed by a request.
func (fs *FakeService) WaitHeld(method, path string, timeout time.Duration) bool {
	key := method + " " + path
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		fs.mu.Lock()
		pending := len(fs.holds[key])
		fs.mu.Unlock()
		if pending == 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// WaitForCount waits until at least n requests hit method and path.
func (fs *FakeService) WaitForCount(method, path string, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fs.Count(method, path) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func (fs *FakeService) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		fs.mu.Lock()
		fs.captures = append(fs.captures, Capture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		gate := fs.gates[r.Method+" "+r.URL.Path]
		fs.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (fs *FakeService) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		fs.mu.Lock()
		queue := fs.failures[key]
		var fail *injected
		if len(queue) > 0 {
			fail = &queue[0]
			fs.failures[key] = queue[1:]
		}
		var hold chan struct{}
		if h := fs.holds[key]; len(h) > 0 {
			hold = h[0]
			fs.holds[key] = h[1:]
		}
		fs.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			writeJSON(w, fail.status, map[string]string{"error": fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fs *FakeService) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Token is missing!"})
			return
		}
		fs.mu.Lock()
		want := "Bearer " + fs.Token
		fs.mu.Unlock()
		if header != want {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Token is invalid!"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fs *FakeService) listWatchlist(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"watchlist": fs.Watchlist()})
}

func (fs *FakeService) addWatchlist(w http.ResponseWriter, r *http.Request) {
	var req models.WatchlistAdd
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MovieID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Movie ID is required"})
		return
	}
	if req.Status == "" {
		req.Status = models.StatusWantToWatch
	}
	if !req.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid status"})
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	var notes *string
	if req.Notes != "" {
		n := req.Notes
		notes = &n
	}
	for i, e := range fs.watchlist {
		if e.MovieID == req.MovieID {
			fs.watchlist[i].Status = req.Status
			fs.watchlist[i].Notes = notes
			writeJSON(w, http.StatusCreated, map[string]string{"success": "Movie updated in watchlist"})
			return
		}
	}
	fs.watchlist = append(fs.watchlist, models.WatchlistEntry{
		ID:        fs.nextID,
		MovieID:   req.MovieID,
		Status:    req.Status,
		Notes:     notes,
		DateAdded: models.Timestamp{Time: fs.now().UTC().Truncate(time.Second)},
		Title:     "Movie " + strconv.FormatInt(req.MovieID, 10),
	})
	fs.nextID++
	writeJSON(w, http.StatusCreated, map[string]string{"success": "Movie added to watchlist"})
}

func (fs *FakeService) updateWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	var update models.WatchlistUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.Empty() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No valid fields to update"})
		return
	}
	if update.UserRating != nil && (*update.UserRating < models.MinUserRating || *update.UserRating > models.MaxUserRating) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Rating must be between 0 and 10"})
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i, e := range fs.watchlist {
		if e.MovieID == movieID {
			fs.watchlist[i] = update.Apply(e)
			writeJSON(w, http.StatusOK, map[string]string{"success": "Watchlist updated"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Movie not found in watchlist"})
}

func (fs *FakeService) deleteWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i, e := range fs.watchlist {
		if e.MovieID == movieID {
			fs.watchlist = append(fs.watchlist[:i], fs.watchlist[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"success": "Movie removed from watchlist"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Movie not found in watchlist"})
}

func (fs *FakeService) getRecommend(w http.ResponseWriter, _ *http.Request) {
	fs.mu.Lock()
	reply := Ready()
	if len(fs.recommend) > 0 {
		reply = fs.recommend[0]
		fs.recommend = fs.recommend[1:]
	}
	fs.mu.Unlock()
	writeJSON(w, reply.Status, reply.Body)
}

func (fs *FakeService) refreshRecommendations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Recommendations cache cleared"})
}

func (fs *FakeService) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var payload models.FeedbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || !payload.Feedback.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid feedback"})
		return
	}
	if payload.Rating != nil && (*payload.Rating < models.MinFeedbackRating || *payload.Rating > models.MaxFeedbackRating) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Rating must be between 1 and 10"})
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.feedback = append(fs.feedback, payload)
	if payload.MovieID != nil && !payload.Overall {
		id := *payload.MovieID
		switch payload.Feedback {
		case models.SentimentBad:
			fs.disliked[id] = models.DislikedMovie{
				MovieID:      id,
				Title:        "Movie " + strconv.FormatInt(id, 10),
				FeedbackDate: models.Timestamp{Time: fs.now().UTC().Truncate(time.Second)},
				Genres:       models.StringList{},
			}
		default:
			delete(fs.disliked, id)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"success": "Feedback recorded"})
}

func (fs *FakeService) listDisliked(w http.ResponseWriter, _ *http.Request) {
	fs.mu.Lock()
	out := make([]models.DislikedMovie, 0, len(fs.disliked))
	for _, d := range fs.disliked {
		out = append(out, d)
	}
	fs.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"disliked_movies": out})
}

func movieIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "movieID")), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid movie ID"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
