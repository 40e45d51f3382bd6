// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package testinfra

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func do(t *testing.T, fs *FakeService, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, fs.URL()+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestFakeService_Auth(t *testing.T) {
	t.Parallel()

	fs := NewFakeService(t)
	if resp := do(t, fs, http.MethodGet, "/watchlist", "", ""); resp.StatusCode != http.StatusForbidden {
		t.Errorf("no token status = %d, want 403", resp.StatusCode)
	}
	if resp := do(t, fs, http.MethodGet, "/watchlist", "wrong", ""); resp.StatusCode != http.StatusForbidden {
		t.Errorf("wrong token status = %d, want 403", resp.StatusCode)
	}
	if resp := do(t, fs, http.MethodGet, "/watchlist", DefaultToken, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", resp.StatusCode)
	}
	if got := fs.Count(http.MethodGet, "/watchlist"); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestFakeService_WatchlistUpsert(t *testing.T) {
	t.Parallel()

	fs := NewFakeService(t)
	for i := 0; i < 2; i++ {
		resp := do(t, fs, http.MethodPost, "/watchlist", DefaultToken, `{"movie_id":42,"status":"watching"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST status = %d, want 201", resp.StatusCode)
		}
	}
	if got := len(fs.Watchlist()); got != 1 {
		t.Errorf("len(Watchlist()) = %d, want 1", got)
	}
	if resp := do(t, fs, http.MethodPut, "/watchlist/42", DefaultToken, `{"user_rating":11}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("PUT bad rating status = %d, want 400", resp.StatusCode)
	}
	if resp := do(t, fs, http.MethodDelete, "/watchlist/7", DefaultToken, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("DELETE missing status = %d, want 404", resp.StatusCode)
	}
}

func TestFakeService_RecommendScriptAndFailNext(t *testing.T) {
	t.Parallel()

	fs := NewFakeService(t)
	fs.QueueRecommend(Generating(), ErrorReply(http.StatusNotFound, "User preferences not found"))
	fs.FailNext(http.MethodGet, "/recommend", http.StatusBadGateway)

	statuses := []int{}
	for i := 0; i < 4; i++ {
		statuses = append(statuses, do(t, fs, http.MethodGet, "/recommend", DefaultToken, "").StatusCode)
	}
	want := []int{http.StatusBadGateway, http.StatusOK, http.StatusNotFound, http.StatusOK}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("statuses = %v, want %v", statuses, want)
			break
		}
	}
}

func TestFakeService_DislikedFollowsFeedback(t *testing.T) {
	t.Parallel()

	fs := NewFakeService(t)
	do(t, fs, http.MethodPost, "/recommendation-feedback", DefaultToken, `{"movie_id":5,"feedback":"bad"}`)

	resp := do(t, fs, http.MethodGet, "/disliked-recommendations", DefaultToken, "")
	var body struct {
		DislikedMovies []struct {
			MovieID int64 `json:"movie_id"`
		} `json:"disliked_movies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(body.DislikedMovies) != 1 || body.DislikedMovies[0].MovieID != 5 {
		t.Errorf("disliked = %+v, want movie 5", body.DislikedMovies)
	}

	do(t, fs, http.MethodPost, "/recommendation-feedback", DefaultToken, `{"movie_id":5,"feedback":"neutral"}`)
	if got := len(fs.Feedback()); got != 2 {
		t.Errorf("len(Feedback()) = %d, want 2", got)
	}
}

func TestFakeService_Gate(t *testing.T) {
	t.Parallel()

	fs := NewFakeService(t)
	release := fs.Gate(http.MethodGet, "/recommend")

	done := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, fs.URL()+"/recommend", nil)
		req.Header.Set("Authorization", "Bearer "+DefaultToken)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	if !fs.WaitForCount(http.MethodGet, "/recommend", 1, 2*time.Second) {
		t.Fatal("request never arrived")
	}
	select {
	case <-done:
		t.Fatal("gated request completed before release")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	if got := <-done; got != http.StatusOK {
		t.Errorf("status = %d, want 200", got)
	}
}

func TestFakeService_HoldNext(t *testing.T) {
	t.Parallel()

	fs := NewFakeService(t)
	fs.FailNext(http.MethodGet, "/watchlist", http.StatusServiceUnavailable, "warming up")
	release := fs.HoldNext(http.MethodGet, "/watchlist")

	held := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, fs.URL()+"/watchlist", nil)
		req.Header.Set("Authorization", "Bearer "+DefaultToken)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			held <- 0
			return
		}
		resp.Body.Close()
		held <- resp.StatusCode
	}()
	if !fs.WaitHeld(http.MethodGet, "/watchlist", 2*time.Second) {
		t.Fatal("request never reached the hold")
	}

	// The second request is neither held nor given the queued failure.
	if resp := do(t, fs, http.MethodGet, "/watchlist", DefaultToken, ""); resp.StatusCode != http.StatusOK {
		t.Errorf("second request status = %d, want 200", resp.StatusCode)
	}
	select {
	case <-held:
		t.Fatal("held request completed before release")
	default:
	}

	release()
	if got := <-held; got != http.StatusServiceUnavailable {
		t.Errorf("held request status = %d, want 503", got)
	}
}
