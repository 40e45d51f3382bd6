// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package models

// WatchStatus is a user's progress on a watchlist entry.
type WatchStatus string

const (
	StatusWantToWatch WatchStatus = "want_to_watch"
	StatusWatching    WatchStatus = "watching"
	StatusWatched     WatchStatus = "watched"
)

// Valid reports whether s is a known status.
func (s WatchStatus) Valid() bool {
	switch s {
	case StatusWantToWatch, StatusWatching, StatusWatched:
		return true
	}
	return false
}

// MinUserRating and MaxUserRating bound WatchlistEntry.UserRating.
const (
	MinUserRating = 0
	MaxUserRating = 10
)

// WatchlistEntry is a user's tracked relationship to one movie.
// MovieID is unique within a watchlist. The display fields are copied from
// the catalog at fetch time and may be stale.
type WatchlistEntry struct {
	ID         int64       `json:"id"`
	MovieID    int64       `json:"movie_id"`
	Status     WatchStatus `json:"status"`
	UserRating *float64    `json:"user_rating"`
	Notes      *string     `json:"notes"`
	DateAdded  Timestamp   `json:"date_added"`

	Title       string     `json:"movie_title"`
	PosterPath  string     `json:"poster_path"`
	Overview    string     `json:"overview"`
	Genres      StringList `json:"genres"`
	ReleaseDate string     `json:"release_date"`
	VoteAverage FlexFloat  `json:"vote_average"`
}

// WatchlistAdd is the create payload for POST /watchlist.
type WatchlistAdd struct {
	MovieID int64       `json:"movie_id" validate:"gt=0"`
	Status  WatchStatus `json:"status" validate:"required,oneof=want_to_watch watching watched"`
	Notes   string      `json:"notes" validate:"max=2000"`
}

// WatchlistUpdate is a partial update for PUT /watchlist/{movieId}.
// Nil fields are left unchanged by the remote service.
type WatchlistUpdate struct {
	Status     *WatchStatus `json:"status,omitempty" validate:"omitempty,oneof=want_to_watch watching watched"`
	UserRating *float64     `json:"user_rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	Notes      *string      `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Empty reports whether the update changes nothing.
func (u WatchlistUpdate) Empty() bool {
	return u.Status == nil && u.UserRating == nil && u.Notes == nil
}

// Apply returns a copy of e with the non-nil fields of u applied.
func (u WatchlistUpdate) Apply(e WatchlistEntry) WatchlistEntry {
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.UserRating != nil {
		r := *u.UserRating
		e.UserRating = &r
	}
	if u.Notes != nil {
		n := *u.Notes
		e.Notes = &n
	}
	return e
}
