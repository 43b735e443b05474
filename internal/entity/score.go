package entity

import "time"

// ScoreEntry is one row of the leaderboard snapshot.
type ScoreEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// ScoreDelta is one append-only entry of a player's score history.
type ScoreDelta struct {
	Timestamp time.Time `json:"timestamp"`
	Points    int       `json:"points"`
}

// Credential is a username/password-hash pair held by the credential
// store. The plain password never leaves the auth service.
type Credential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
