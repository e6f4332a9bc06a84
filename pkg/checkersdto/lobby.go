package checkersdto

import "time"

// LobbyInfo is a waiting lobby as shown in listings.
type LobbyInfo struct {
	Code        string
	CreatorName string
	Side        string
	CreatedAt   time.Time
}

// ChallengeInfo describes an invitation between two users.
type ChallengeInfo struct {
	ChallengerName string
	TargetName     string
	ExpiresIn      time.Duration
}
