package domain

import "time"

// CheckersGame is the archived record of a finished PvP game.
type CheckersGame struct {
	GameID       string
	WhiteID      string
	WhiteName    string
	BlackID      string
	BlackName    string
	OriginRoom   string
	ResolveRoom  string
	Result       string // "white", "black"
	ResultMethod string // "capture", "resignation"
	Moves        []string
	PDN          string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// PlayerRecord aggregates a user's archived results.
type PlayerRecord struct {
	UserID string
	Games  int
	Wins   int
	Losses int
}

// ResultFor returns "win", "loss" or "" from userID's point of view.
func (g *CheckersGame) ResultFor(userID string) string {
	if g == nil || userID == "" {
		return ""
	}
	switch {
	case g.Result == "white" && g.WhiteID == userID, g.Result == "black" && g.BlackID == userID:
		return "win"
	case g.Result == "white" && g.BlackID == userID, g.Result == "black" && g.WhiteID == userID:
		return "loss"
	default:
		return ""
	}
}
