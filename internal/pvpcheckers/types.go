package pvpcheckers

import (
	"errors"
	"strings"
	"time"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
)

// Status represents a PvP game lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusResigned Status = "RESIGNED"
)

// Result methods recorded in the archive.
const (
	MethodCapture     = "capture"
	MethodResignation = "resignation"
)

var (
	ErrNotInitialized      = errors.New("pvp manager not initialized")
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrNoActiveGame        = errors.New("no active game")
	ErrGameNotFound        = errors.New("game not found")
	ErrNotParticipant      = errors.New("user not in game")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrGameNotInRoom       = errors.New("game not in room")
	ErrConcurrentUpdate    = errors.New("concurrent update detected")
)

// Game is the persisted state of a PvP match. The rules state lives in Snapshot so the
// engine session can be rebuilt on every request.
type Game struct {
	ID            string            `json:"id"`
	Snapshot      checkers.Snapshot `json:"snapshot"`
	ChainCaptures bool              `json:"chain_captures,omitempty"`
	Status        Status            `json:"status"`
	WhiteID       string            `json:"white_id"`
	WhiteName     string            `json:"white_name"`
	BlackID       string            `json:"black_id"`
	BlackName     string            `json:"black_name"`
	OriginRoom    string            `json:"origin_room"`
	ResolveRoom   string            `json:"resolve_room"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	LastMove      string            `json:"last_move,omitempty"`
	Winner        string            `json:"winner,omitempty"`
	Outcome       string            `json:"outcome,omitempty"`
}

// Session rebuilds the rule engine session from the stored snapshot.
func (g *Game) Session() (*checkers.Session, error) {
	var opts []checkers.Option
	if g.ChainCaptures {
		opts = append(opts, checkers.WithChainCaptures())
	}
	return checkers.FromSnapshot(g.Snapshot, opts...)
}

// Turn is the side to move.
func (g *Game) Turn() checkers.Side {
	side, _ := checkers.ParseSide(g.Snapshot.Turn)
	return side
}

// SideOf returns the side userID plays.
func (g *Game) SideOf(userID string) (checkers.Side, bool) {
	userID = strings.TrimSpace(userID)
	switch {
	case userID == "":
		return checkers.White, false
	case g.WhiteID == userID:
		return checkers.White, true
	case g.BlackID == userID:
		return checkers.Black, true
	default:
		return checkers.White, false
	}
}

func (g *Game) PlayerID(side checkers.Side) string {
	if side == checkers.White {
		return g.WhiteID
	}
	return g.BlackID
}

func (g *Game) PlayerName(side checkers.Side) string {
	if side == checkers.White {
		return g.WhiteName
	}
	return g.BlackName
}

// InRoom reports whether the game is bound to room.
func (g *Game) InRoom(room string) bool {
	room = strings.TrimSpace(room)
	return room != "" && (g.OriginRoom == room || g.ResolveRoom == room)
}

func (g *Game) Active() bool { return g != nil && g.Status == StatusActive }

// LastMoveParsed decodes LastMove for highlighting.
func (g *Game) LastMoveParsed() (checkers.Move, bool) {
	if strings.TrimSpace(g.LastMove) == "" {
		return checkers.Move{}, false
	}
	mv, err := checkers.ParseMove(g.LastMove)
	if err != nil {
		return checkers.Move{}, false
	}
	return mv, true
}

// finish closes the game for winner.
func (g *Game) finish(status Status, winner checkers.Side) {
	g.Status = status
	g.Winner = g.PlayerID(winner)
	g.Outcome = winner.String()
}
