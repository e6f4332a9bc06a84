package checkerspresenter

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/checkers-kakao-bot/internal/msgcat"
	"github.com/park285/checkers-kakao-bot/internal/obslog"
	"github.com/park285/checkers-kakao-bot/internal/pvpcheckers"
	"github.com/park285/checkers-kakao-bot/pkg/checkersdto"
)

// PrefixProvider exposes the Prefix that Kakao messages should use.
type PrefixProvider interface {
	Prefix() string
}

// StaticPrefix is a fixed PrefixProvider.
type StaticPrefix string

func (p StaticPrefix) Prefix() string { return string(p) }

type data map[string]any

// Formatter renders checkers DTOs into Kakao-friendly text through the message catalogue.
type Formatter struct {
	catalog        *msgcat.Catalog
	prefixProvider PrefixProvider
}

func NewFormatter(catalog *msgcat.Catalog, provider PrefixProvider) *Formatter {
	return &Formatter{catalog: catalog, prefixProvider: provider}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// render merges Prefix into d. A template failure is logged and yields "".
func (f *Formatter) render(key string, d data) string {
	if f == nil {
		return ""
	}
	if d == nil {
		d = data{}
	}
	if _, ok := d["Prefix"]; !ok {
		d["Prefix"] = f.Prefix()
	}
	out, err := f.catalog.Render(key, map[string]any(d))
	if err != nil {
		obslog.L().Warn("msg_render_failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return out
}

func (f *Formatter) Help() string {
	return withSeeMore(f.render("help.title", nil), f.render("help.body", nil))
}

// SideLabel returns the localized name of "white", "black" or "random".
func (f *Formatter) SideLabel(side string) string {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "white":
		return f.render("side.white", nil)
	case "black":
		return f.render("side.black", nil)
	default:
		return f.render("lobby.side_random", nil)
	}
}

func (f *Formatter) GameStarted(state *checkersdto.SessionState) string {
	if state == nil {
		return ""
	}
	return f.render("game.started", data{
		"White": state.WhiteName,
		"Black": state.BlackName,
		"First": state.WhiteName,
	})
}

// Move describes the position after mover's move: the result, a pending jump or the hand-over.
func (f *Formatter) Move(state *checkersdto.SessionState, mover string) string {
	if state == nil {
		return ""
	}
	if state.Finished() {
		return f.Finished(state)
	}
	if state.ChainPending != "" {
		return f.render("game.chain", data{"Mover": mover, "Square": state.ChainPending})
	}
	text := f.render("game.moved", data{
		"Mover":    mover,
		"LastMove": state.LastMove,
		"Next":     state.TurnName,
		"NextSide": f.SideLabel(state.Turn),
	})
	if strings.HasSuffix(state.LastMove, "=K") {
		text += "\n" + f.render("game.promoted", data{"Mover": mover})
	}
	return text
}

// Finished announces the winner of a terminal state.
func (f *Formatter) Finished(state *checkersdto.SessionState) string {
	if state == nil || !state.Finished() {
		return ""
	}
	loser := opponentName(state, state.WinnerName)
	if state.Status == string(pvpcheckers.StatusResigned) {
		return f.render("game.resigned", data{"Loser": loser, "Winner": state.WinnerName})
	}
	return f.render("game.finished", data{
		"Winner":    state.WinnerName,
		"MoveCount": state.MoveCount,
		"Loser":     loser,
	})
}

func (f *Formatter) Status(state *checkersdto.SessionState) string {
	if state == nil {
		return ""
	}
	text := f.render("game.status", data{
		"White":      state.WhiteName,
		"WhiteCount": state.WhiteCount,
		"Black":      state.BlackName,
		"BlackCount": state.BlackCount,
		"MoveCount":  state.MoveCount,
		"LastMove":   state.LastMove,
		"TurnName":   state.TurnName,
		"TurnSide":   f.SideLabel(state.Turn),
		"Chain":      state.ChainPending,
		"Capture":    strings.Join(state.MustCapture, ", "),
		"Blocked":    state.Blocked,
	})
	if state.Finished() {
		text += "\n" + f.Finished(state)
	}
	return text
}

// Moves lists the legal moves of name; an empty list has its own message.
func (f *Formatter) Moves(name string, moves []string) string {
	if len(moves) == 0 {
		return f.render("game.no_moves", data{"Name": name})
	}
	return f.render("game.moves", data{"Name": name, "Moves": strings.Join(moves, ", ")})
}

// Error renders the catalogue message of err. The retry hint is part of the message itself.
func (f *Formatter) Error(err error) string {
	de := ToDomainError(err)
	if de == nil {
		return ""
	}
	key := "error." + de.Code
	if f.catalog == nil || !f.catalog.Has(key) {
		key = "error." + CodeInternal
	}
	return f.render(key, nil)
}

func (f *Formatter) ChallengeCreated(info checkersdto.ChallengeInfo) string {
	minutes := int(info.ExpiresIn.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return f.render("challenge.created", data{
		"Challenger": info.ChallengerName,
		"Target":     info.TargetName,
		"Minutes":    minutes,
	})
}

func (f *Formatter) ChallengeDeclined(info checkersdto.ChallengeInfo) string {
	return f.render("challenge.declined", data{"Target": info.TargetName, "Challenger": info.ChallengerName})
}

func (f *Formatter) ChallengeWithdrawn() string {
	return f.render("challenge.withdrawn", nil)
}

// History renders the viewer's record and recent games behind the see-more fold.
func (f *Formatter) History(name string, stats checkersdto.PlayerStats, records []*checkersdto.GameRecord) string {
	title := f.render("history.title", nil)
	if len(records) == 0 {
		return title + "\n" + f.render("history.empty", nil)
	}
	var sb strings.Builder
	sb.WriteString(f.render("history.header", data{
		"Name":   name,
		"Wins":   stats.Wins,
		"Losses": stats.Losses,
		"Games":  stats.Games,
	}))
	for _, r := range records {
		if r == nil {
			continue
		}
		sb.WriteByte('\n')
		sb.WriteString(f.render("history.item", data{
			"Date":     r.EndedAt.Format("01/02 15:04"),
			"Badge":    f.badge(r.ViewerResult),
			"Opponent": r.Opponent,
			"Method":   f.method(r.ResultMethod),
			"Moves":    r.Moves,
		}))
	}
	return withSeeMore(title, sb.String())
}

func (f *Formatter) badge(result string) string {
	switch result {
	case "win":
		return f.render("history.badge_win", nil)
	case "loss":
		return f.render("history.badge_loss", nil)
	default:
		return "-"
	}
}

func (f *Formatter) method(m string) string {
	switch m {
	case "capture":
		return f.render("history.method_capture", nil)
	case "resignation":
		return f.render("history.method_resignation", nil)
	default:
		return m
	}
}

func (f *Formatter) LobbyMade(code, side string) string {
	return f.render("lobby.made", data{"Code": code, "Side": f.SideLabel(side)})
}

func (f *Formatter) LobbyStarted(code string, state *checkersdto.SessionState) string {
	if state == nil {
		return ""
	}
	return f.render("lobby.started", data{"Code": code, "White": state.WhiteName, "Black": state.BlackName})
}

func (f *Formatter) LobbyCancelled(code string) string {
	return f.render("lobby.cancelled", data{"Code": code})
}

// LobbyList renders waiting lobbies with their age relative to now.
func (f *Formatter) LobbyList(list []checkersdto.LobbyInfo, now time.Time) string {
	if len(list) == 0 {
		return f.render("lobby.list_empty", nil)
	}
	lines := []string{f.render("lobby.list_title", nil)}
	for _, l := range list {
		lines = append(lines, f.render("lobby.list_item", data{
			"Code":    l.Code,
			"Creator": l.CreatorName,
			"Side":    f.SideLabel(l.Side),
			"Age":     formatAge(now.Sub(l.CreatedAt)),
		}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) UnknownCommand() string { return f.render("command.unknown", nil) }
func (f *Formatter) UsageMove() string      { return f.render("command.usage_move", nil) }
func (f *Formatter) UsageJoin() string      { return f.render("command.usage_join", nil) }
func (f *Formatter) RoomNotAllowed() string { return f.render("command.room_not_allowed", nil) }

func opponentName(state *checkersdto.SessionState, name string) string {
	if state.WhiteName == name {
		return state.BlackName
	}
	return state.WhiteName
}

// formatAge renders d as "n초", "n분" or "n시간".
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		s := int(d / time.Second)
		if s < 0 {
			s = 0
		}
		return fmt.Sprintf("%d초", s)
	case d < time.Hour:
		return fmt.Sprintf("%d분", int(d/time.Minute))
	default:
		return fmt.Sprintf("%d시간", int(d/time.Hour))
	}
}

// IsRetryable reports whether err is worth sending the same command again.
func IsRetryable(err error) bool {
	d := ToDomainError(err)
	return d != nil && d.Retryable
}
