package pvpcheckers

import (
	"context"
	"fmt"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
	svccheckers "github.com/park285/checkers-kakao-bot/internal/service/checkers"
	"github.com/park285/checkers-kakao-bot/pkg/checkersdto"
)

// ToDTO renders the board from white's side.
func (m *Manager) ToDTO(ctx context.Context, g *Game) (*checkersdto.SessionState, error) {
	return m.ToDTOForViewer(ctx, g, "")
}

// ToDTOForViewer renders the board from the viewer's side: black players see their own men
// at the bottom.
func (m *Manager) ToDTOForViewer(ctx context.Context, g *Game, viewerID string) (*checkersdto.SessionState, error) {
	if m == nil || g == nil {
		return nil, nil
	}
	sess, err := g.Session()
	if err != nil {
		return nil, fmt.Errorf("rebuild session %s: %w", g.ID, err)
	}
	board := sess.Board()
	side, isPlayer := g.SideOf(viewerID)
	flip := isPlayer && side == checkers.Black

	opts := svccheckers.RenderOptions{
		Flip:       flip,
		HUDHeader:  fmt.Sprintf("%s vs %s", g.WhiteName, g.BlackName),
		HUDTurn:    hudTurn(sess),
		WhiteCount: board.Count(checkers.White),
		BlackCount: board.Count(checkers.Black),
	}
	var last *checkers.Move
	if mv, ok := g.LastMoveParsed(); ok {
		last = &mv
		opts.Highlight = last
	}
	var mustCapture []checkers.Square
	if sq, ok := sess.PendingChain(); ok && g.Active() {
		opts.Hints = sess.LegalDestinations(sq)
	} else if g.Active() {
		mustCapture = checkers.CapturingSquares(&board, sess.Turn())
		opts.Hints = mustCapture
	}

	png, err := m.renderer.RenderPNG(ctx, &board, opts)
	if err != nil {
		return nil, err
	}

	history := sess.History()
	state := &checkersdto.SessionState{
		GameID:     g.ID,
		WhiteName:  g.WhiteName,
		BlackName:  g.BlackName,
		Turn:       sess.Turn().String(),
		TurnName:   g.PlayerName(sess.Turn()),
		State:      sess.State().String(),
		Status:     string(g.Status),
		Winner:     g.Winner,
		MoveCount:  sess.MoveCount(),
		Moves:      append([]string(nil), g.Snapshot.Moves...),
		PDN:        checkers.FormatPDN(history),
		LastMove:   g.LastMove,
		WhiteCount: opts.WhiteCount,
		BlackCount: opts.BlackCount,
		BoardImage: png,
		BoardText:  svccheckers.RenderText(&board, svccheckers.TextOptions{Flip: flip, Highlight: last}),
	}
	if sq, ok := sess.PendingChain(); ok {
		state.ChainPending = sq.String()
	}
	for _, sq := range mustCapture {
		state.MustCapture = append(state.MustCapture, sq.String())
	}
	if g.Active() && sess.State() == checkers.InProgress {
		state.Blocked = !checkers.HasLegalMove(&board, sess.Turn())
	}
	if winner, done := sess.State().Winner(); done {
		state.Outcome = winner.String()
		state.WinnerName = g.PlayerName(winner)
	}
	return state, nil
}

func hudTurn(sess *checkers.Session) string {
	if winner, done := sess.State().Winner(); done {
		return fmt.Sprintf("%s wins", capitalize(winner.String()))
	}
	turnNumber := len(sess.History())/2 + 1
	return fmt.Sprintf("%s - move %d", capitalize(sess.Turn().String()), turnNumber)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
