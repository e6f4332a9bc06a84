package checkerspresenter

import (
	"errors"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
	"github.com/park285/checkers-kakao-bot/internal/domain"
	"github.com/park285/checkers-kakao-bot/internal/pvp"
	"github.com/park285/checkers-kakao-bot/internal/pvpchan"
	"github.com/park285/checkers-kakao-bot/internal/pvpcheckers"
	"github.com/park285/checkers-kakao-bot/pkg/checkersdto"
)

// Error codes; each one has an error.<code> entry in the message catalogue.
const (
	CodeInvalidSquare       = "invalid_square"
	CodeEmptySource         = "empty_source"
	CodeWrongTurn           = "wrong_turn"
	CodeCaptureMandatory    = "capture_mandatory"
	CodeIllegalDestination  = "illegal_destination"
	CodeGameOver            = "game_over"
	CodeMustContinueChain   = "must_continue_chain"
	CodeNotYourTurn         = "not_your_turn"
	CodeNoActiveGame        = "no_active_game"
	CodeGameNotFound        = "game_not_found"
	CodeGameNotInRoom       = "game_not_in_room"
	CodeNotParticipant      = "not_participant"
	CodeInvalidParticipants = "invalid_participants"
	CodeConcurrentUpdate    = "concurrent_update"
	CodeInvalidArgs         = "invalid_args"
	CodeSelfChallenge       = "self_challenge"
	CodeChallengePending    = "challenge_pending"
	CodeNoChallenge         = "no_challenge"
	CodeLobbyGone           = "lobby_gone"
	CodeLobbyFull           = "lobby_full"
	CodeLobbyClosed         = "lobby_closed"
	CodeLobbyAlreadyJoined  = "lobby_already_joined"
	CodeBusyInRoom          = "busy_in_room"
	CodeCreatorHasLobby     = "creator_has_lobby"
	CodeNoLobby             = "no_lobby"
	CodeInternal            = "internal"
)

var errorCodes = []struct {
	target    error
	code      string
	retryable bool
}{
	{checkers.ErrInvalidSquare, CodeInvalidSquare, false},
	{checkers.ErrEmptySource, CodeEmptySource, false},
	{checkers.ErrWrongTurn, CodeWrongTurn, false},
	{checkers.ErrCaptureMandatory, CodeCaptureMandatory, false},
	{checkers.ErrIllegalDestination, CodeIllegalDestination, false},
	{checkers.ErrGameOver, CodeGameOver, false},
	{checkers.ErrMustContinueChain, CodeMustContinueChain, false},
	{pvpcheckers.ErrNotYourTurn, CodeNotYourTurn, false},
	{pvpcheckers.ErrNoActiveGame, CodeNoActiveGame, false},
	{pvpcheckers.ErrGameNotFound, CodeGameNotFound, false},
	{pvpcheckers.ErrGameNotInRoom, CodeGameNotInRoom, false},
	{pvpcheckers.ErrNotParticipant, CodeNotParticipant, false},
	{pvpcheckers.ErrInvalidParticipants, CodeInvalidParticipants, false},
	{pvpcheckers.ErrConcurrentUpdate, CodeConcurrentUpdate, true},
	{pvp.ErrInvalidArgs, CodeInvalidArgs, false},
	{pvp.ErrSelfChallenge, CodeSelfChallenge, false},
	{pvp.ErrAlreadyPending, CodeChallengePending, false},
	{pvp.ErrNoPendingForUser, CodeNoChallenge, false},
	{pvpchan.ErrInvalidArgs, CodeInvalidArgs, false},
	{pvpchan.ErrChannelGone, CodeLobbyGone, false},
	{pvpchan.ErrFull, CodeLobbyFull, false},
	{pvpchan.ErrChannelActive, CodeLobbyClosed, false},
	{pvpchan.ErrAlreadyJoined, CodeLobbyAlreadyJoined, false},
	{pvpchan.ErrPlayerBusyInRoom, CodeBusyInRoom, false},
	{pvpchan.ErrCreatorHasLobby, CodeCreatorHasLobby, false},
	{pvpchan.ErrNoLobby, CodeNoLobby, false},
}

// ToDomainError classifies err. Unknown errors map to CodeInternal with the original text.
func ToDomainError(err error) *checkersdto.DomainError {
	if err == nil {
		return nil
	}
	var de checkersdto.DomainError
	if errors.As(err, &de) {
		return &de
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.target) {
			return &checkersdto.DomainError{Code: ec.code, Message: err.Error(), Retryable: ec.retryable}
		}
	}
	return &checkersdto.DomainError{Code: CodeInternal, Message: err.Error()}
}

// ToGameRecords maps archived games to the viewer's perspective.
func ToGameRecords(list []*domain.CheckersGame, viewerID string) []*checkersdto.GameRecord {
	out := make([]*checkersdto.GameRecord, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		opponent := g.BlackName
		if g.BlackID == viewerID {
			opponent = g.WhiteName
		}
		out = append(out, &checkersdto.GameRecord{
			GameID:       g.GameID,
			WhiteName:    g.WhiteName,
			BlackName:    g.BlackName,
			Result:       g.Result,
			ResultMethod: g.ResultMethod,
			ViewerResult: g.ResultFor(viewerID),
			Opponent:     opponent,
			Moves:        len(g.Moves),
			PDN:          g.PDN,
			EndedAt:      g.EndedAt,
			Duration:     g.Duration,
		})
	}
	return out
}

func ToPlayerStats(r *domain.PlayerRecord) checkersdto.PlayerStats {
	if r == nil {
		return checkersdto.PlayerStats{}
	}
	return checkersdto.PlayerStats{Games: r.Games, Wins: r.Wins, Losses: r.Losses}
}

// ToLobbyInfos maps waiting channels for listing.
func ToLobbyInfos(list []*pvpchan.ChannelMeta) []checkersdto.LobbyInfo {
	out := make([]checkersdto.LobbyInfo, 0, len(list))
	for _, m := range list {
		if m == nil {
			continue
		}
		out = append(out, checkersdto.LobbyInfo{
			Code:        m.ID,
			CreatorName: m.CreatorName,
			Side:        string(m.CreatorSide),
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}
