// Package bot routes prefixed chat commands to the checkers game, challenge and lobby managers.
package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/checkers-kakao-bot/internal/adapter/checkerspresenter"
	"github.com/park285/checkers-kakao-bot/internal/checkers"
	"github.com/park285/checkers-kakao-bot/internal/checkersbuilder"
	"github.com/park285/checkers-kakao-bot/internal/config"
	"github.com/park285/checkers-kakao-bot/internal/irisfast"
	"github.com/park285/checkers-kakao-bot/internal/pvp"
	"github.com/park285/checkers-kakao-bot/internal/pvpchan"
	"github.com/park285/checkers-kakao-bot/internal/pvpcheckers"
	"github.com/park285/checkers-kakao-bot/pkg/checkersdto"
)

// Handler answers one chat message at a time; it is safe for concurrent use because all
// game state lives in the managers.
type Handler struct {
	cfg        *config.AppConfig
	games      *pvpcheckers.Manager
	lobby      *pvpchan.Manager
	challenges *pvp.Manager
	presenter  *checkerspresenter.Presenter
	formatter  *checkerspresenter.Formatter
	logger     *zap.Logger
	now        func() time.Time
}

func NewHandler(d *checkersbuilder.Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:        d.Config,
		games:      d.Games,
		lobby:      d.Lobby,
		challenges: d.Challenges,
		presenter:  d.Presenter,
		formatter:  d.Formatter,
		logger:     logger,
		now:        time.Now,
	}
}

// request is one parsed command.
type request struct {
	room   string
	userID string
	name   string
	args   []string
}

// Handle dispatches msg when it carries the bot prefix.
func (h *Handler) Handle(ctx context.Context, msg *irisfast.Message) {
	if msg == nil {
		return
	}
	text := strings.TrimSpace(msg.Msg)
	prefix := h.cfg.BotPrefix
	if text == "" || !strings.HasPrefix(text, prefix) {
		return
	}
	if !h.cfg.RoomAllowed(msg.Room) {
		h.logger.Debug("room_not_allowed", zap.String("room", msg.Room))
		return
	}

	parts := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(parts) == 0 {
		h.reply(ctx, msg.Room, h.formatter.Help())
		return
	}
	userID := msg.UserID()
	req := request{room: msg.Room, userID: userID, name: msg.SenderName(userID), args: parts[1:]}

	switch strings.ToLower(parts[0]) {
	case "help", "도움":
		h.reply(ctx, req.room, h.formatter.Help())
	case "checkers", "체커":
		h.handleGame(ctx, req)
	case "lobby", "로비":
		h.handleLobby(ctx, req)
	default:
		h.reply(ctx, req.room, h.formatter.UnknownCommand())
	}
}

func (h *Handler) handleGame(ctx context.Context, req request) {
	if len(req.args) == 0 {
		h.reply(ctx, req.room, h.formatter.Help())
		return
	}
	sub := strings.ToLower(req.args[0])
	var err error
	switch {
	case strings.HasPrefix(sub, "@"):
		err = h.challenge(ctx, req)
	case sub == "수락" || sub == "accept":
		err = h.accept(ctx, req)
	case sub == "거절" || sub == "decline":
		err = h.decline(ctx, req)
	case sub == "취소" || sub == "withdraw":
		err = h.withdraw(ctx, req)
	case sub == "현황" || sub == "status":
		err = h.status(ctx, req)
	case sub == "가능" || sub == "moves":
		err = h.legalMoves(ctx, req)
	case sub == "기권" || sub == "resign":
		err = h.resign(ctx, req)
	case sub == "기록" || sub == "history":
		err = h.history(ctx, req)
	default:
		from, to, ok := parseMoveArgs(req.args)
		if !ok {
			h.reply(ctx, req.room, h.formatter.UsageMove())
			return
		}
		err = h.move(ctx, req, from, to)
	}
	h.fail(ctx, req, err)
}

func (h *Handler) handleLobby(ctx context.Context, req request) {
	if len(req.args) == 0 {
		h.fail(ctx, req, h.listLobby(ctx, req))
		return
	}
	var err error
	switch strings.ToLower(req.args[0]) {
	case "만들기", "make":
		err = h.makeLobby(ctx, req)
	case "참가", "join":
		if len(req.args) < 2 {
			h.reply(ctx, req.room, h.formatter.UsageJoin())
			return
		}
		err = h.joinLobby(ctx, req, req.args[1])
	case "목록", "list":
		err = h.listLobby(ctx, req)
	case "닫기", "cancel":
		err = h.cancelLobby(ctx, req)
	default:
		h.reply(ctx, req.room, h.formatter.UnknownCommand())
		return
	}
	h.fail(ctx, req, err)
}

func (h *Handler) challenge(ctx context.Context, req request) error {
	target := sanitizeUserArg(req.args[0])
	if target == "" {
		return pvp.ErrInvalidArgs
	}
	side := pvp.SideRandom
	if len(req.args) > 1 {
		side = pvp.ParseSideChoice(req.args[1])
	}
	if g, _ := h.games.GetActiveGameByUserInRoom(ctx, req.userID, req.room); g != nil {
		return pvpchan.ErrPlayerBusyInRoom
	}
	ch, err := h.challenges.CreateChallenge(req.room, req.userID, req.name, target, target, side)
	if err != nil {
		return err
	}
	h.logger.Info("challenge_create",
		zap.String("room", req.room),
		zap.String("challenger_id", ch.ChallengerID),
		zap.String("target_id", ch.TargetID),
		zap.String("side", string(ch.Side)),
	)
	info := checkersdto.ChallengeInfo{
		ChallengerName: ch.ChallengerName,
		TargetName:     ch.TargetName,
		ExpiresIn:      ch.ExpiresAt.Sub(ch.CreatedAt),
	}
	h.reply(ctx, req.room, h.formatter.ChallengeCreated(info))
	return nil
}

func (h *Handler) accept(ctx context.Context, req request) error {
	if g, _ := h.games.GetActiveGameByUserInRoom(ctx, req.userID, req.room); g != nil {
		return pvpchan.ErrPlayerBusyInRoom
	}
	ch, err := h.challenges.Accept(req.userID, req.room)
	if err != nil {
		return err
	}
	g, err := h.games.CreateGameFromChallenge(ctx, ch.OriginRoom, ch.ResolveRoom,
		ch.ChallengerID, ch.ChallengerName, ch.TargetID, req.name, string(ch.Side))
	if err != nil {
		return err
	}
	st, err := h.games.ToDTOForViewer(ctx, g, g.WhiteID)
	if err != nil {
		return err
	}
	return h.presenter.Broadcast(ctx, h.rooms(ctx, g, req.userID, nil), h.formatter.GameStarted(st), st)
}

func (h *Handler) decline(ctx context.Context, req request) error {
	ch, err := h.challenges.Decline(req.userID, req.room)
	if err != nil {
		return err
	}
	text := h.formatter.ChallengeDeclined(checkersdto.ChallengeInfo{ChallengerName: ch.ChallengerName, TargetName: req.name})
	return h.presenter.Broadcast(ctx, []string{ch.OriginRoom, req.room}, text, nil)
}

func (h *Handler) withdraw(ctx context.Context, req request) error {
	if _, err := h.challenges.Withdraw(req.userID); err != nil {
		return err
	}
	h.reply(ctx, req.room, h.formatter.ChallengeWithdrawn())
	return nil
}

func (h *Handler) activeGame(ctx context.Context, req request) (*pvpcheckers.Game, error) {
	g, err := h.games.GetActiveGameByUserInRoom(ctx, req.userID, req.room)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, pvpcheckers.ErrNoActiveGame
	}
	return g, nil
}

func (h *Handler) status(ctx context.Context, req request) error {
	g, err := h.activeGame(ctx, req)
	if err != nil {
		return err
	}
	st, err := h.games.ToDTOForViewer(ctx, g, req.userID)
	if err != nil {
		return err
	}
	return h.presenter.Board(ctx, req.room, h.formatter.Status(st), st)
}

func (h *Handler) legalMoves(ctx context.Context, req request) error {
	g, moves, err := h.games.LegalMoves(ctx, req.userID, req.room)
	if err != nil {
		return err
	}
	list := make([]string, 0, len(moves))
	for _, mv := range moves {
		list = append(list, mv.String())
	}
	h.reply(ctx, req.room, h.formatter.Moves(g.PlayerName(g.Turn()), list))
	return nil
}

func (h *Handler) move(ctx context.Context, req request, from, to string) error {
	g, res, err := h.games.PlayMoveByRoom(ctx, req.userID, req.room, from, to)
	if err != nil {
		return err
	}
	mover := req.name
	if side, ok := g.SideOf(req.userID); ok {
		mover = g.PlayerName(side)
	}
	return h.announce(ctx, g, req.userID, res.Finished(), func(st *checkersdto.SessionState) string {
		return h.formatter.Move(st, mover)
	})
}

func (h *Handler) resign(ctx context.Context, req request) error {
	g, err := h.games.ResignByRoom(ctx, req.userID, req.room)
	if err != nil {
		return err
	}
	return h.announce(ctx, g, req.userID, true, h.formatter.Finished)
}

// announce broadcasts the position to every room bound to g. The board faces the side to
// move so whoever plays next reads it from their own end.
func (h *Handler) announce(ctx context.Context, g *pvpcheckers.Game, userID string, finished bool, text func(*checkersdto.SessionState) string) error {
	var extra []string
	if finished {
		rooms, err := h.lobby.MarkFinished(ctx, userID, g.ID)
		if err != nil {
			h.logger.Warn("lobby_finish_error", zap.String("game_id", g.ID), zap.Error(err))
		}
		extra = rooms
	}
	viewer := g.PlayerID(g.Turn())
	if finished {
		viewer = ""
	}
	st, err := h.games.ToDTOForViewer(ctx, g, viewer)
	if err != nil {
		return err
	}
	return h.presenter.Broadcast(ctx, h.rooms(ctx, g, userID, extra), text(st), st)
}

// rooms lists the game's own rooms followed by any lobby rooms bound to it.
func (h *Handler) rooms(ctx context.Context, g *pvpcheckers.Game, userID string, extra []string) []string {
	rooms := []string{g.OriginRoom, g.ResolveRoom}
	if extra == nil {
		extra, _ = h.lobby.RoomsByUserAndGame(ctx, userID, g.ID)
	}
	return checkerspresenter.UniqueRooms(append(rooms, extra...)...)
}

func (h *Handler) history(ctx context.Context, req request) error {
	limit := h.cfg.HistoryLimit
	if limit <= 0 {
		limit = 10
	}
	if len(req.args) > 1 {
		if n, err := strconv.Atoi(req.args[1]); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	games, err := h.games.RecentGames(ctx, req.userID, limit)
	if err != nil {
		return err
	}
	rec, err := h.games.PlayerRecord(ctx, req.userID)
	if err != nil {
		return err
	}
	records := checkerspresenter.ToGameRecords(games, req.userID)
	h.reply(ctx, req.room, h.formatter.History(req.name, checkerspresenter.ToPlayerStats(rec), records))
	return nil
}

func (h *Handler) makeLobby(ctx context.Context, req request) error {
	side := pvpchan.SideRandom
	if len(req.args) > 1 {
		side = pvpchan.ParseSideChoice(req.args[1])
	}
	res, err := h.lobby.Make(ctx, req.room, req.userID, req.name, side)
	if err != nil {
		return err
	}
	h.reply(ctx, req.room, h.formatter.LobbyMade(res.Code, string(res.Meta.CreatorSide)))
	return nil
}

func (h *Handler) joinLobby(ctx context.Context, req request, code string) error {
	res, err := h.lobby.Join(ctx, req.room, code, req.userID, req.name)
	if err != nil {
		return err
	}
	if !res.Started {
		return nil
	}
	g, err := h.games.LoadGame(ctx, res.GameID)
	if err != nil {
		return err
	}
	if g == nil {
		return pvpcheckers.ErrGameNotFound
	}
	st, err := h.games.ToDTOForViewer(ctx, g, g.WhiteID)
	if err != nil {
		return err
	}
	return h.presenter.Broadcast(ctx, h.rooms(ctx, g, req.userID, nil), h.formatter.LobbyStarted(res.Meta.ID, st), st)
}

func (h *Handler) listLobby(ctx context.Context, req request) error {
	list, err := h.lobby.ListLobby(ctx)
	if err != nil {
		return err
	}
	h.reply(ctx, req.room, h.formatter.LobbyList(checkerspresenter.ToLobbyInfos(list), h.now()))
	return nil
}

func (h *Handler) cancelLobby(ctx context.Context, req request) error {
	meta, err := h.lobby.Cancel(ctx, req.userID)
	if err != nil {
		return err
	}
	h.reply(ctx, req.room, h.formatter.LobbyCancelled(meta.ID))
	return nil
}

func (h *Handler) reply(ctx context.Context, room, text string) {
	if err := h.presenter.Text(ctx, room, text); err != nil {
		h.logger.Warn("reply_error", zap.String("room", room), zap.Error(err))
	}
}

// fail reports err to the requesting room. Rule violations are expected and logged at debug.
func (h *Handler) fail(ctx context.Context, req request, err error) {
	if err == nil {
		return
	}
	de := checkerspresenter.ToDomainError(err)
	level := h.logger.Debug
	if de.Code == checkerspresenter.CodeInternal {
		level = h.logger.Error
	}
	level("command_error",
		zap.String("room", req.room),
		zap.String("user_id", req.userID),
		zap.String("code", de.Code),
		zap.Error(err),
	)
	h.reply(ctx, req.room, h.formatter.Error(err))
}

// parseMoveArgs accepts "a3 b4", "a3-b4" and "c3xe5".
func parseMoveArgs(args []string) (from, to string, ok bool) {
	switch len(args) {
	case 1:
		mv, err := checkers.ParseMove(strings.ToLower(args[0]))
		if err != nil {
			return "", "", false
		}
		return mv.From.String(), mv.To.String(), true
	case 2:
		return args[0], args[1], true
	default:
		return "", "", false
	}
}

func sanitizeUserArg(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}
