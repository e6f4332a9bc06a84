package pvpchan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/checkers-kakao-bot/internal/obslog"
	"github.com/park285/checkers-kakao-bot/internal/pvpcheckers"
)

// Manager runs lobby channels: a creator opens a code, the second participant starts a game.
type Manager struct {
	rdb   *redis.Client
	store *Store
	pvp   *pvpcheckers.Manager
	now   func() time.Time
}

func NewManager(rdb *redis.Client, pvp *pvpcheckers.Manager) *Manager {
	return &Manager{rdb: rdb, store: NewStore(rdb), pvp: pvp, now: time.Now}
}

func (m *Manager) Make(ctx context.Context, room, userID, userName string, side SideChoice) (*MakeResult, error) {
	if strings.TrimSpace(room) == "" || strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidArgs
	}
	// 동일 방에서 진행 중인 대국이 있으면 채널 생성 금지
	if g, _ := m.pvp.GetActiveGameByUserInRoom(ctx, userID, room); g != nil {
		return nil, ErrPlayerBusyInRoom
	}
	if err := m.checkCreatorSlot(ctx, userID); err != nil {
		return nil, err
	}
	if side == "" {
		side = SideRandom
	}

	for i := 0; i < 5; i++ {
		c, err := codeGen()
		if err != nil {
			return nil, err
		}
		ok, err := m.rdb.SetNX(ctx, m.store.keyMeta(c), []byte("{}"), ttlChannel).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		claimed, err := m.store.ClaimCreator(ctx, userID, c)
		if err != nil {
			return nil, err
		}
		if !claimed {
			_ = m.rdb.Del(ctx, m.store.keyMeta(c)).Err()
			return nil, ErrCreatorHasLobby
		}

		meta := &ChannelMeta{
			ID:          c,
			State:       StateLobby,
			CreatedAt:   m.now(),
			CreatorID:   userID,
			CreatorName: userName,
			CreatorRoom: room,
			CreatorSide: side,
		}
		if err := m.store.SaveMeta(ctx, c, meta); err != nil {
			return nil, err
		}
		if err := m.store.AddRoom(ctx, c, room); err != nil {
			return nil, err
		}
		// creator is the first participant so the second join starts the game
		if err := m.store.AddParticipant(ctx, c, userID, userName); err != nil {
			return nil, err
		}
		if err := m.store.AddLobby(ctx, c); err != nil {
			return nil, err
		}
		obslog.L().Info("lobby_make",
			zap.String("code", c),
			zap.String("room", room),
			zap.String("creator_id", userID),
			zap.String("side", string(side)),
		)
		return &MakeResult{Code: c, Meta: meta}, nil
	}
	return nil, fmt.Errorf("failed to allocate channel code")
}

// checkCreatorSlot rejects a second open lobby and clears a slot left by an expired or closed one.
func (m *Manager) checkCreatorSlot(ctx context.Context, userID string) error {
	code, err := m.store.CreatorLobby(ctx, userID)
	if err != nil || code == "" {
		return err
	}
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil {
		return err
	}
	if meta != nil && meta.State == StateLobby {
		return ErrCreatorHasLobby
	}
	return m.store.ReleaseCreator(ctx, userID)
}

func (m *Manager) Join(ctx context.Context, room, code, userID, userName string) (*JoinResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if strings.TrimSpace(room) == "" || code == "" || strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidArgs
	}
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil {
		return nil, err
	}
	if meta == nil || meta.ID == "" {
		return nil, ErrChannelGone
	}
	if meta.State != StateLobby {
		if meta.State == StateActive {
			return nil, ErrFull
		}
		return nil, ErrChannelActive
	}
	if meta.CreatorID == userID {
		return nil, ErrAlreadyJoined
	}

	// 방 기준 중복 대국 금지: 참가자/생성자 각각 자신의 방에서 ACTIVE 대국이 있는지 검사
	if busy, _ := m.pvp.GetActiveGameByUserInRoom(ctx, userID, room); busy != nil {
		return nil, ErrPlayerBusyInRoom
	}
	if busy, _ := m.pvp.GetActiveGameByUserInRoom(ctx, meta.CreatorID, meta.CreatorRoom); busy != nil {
		return nil, ErrPlayerBusyInRoom
	}

	// WATCH participants to prevent race joins
	partKey := m.store.keyParticipants(code)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cnt, err := tx.SCard(ctx, partKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cnt >= 2 {
			return ErrFull
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, partKey, userID)
			pipe.Expire(ctx, partKey, ttlChannel)
			if strings.TrimSpace(userName) != "" {
				pipe.HSet(ctx, m.store.keyNames(code), userID, userName)
				pipe.Expire(ctx, m.store.keyNames(code), ttlChannel)
			}
			pipe.SAdd(ctx, m.store.keyRooms(code), room)
			pipe.Expire(ctx, m.store.keyRooms(code), ttlChannel)
			pipe.SAdd(ctx, m.store.keyUserIdx(userID), code)
			pipe.Expire(ctx, m.store.keyUserIdx(userID), ttlChannel)
			return nil
		})
		return err
	}, partKey)
	if errors.Is(err, redis.TxFailedErr) {
		err = ErrFull
	}
	if err != nil {
		obslog.L().Warn("lobby_join_error",
			zap.String("code", code),
			zap.String("room", room),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	members, err := m.store.Participants(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(members) < 2 {
		obslog.L().Info("lobby_join", zap.String("code", code), zap.String("room", room), zap.String("user_id", userID), zap.String("reason", "queued"))
		return &JoinResult{Started: false, Meta: meta}, nil
	}

	targetID := userID
	for _, id := range members {
		if id != meta.CreatorID {
			targetID = id
			break
		}
	}
	targetName, _ := m.store.Name(ctx, code, targetID)

	g, err := m.pvp.CreateGameFromChallenge(ctx, meta.CreatorRoom, room, meta.CreatorID, meta.CreatorName, targetID, targetName, string(meta.CreatorSide))
	if err != nil {
		return nil, err
	}

	meta.WhiteID, meta.WhiteName = g.WhiteID, g.WhiteName
	meta.BlackID, meta.BlackName = g.BlackID, g.BlackName
	meta.State = StateActive
	meta.GameID = g.ID
	if err := m.store.SaveMeta(ctx, code, meta); err != nil {
		return nil, err
	}
	_ = m.store.RemoveLobby(ctx, code)
	_ = m.store.ReleaseCreator(ctx, meta.CreatorID)
	obslog.L().Info("lobby_start_game",
		zap.String("code", code),
		zap.String("game_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return &JoinResult{Started: true, GameID: g.ID, Meta: meta}, nil
}

// Cancel closes the caller's waiting lobby.
func (m *Manager) Cancel(ctx context.Context, userID string) (*ChannelMeta, error) {
	code, err := m.store.CreatorLobby(ctx, userID)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, ErrNoLobby
	}
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil {
		return nil, err
	}
	_ = m.store.ReleaseCreator(ctx, userID)
	if meta == nil || meta.State != StateLobby {
		return nil, ErrNoLobby
	}
	meta.State = StateAborted
	if err := m.store.SaveMeta(ctx, code, meta); err != nil {
		return nil, err
	}
	_ = m.store.RemoveLobby(ctx, code)
	obslog.L().Info("lobby_cancel", zap.String("code", code), zap.String("creator_id", userID))
	return meta, nil
}

func (m *Manager) Rooms(ctx context.Context, code string) ([]string, error) {
	return m.store.Rooms(ctx, code)
}

// RoomsByUserAndGame finds channel rooms for a user where its channel binds the given game.
func (m *Manager) RoomsByUserAndGame(ctx context.Context, userID, gameID string) ([]string, error) {
	code, err := m.codeForGame(ctx, userID, gameID)
	if err != nil || code == "" {
		return nil, err
	}
	return m.store.Rooms(ctx, code)
}

// MarkFinished closes the channel bound to gameID and returns its rooms for the final broadcast.
func (m *Manager) MarkFinished(ctx context.Context, userID, gameID string) ([]string, error) {
	code, err := m.codeForGame(ctx, userID, gameID)
	if err != nil || code == "" {
		return nil, err
	}
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil || meta == nil {
		return nil, err
	}
	if meta.State != StateFinished {
		meta.State = StateFinished
		if err := m.store.SaveMeta(ctx, code, meta); err != nil {
			return nil, err
		}
	}
	return m.store.Rooms(ctx, code)
}

func (m *Manager) codeForGame(ctx context.Context, userID, gameID string) (string, error) {
	if strings.TrimSpace(gameID) == "" {
		return "", nil
	}
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, c := range codes {
		meta, _ := m.store.LoadMeta(ctx, c)
		if meta != nil && meta.GameID == gameID {
			return c, nil
		}
	}
	return "", nil
}

// ListLobby returns lobby (waiting) channels' metadata for listing.
func (m *Manager) ListLobby(ctx context.Context) ([]*ChannelMeta, error) {
	return m.store.ListLobby(ctx)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
