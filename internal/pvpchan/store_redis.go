package pvpchan

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ttlChannel = 24 * time.Hour
)

// Store holds the channel records: meta JSON, rooms, participants, joiner names and indexes.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func (s *Store) keyMeta(code string) string         { return "ch:" + strings.TrimSpace(code) }
func (s *Store) keyRooms(code string) string        { return s.keyMeta(code) + ":rooms" }
func (s *Store) keyParticipants(code string) string { return s.keyMeta(code) + ":participants" }
func (s *Store) keyNames(code string) string        { return s.keyMeta(code) + ":names" }
func (s *Store) keyUserIdx(user string) string      { return "ch:index:user:" + strings.TrimSpace(user) }
func (s *Store) keyCreator(user string) string      { return "ch:index:creator:" + strings.TrimSpace(user) }
func (s *Store) keyLobby() string                   { return "ch:lobby" }

func (s *Store) SaveMeta(ctx context.Context, code string, meta *ChannelMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.keyMeta(code), raw, ttlChannel).Err(); err != nil {
		return err
	}
	// companion TTL
	_ = s.rdb.Expire(ctx, s.keyRooms(code), ttlChannel).Err()
	_ = s.rdb.Expire(ctx, s.keyParticipants(code), ttlChannel).Err()
	_ = s.rdb.Expire(ctx, s.keyNames(code), ttlChannel).Err()
	return nil
}

// LoadMeta returns nil without error when the channel does not exist.
func (s *Store) LoadMeta(ctx context.Context, code string) (*ChannelMeta, error) {
	raw, err := s.rdb.Get(ctx, s.keyMeta(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m ChannelMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) AddRoom(ctx context.Context, code, room string) error {
	if strings.TrimSpace(room) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyRooms(code), room).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyRooms(code), ttlChannel).Err()
}

// Rooms returns the chat rooms bound to a channel in sorted order.
func (s *Store) Rooms(ctx context.Context, code string) ([]string, error) {
	rooms, err := s.rdb.SMembers(ctx, s.keyRooms(code)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(rooms)
	return rooms, nil
}

func (s *Store) ParticipantCount(ctx context.Context, code string) (int64, error) {
	return s.rdb.SCard(ctx, s.keyParticipants(code)).Result()
}

func (s *Store) Participants(ctx context.Context, code string) ([]string, error) {
	return s.rdb.SMembers(ctx, s.keyParticipants(code)).Result()
}

func (s *Store) AddParticipant(ctx context.Context, code, userID, name string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, s.keyParticipants(code), userID)
	pipe.Expire(ctx, s.keyParticipants(code), ttlChannel)
	if strings.TrimSpace(name) != "" {
		pipe.HSet(ctx, s.keyNames(code), userID, name)
		pipe.Expire(ctx, s.keyNames(code), ttlChannel)
	}
	// index by user → codes
	pipe.SAdd(ctx, s.keyUserIdx(userID), code)
	pipe.Expire(ctx, s.keyUserIdx(userID), ttlChannel)
	_, err := pipe.Exec(ctx)
	return err
}

// Name returns the display name recorded for a participant, or "".
func (s *Store) Name(ctx context.Context, code, userID string) (string, error) {
	name, err := s.rdb.HGet(ctx, s.keyNames(code), userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return name, err
}

func (s *Store) CodesByUser(ctx context.Context, userID string) ([]string, error) {
	return s.rdb.SMembers(ctx, s.keyUserIdx(userID)).Result()
}

// ClaimCreator reserves the creator slot for userID. It returns false when a slot is held.
func (s *Store) ClaimCreator(ctx context.Context, userID, code string) (bool, error) {
	return s.rdb.SetNX(ctx, s.keyCreator(userID), code, ttlChannel).Result()
}

// CreatorLobby returns the code held in the creator slot, or "".
func (s *Store) CreatorLobby(ctx context.Context, userID string) (string, error) {
	code, err := s.rdb.Get(ctx, s.keyCreator(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}

func (s *Store) ReleaseCreator(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, s.keyCreator(userID)).Err()
}

// codeGen returns `CH-` + 6 upper alnum.
func codeGen() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return fmt.Sprintf("CH-%s", string(b)), nil
}

// Lobby index helpers
func (s *Store) AddLobby(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyLobby(), code).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, s.keyLobby(), ttlChannel).Err()
	return nil
}

func (s *Store) RemoveLobby(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	return s.rdb.SRem(ctx, s.keyLobby(), code).Err()
}

// ListLobby returns waiting channels ordered by creation time. Expired codes are pruned.
func (s *Store) ListLobby(ctx context.Context) ([]*ChannelMeta, error) {
	codes, err := s.rdb.SMembers(ctx, s.keyLobby()).Result()
	if err != nil {
		return nil, err
	}
	var out []*ChannelMeta
	for _, c := range codes {
		m, _ := s.LoadMeta(ctx, c)
		if m == nil {
			_ = s.RemoveLobby(ctx, c)
			continue
		}
		if m.State != StateLobby {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
