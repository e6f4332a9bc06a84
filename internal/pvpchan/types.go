package pvpchan

import "time"

// ChannelState represents the lifecycle of a PvP channel.
type ChannelState string

const (
	StateLobby    ChannelState = "LOBBY"
	StateActive   ChannelState = "ACTIVE"
	StateFinished ChannelState = "FINISHED"
	StateAborted  ChannelState = "ABORTED"
)

// SideChoice is the creator's textual side preference.
type SideChoice string

const (
	SideWhite  SideChoice = "white"
	SideBlack  SideChoice = "black"
	SideRandom SideChoice = "random"
)

// ParseSideChoice maps user input to a choice; unknown input means random.
func ParseSideChoice(s string) SideChoice {
	switch normalize(s) {
	case "white", "w", "백":
		return SideWhite
	case "black", "b", "흑":
		return SideBlack
	default:
		return SideRandom
	}
}

// ChannelMeta is stored as JSON in Redis under ch:<code>.
type ChannelMeta struct {
	ID        string       `json:"id"`
	State     ChannelState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`

	CreatorID   string     `json:"creator_id"`
	CreatorName string     `json:"creator_name"`
	CreatorRoom string     `json:"creator_room"`
	CreatorSide SideChoice `json:"creator_side,omitempty"`

	WhiteID   string `json:"white_id,omitempty"`
	WhiteName string `json:"white_name,omitempty"`
	BlackID   string `json:"black_id,omitempty"`
	BlackName string `json:"black_name,omitempty"`

	GameID string `json:"game_id,omitempty"`
}

// MakeResult is returned by Make.
type MakeResult struct {
	Code string
	Meta *ChannelMeta
}

// JoinResult is returned by Join. Started is set once the second participant arrives.
type JoinResult struct {
	Started bool
	GameID  string
	Meta    *ChannelMeta
}

var (
	ErrInvalidArgs   = errf("invalid arguments")
	ErrChannelGone   = errf("channel not found or expired")
	ErrChannelActive = errf("channel already active")
	ErrFull          = errf("channel already has two participants")
	// 이미 참가한 채널에 다시 참가
	ErrAlreadyJoined = errf("already joined this channel")
	// 플레이어가 동일 방에서 이미 진행 중인 대국이 있는 경우
	ErrPlayerBusyInRoom = errf("player has active game in this room")
	// 동일 사용자가 동시에 2개 이상 대기방 생성 불가
	ErrCreatorHasLobby = errf("user already has a lobby")
	ErrNoLobby         = errf("user has no open lobby")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

func errf(s string) error { return staticErr(s) }
