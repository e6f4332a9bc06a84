package pvp

import (
	"strings"
	"time"
)

type SideChoice string

const (
	SideWhite  SideChoice = "white"
	SideBlack  SideChoice = "black"
	SideRandom SideChoice = "random"
)

func ParseSideChoice(s string) SideChoice {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "white", "w", "백":
		return SideWhite
	case "black", "b", "흑":
		return SideBlack
	default:
		return SideRandom
	}
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusWithdrawn Status = "WITHDRAWN"
	StatusExpired   Status = "EXPIRED"
)

// Challenge is an invitation from one user to another; the target answers it from any room.
type Challenge struct {
	ID             string
	OriginRoom     string
	ResolveRoom    string
	ChallengerID   string
	ChallengerName string
	TargetID       string
	TargetName     string
	Side           SideChoice
	CreatedAt      time.Time
	ExpiresAt      time.Time
	Status         Status
}
