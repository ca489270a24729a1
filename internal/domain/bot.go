package domain

import (
	"fmt"
	"time"
)

// Bot is the identity record of one platform bot operated by this deployment.
type Bot struct {
	ID               int64      `json:"id"`
	PlatformID       int64      `json:"platformID"`
	Username         string     `json:"username"`
	Title            string     `json:"title"`
	Token            string     `json:"-"`
	SecretToken      string     `json:"-"`
	URLSpecifier     string     `json:"-"`
	DomainName       string     `json:"domainName"`
	IsMaster         bool       `json:"isMaster"`
	OwnerID          int64      `json:"ownerID"`
	Owner            *Account   `json:"owner,omitempty"`
	RegisteredFromID *int64     `json:"registeredFromID,omitempty"`
	RegisteredFrom   *Bot       `json:"registeredFrom,omitempty"`
	WebhookSyncedAt  *time.Time `json:"webhookSyncedAt,omitempty"`
	IsRevoked        bool       `json:"isRevoked"`
	IsPoweredOff     bool       `json:"isPoweredOff"`
	CDate            time.Time  `json:"cdate"`
}

func (b Bot) String() string {
	return fmt.Sprintf("bot#%d(@%s)", b.ID, b.Username)
}

// AccountKind discriminates the owner union.
type AccountKind string

const (
	// AccountKindChat is a platform end-user scoped to one bot.
	AccountKindChat AccountKind = "chat"
	// AccountKindStaff is an operator without a platform identity.
	AccountKindStaff AccountKind = "staff"
)

// Account is either a chat user (platform user id + bot) or a staff operator.
type Account struct {
	ID             int64       `json:"id"`
	Kind           AccountKind `json:"kind"`
	Username       string      `json:"username"`
	PlatformUserID *int64      `json:"platformUserID,omitempty"`
	BotID          *int64      `json:"botID,omitempty"`
	FirstName      string      `json:"firstName,omitempty"`
	CDate          time.Time   `json:"cdate"`
}

// IsChatUser reports whether the account belongs to a platform end-user.
func (a Account) IsChatUser() bool {
	return a.Kind == AccountKindChat && a.PlatformUserID != nil
}

// Is reports whether the account is the given platform user.
func (a Account) Is(platformUserID int64) bool {
	return a.IsChatUser() && *a.PlatformUserID == platformUserID
}

type RegisterResult string

const (
	RegisterNotAToken      RegisterResult = "not_a_token"
	RegisterRevokedToken   RegisterResult = "revoked_token"
	RegisterRevokeRequired RegisterResult = "revoke_required"
	RegisterAlreadyAdded   RegisterResult = "already_added"
	RegisterDone           RegisterResult = "done"
)

type ChangePowerResult string

const (
	ChangePowerAlreadyThere ChangePowerResult = "already_there"
	ChangePowerDone         ChangePowerResult = "done"
)

// MaxBulkRevocations caps how many conflicting bots one registration may revoke.
const MaxBulkRevocations = 50
