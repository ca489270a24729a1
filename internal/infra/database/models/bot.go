package models

import (
	"time"
)

// Account is the owner union: a chat user scoped to one bot, or staff.
type Account struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Kind           string    `json:"kind" gorm:"type:text;not null"`
	Username       string    `json:"username" gorm:"type:text;not null;uniqueIndex"`
	PlatformUserID *int64    `json:"platformUserID" gorm:"uniqueIndex:account_chat_user"`
	BotID          *int64    `json:"botID" gorm:"uniqueIndex:account_chat_user"`
	FirstName      string    `json:"firstName" gorm:"type:text"`
	CDate          time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Bot struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	PlatformID       int64      `json:"platformID" gorm:"not null;index"`
	Username         string     `json:"username" gorm:"type:text;not null"`
	Title            string     `json:"title" gorm:"type:text"`
	Token            string     `json:"-" gorm:"type:text;not null;index"`
	SecretToken      string     `json:"-" gorm:"type:text;not null"`
	URLSpecifier     string     `json:"-" gorm:"type:text;not null;uniqueIndex"`
	DomainName       string     `json:"domainName" gorm:"type:text;not null"`
	IsMaster         bool       `json:"isMaster" gorm:"not null;default:false;index:bot_single_master,unique,where:is_master"`
	OwnerID          int64      `json:"ownerID" gorm:"not null;index"`
	Owner            *Account   `json:"owner,omitempty" gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT;"`
	RegisteredFromID *int64     `json:"registeredFromID" gorm:"index"`
	RegisteredFrom   *Bot       `json:"registeredFrom,omitempty" gorm:"foreignKey:RegisteredFromID;constraint:OnDelete:RESTRICT;"`
	WebhookSyncedAt  *time.Time `json:"webhookSyncedAt" gorm:"type:timestamp with time zone"`
	IsRevoked        bool       `json:"isRevoked" gorm:"not null;default:false;index"`
	IsPoweredOff     bool       `json:"isPoweredOff" gorm:"not null;default:false"`
	CDate            time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// ChatMembership is the last known status of exactly one of a bot or an
// account in a chat.
type ChatMembership struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ChatID    int64     `json:"chatID" gorm:"not null;uniqueIndex:membership_bot;uniqueIndex:membership_account"`
	BotID     *int64    `json:"botID" gorm:"uniqueIndex:membership_bot;check:membership_subject,(bot_id IS NULL) <> (account_id IS NULL)"`
	AccountID *int64    `json:"accountID" gorm:"uniqueIndex:membership_account"`
	Status    string    `json:"status" gorm:"type:text;not null"`
	MDate     time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}
