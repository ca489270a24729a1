package models

import (
	"time"
)

// File stores every kind of platform file in one table, discriminated by Kind.
type File struct {
	ID           int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Kind         string `json:"kind" gorm:"type:text;not null"`
	BotID        int64  `json:"botID" gorm:"not null;index"`
	FileID       string `json:"fileID" gorm:"type:text;not null;uniqueIndex"`
	FileUniqueID string `json:"fileUniqueID" gorm:"type:text;not null;index"`
	FileSize     int64  `json:"fileSize"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     int    `json:"duration"`
	Performer    string `json:"performer" gorm:"type:text"`
	Title        string `json:"title" gorm:"type:text"`
	FileName     string `json:"fileName" gorm:"type:text"`
	MimeType     string `json:"mimeType" gorm:"type:text"`
	ThumbnailID  *int64 `json:"thumbnailID"`
	Thumbnail    *File  `json:"thumbnail,omitempty" gorm:"foreignKey:ThumbnailID;constraint:OnDelete:SET NULL;"`
}

type CapturedMessage struct {
	ID           int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	BotID        int64           `json:"botID" gorm:"not null;uniqueIndex:captured_message_origin"`
	ChatID       int64           `json:"chatID" gorm:"not null;uniqueIndex:captured_message_origin"`
	PlatformID   int64           `json:"platformID" gorm:"not null;uniqueIndex:captured_message_origin"`
	SentByID     *int64          `json:"sentByID"`
	ContentType  string          `json:"contentType" gorm:"type:text;not null"`
	Text         string          `json:"text" gorm:"type:text"`
	Caption      string          `json:"caption" gorm:"type:text"`
	MediaGroupID string          `json:"mediaGroupID" gorm:"type:text"`
	FileID       *int64          `json:"fileID"`
	File         *File           `json:"file,omitempty" gorm:"foreignKey:FileID;constraint:OnDelete:RESTRICT;"`
	Photos       []MessagePhoto  `json:"photos" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE;"`
	Entities     []MessageEntity `json:"entities" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE;"`
	CDate        time.Time       `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type MessagePhoto struct {
	MessageID int64 `json:"messageID" gorm:"primaryKey"`
	Position  int   `json:"position" gorm:"primaryKey"`
	FileID    int64 `json:"fileID" gorm:"not null"`
	File      File  `json:"file" gorm:"foreignKey:FileID;constraint:OnDelete:RESTRICT;"`
}

type MessageEntity struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID int64  `json:"messageID" gorm:"not null;index"`
	OnCaption bool   `json:"onCaption" gorm:"not null"`
	Position  int    `json:"position" gorm:"not null"`
	Type      string `json:"type" gorm:"type:text;not null"`
	Offset    int    `json:"offset" gorm:"not null"`
	Length    int    `json:"length" gorm:"not null"`
	URL       string `json:"url" gorm:"type:text"`
	Language  string `json:"language" gorm:"type:text"`
}

type Bundle struct {
	ID          int64            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string           `json:"name" gorm:"type:text;not null"`
	BotID       int64            `json:"botID" gorm:"not null;index:bundle_creator"`
	CreatedByID int64            `json:"createdByID" gorm:"not null;index:bundle_creator"`
	Messages    []BundleMessage  `json:"messages" gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE;"`
	MustJoins   []BundleMustJoin `json:"mustJoins" gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE;"`
	CDate       time.Time        `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type BundleMessage struct {
	BundleID  int64 `json:"bundleID" gorm:"primaryKey"`
	Position  int   `json:"position" gorm:"primaryKey"`
	MessageID int64 `json:"messageID" gorm:"not null;index"`
}

type BundleMustJoin struct {
	BundleID  int64 `json:"bundleID" gorm:"primaryKey"`
	Position  int   `json:"position" gorm:"primaryKey"`
	ChatID    int64 `json:"chatID" gorm:"not null"`
	IsChannel bool  `json:"isChannel" gorm:"not null;default:false"`
}

type ShareLink struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	QueryID  string    `json:"queryID" gorm:"type:text;not null;uniqueIndex"`
	BundleID int64     `json:"bundleID" gorm:"not null;index"`
	Bundle   *Bundle   `json:"bundle,omitempty" gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE;"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
