package domain

// OwnerNotification is a message for a bot owner delivered out of band.
type OwnerNotification struct {
	AccountID int64  `json:"user_id"`
	Text      string `json:"text"`
}
