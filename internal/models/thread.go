package models

import "time"

// Thread summarizes a buyer/seller conversation about one listing.
type Thread struct {
	ThreadID            int64         `db:"thread_id" json:"thread_id"`
	ListingID           string        `db:"listing_id" json:"listing_id"`
	ListingTitle        string        `db:"listing_title" json:"listing_title"`
	LastMessage         string        `db:"last_message" json:"last_message"`
	LastMessageStatus   MessageStatus `db:"last_message_status" json:"last_message_status"`
	MessageTimestamp    time.Time     `db:"message_timestamp" json:"message_timestamp"`
	SenderID            int64         `db:"sender_id" json:"sender_id"`
	ReceiverID          int64         `db:"receiver_id" json:"receiver_id"`
	CorrespondentID     int64         `db:"correspondent_id" json:"correspondent_id"`
	CorrespondentName   string        `db:"correspondent_name" json:"correspondent_name"`
	CorrespondentAvatar string        `db:"correspondent_avatar" json:"correspondent_avatar"`
}

// ThreadRecord is a stored thread between a buyer and a seller.
type ThreadRecord struct {
	ID           int64     `db:"id" json:"id"`
	ListingID    string    `db:"listing_id" json:"listing_id"`
	ListingTitle string    `db:"listing_title" json:"listing_title"`
	BuyerID      int64     `db:"buyer_id" json:"buyer_id"`
	SellerID     int64     `db:"seller_id" json:"seller_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Has reports whether userID takes part in the thread.
func (t ThreadRecord) Has(userID int64) bool {
	return userID != 0 && (t.BuyerID == userID || t.SellerID == userID)
}

// Other returns the participant that is not userID.
func (t ThreadRecord) Other(userID int64) int64 {
	if t.BuyerID == userID {
		return t.SellerID
	}
	return t.BuyerID
}
