// Package conversations implements messaging between a listing's author and
// the users who respond to it, including proposals and contracts.
package conversations

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
)

// Conversation links a requester with the author of a listing.
type Conversation struct {
	ID               uuid.UUID `json:"id"`
	ListingID        uuid.UUID `json:"listingId"`
	ListingTitle     string    `json:"listingTitle"`
	RequesterID      string    `json:"requesterId"`
	AuthorID         string    `json:"authorId"`
	LastMessage      string    `json:"lastMessage"`
	LastMessageAt    time.Time `json:"lastMessageAt"`
	UnreadBy         []string  `json:"unreadBy"`
	ContractAccepted bool      `json:"contractAccepted"`
	Status           Status    `json:"status"`
	ReviewedBy       []string  `json:"reviewedBy"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Participants returns the requester and the listing author.
func (c *Conversation) Participants() []string {
	return []string{c.RequesterID, c.AuthorID}
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && slices.Contains(c.Participants(), userID)
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if userID == c.RequesterID {
		return c.AuthorID
	}
	return c.RequesterID
}

// Unread reports whether userID has unread messages.
func (c *Conversation) Unread(userID string) bool {
	return slices.Contains(c.UnreadBy, userID)
}

// MessageType distinguishes plain text from negotiation messages.
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageProposal MessageType = "proposal"
	MessageContract MessageType = "contract"
	MessageSystem   MessageType = "system"
)

// OfferStatus is the state of a proposal or contract.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Proposal is a priced offer made inside a conversation.
type Proposal struct {
	Value      float64     `json:"value"`
	Deadline   string      `json:"deadline"`
	Conditions string      `json:"conditions"`
	Status     OfferStatus `json:"status"`
}

// Contract formalises an accepted proposal. DocumentKey points at an
// optional signed PDF in blob storage.
type Contract struct {
	Value       float64     `json:"value"`
	Terms       string      `json:"terms"`
	Status      OfferStatus `json:"status"`
	DocumentKey string      `json:"documentKey,omitempty"`
	PageCount   *int        `json:"pageCount,omitempty"`
}

// Message is a single entry in a conversation.
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content"`
	Proposal       *Proposal   `json:"proposal,omitempty"`
	Contract       *Contract   `json:"contract,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// StartCommand opens (or reopens) the conversation about a listing.
type StartCommand struct {
	ListingID uuid.UUID `json:"listingId"`
}

// TextCommand carries a plain message.
type TextCommand struct {
	Content string `json:"content"`
}

// ProposalCommand carries a new proposal.
type ProposalCommand struct {
	Value      float64 `json:"value"`
	Deadline   string  `json:"deadline"`
	Conditions string  `json:"conditions,omitempty"`
}

// ContractCommand carries a new contract. A zero Value takes the value of
// the accepted proposal.
type ContractCommand struct {
	Value float64 `json:"value,omitempty"`
	Terms string  `json:"terms"`
}

// RespondCommand accepts or rejects a pending proposal or contract.
type RespondCommand struct {
	Accept bool `json:"accept"`
}

// DocumentUpload is a contract PDF.
type DocumentUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}
