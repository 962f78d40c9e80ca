package conversations

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "conversations", "c").
	Project("id", "ID").
	Project("listing_id", "ListingID").
	Project("listing_title", "ListingTitle").
	Project("requester_id", "RequesterID").
	Project("author_id", "AuthorID").
	Project("last_message", "LastMessage").
	Project("last_message_at", "LastMessageAt").
	Project("unread_by", "UnreadBy").
	Project("contract_accepted", "ContractAccepted").
	Project("status", "Status").
	Project("reviewed_by", "ReviewedBy").
	Project("created_at", "CreatedAt")

const conversationReturning = `RETURNING id, listing_id, listing_title, requester_id, author_id, last_message,
	last_message_at, unread_by, contract_accepted, status, reviewed_by, created_at`

var conversationOrder = query.SortField{Field: "LastMessageAt", Descending: true}

var messageProjection = query.
	NewProjectionMap("public", "messages", "m").
	Project("id", "ID").
	Project("conversation_id", "ConversationID").
	Project("sender_id", "SenderID").
	Project("type", "Type").
	Project("content", "Content").
	Project("proposal", "Proposal").
	Project("contract", "Contract").
	Project("created_at", "CreatedAt")

const messageReturning = `RETURNING id, conversation_id, sender_id, type, content, proposal, contract, created_at`

var messageOrder = query.SortField{Field: "CreatedAt"}

func scanConversation(s repository.Scanner) (Conversation, error) {
	var (
		c          Conversation
		unreadRaw  []byte
		reviewedBy []byte
	)

	err := s.Scan(
		&c.ID,
		&c.ListingID,
		&c.ListingTitle,
		&c.RequesterID,
		&c.AuthorID,
		&c.LastMessage,
		&c.LastMessageAt,
		&unreadRaw,
		&c.ContractAccepted,
		&c.Status,
		&reviewedBy,
		&c.CreatedAt,
	)
	if err != nil {
		return c, err
	}

	if c.UnreadBy, err = decodeIDs(unreadRaw); err != nil {
		return c, fmt.Errorf("unmarshal unread_by: %w", err)
	}
	if c.ReviewedBy, err = decodeIDs(reviewedBy); err != nil {
		return c, fmt.Errorf("unmarshal reviewed_by: %w", err)
	}

	return c, nil
}

func scanMessage(s repository.Scanner) (Message, error) {
	var (
		m           Message
		proposalRaw []byte
		contractRaw []byte
	)

	err := s.Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderID,
		&m.Type,
		&m.Content,
		&proposalRaw,
		&contractRaw,
		&m.CreatedAt,
	)
	if err != nil {
		return m, err
	}

	if len(proposalRaw) > 0 {
		m.Proposal = &Proposal{}
		if err := json.Unmarshal(proposalRaw, m.Proposal); err != nil {
			return m, fmt.Errorf("unmarshal proposal: %w", err)
		}
	}
	if len(contractRaw) > 0 {
		m.Contract = &Contract{}
		if err := json.Unmarshal(contractRaw, m.Contract); err != nil {
			return m, fmt.Errorf("unmarshal contract: %w", err)
		}
	}

	return m, nil
}

func decodeIDs(raw []byte) ([]string, error) {
	ids := []string{}
	if len(raw) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// marshalNullable encodes v for a nullable jsonb parameter.
func marshalNullable(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}
