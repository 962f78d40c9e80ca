package conversations

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/pkg/pagination"
)

// System defines the contract for conversations and their messages. Every
// operation is scoped to userID and fails with ErrForbidden for
// non-participants.
type System interface {
	// Start returns the caller's conversation about a listing, creating it
	// on first contact.
	Start(ctx context.Context, listingID uuid.UUID, userID string) (*Conversation, error)
	List(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResult[Conversation], error)
	Find(ctx context.Context, id uuid.UUID, userID string) (*Conversation, error)
	// UnreadCount counts the caller's conversations with unseen messages.
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID string) error

	Messages(ctx context.Context, id uuid.UUID, userID string, page pagination.PageRequest) (*pagination.PageResult[Message], error)
	SendText(ctx context.Context, id uuid.UUID, userID string, cmd TextCommand) (*Message, error)
	SendProposal(ctx context.Context, id uuid.UUID, userID string, cmd ProposalCommand) (*Message, error)
	SendContract(ctx context.Context, id uuid.UUID, userID string, cmd ContractCommand) (*Message, error)

	// RespondProposal resolves a pending proposal. Accepting one rejects
	// every other pending proposal in the conversation.
	RespondProposal(ctx context.Context, id, messageID uuid.UUID, userID string, accept bool) (*Message, error)
	// RespondContract resolves a pending contract. Accepting one marks the
	// conversation as contracted, which enables reviews.
	RespondContract(ctx context.Context, id, messageID uuid.UUID, userID string, accept bool) (*Message, error)
	AttachContractDocument(ctx context.Context, id, messageID uuid.UUID, userID string, doc DocumentUpload) (*Message, error)
	// ContractDocument opens the PDF attached to a contract message. The
	// caller closes the reader.
	ContractDocument(ctx context.Context, id, messageID uuid.UUID, userID string) (io.ReadCloser, error)
}
