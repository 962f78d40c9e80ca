package conversations

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/ineed/internal/listings"
	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
	"github.com/JaimeStill/ineed/pkg/storage"
)

const (
	startedMessage        = "Nova conversa iniciada!"
	proposalSentMessage   = "Uma nova proposta foi enviada."
	contractSentMessage   = "Um contrato foi gerado para revisão."
	contractAcceptMessage = "Contrato aceito por ambas as partes. Avalie sua experiência."
	defaultConditions     = "Sem condições especiais"
)

// ListingFinder resolves the listing a conversation is about.
type ListingFinder interface {
	Find(ctx context.Context, id uuid.UUID) (*listings.Listing, error)
}

type repo struct {
	db         *sql.DB
	listings   ListingFinder
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

func New(
	db *sql.DB,
	listings ListingFinder,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		listings:   listings,
		storage:    store,
		logger:     logger.With("system", "conversations"),
		pagination: pagination,
	}
}

func (r *repo) Start(ctx context.Context, listingID uuid.UUID, userID string) (*Conversation, error) {
	l, err := r.listings.Find(ctx, listingID)
	if err != nil {
		if errors.Is(err, listings.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	if l.AuthorID == userID {
		return nil, ErrSelfConversation
	}

	q := `
		INSERT INTO conversations(id, listing_id, listing_title, requester_id, author_id, last_message, unread_by)
		VALUES ($1, $2, $3, $4, $5, $6, jsonb_build_array($5::text))
		ON CONFLICT (listing_id, requester_id) DO UPDATE SET listing_title = conversations.listing_title
		` + conversationReturning

	args := []any{uuid.New(), l.ID, "Re: " + l.Title, userID, l.AuthorID, startedMessage}

	c, err := repository.QueryOne(ctx, r.db, q, args, scanConversation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("conversation started", "id", c.ID, "listing_id", l.ID)
	return &c, nil
}

func (r *repo) List(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResult[Conversation], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, conversationOrder).
		WhereEither(userID, "RequesterID", "AuthorID").
		WhereContains("ListingTitle", page.Search)

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanConversation)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID, userID string) (*Conversation, error) {
	return r.participant(ctx, r.db, id, userID)
}

func (r *repo) UnreadCount(ctx context.Context, userID string) (int, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEither(userID, "RequesterID", "AuthorID").
		WhereHas("UnreadBy", userID).
		BuildCount()

	n, err := repository.Count(ctx, r.db, q, args)
	if err != nil {
		return 0, fmt.Errorf("count unread conversations: %w", err)
	}
	return n, nil
}

func (r *repo) MarkRead(ctx context.Context, id uuid.UUID, userID string) error {
	if _, err := r.participant(ctx, r.db, id, userID); err != nil {
		return err
	}

	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE conversations SET unread_by = unread_by - $2::text WHERE id = $1",
		id, userID,
	)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (r *repo) Messages(
	ctx context.Context,
	id uuid.UUID,
	userID string,
	page pagination.PageRequest,
) (*pagination.PageResult[Message], error) {
	if _, err := r.participant(ctx, r.db, id, userID); err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)
	qb := query.NewBuilder(messageProjection, messageOrder).WhereEquals("ConversationID", id)

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) SendText(ctx context.Context, id uuid.UUID, userID string, cmd TextCommand) (*Message, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content required", ErrInvalidMessage)
	}

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Message, error) {
		c, err := r.participant(ctx, tx, id, userID)
		if err != nil {
			return nil, err
		}
		return r.append(ctx, tx, c, outgoing{sender: userID, kind: MessageText, content: content, summary: content})
	})
}

func (r *repo) SendProposal(ctx context.Context, id uuid.UUID, userID string, cmd ProposalCommand) (*Message, error) {
	if cmd.Value <= 0 {
		return nil, fmt.Errorf("%w: proposal value must be positive", ErrInvalidMessage)
	}
	if strings.TrimSpace(cmd.Deadline) == "" {
		return nil, fmt.Errorf("%w: proposal deadline required", ErrInvalidMessage)
	}

	p := &Proposal{
		Value:      cmd.Value,
		Deadline:   strings.TrimSpace(cmd.Deadline),
		Conditions: strings.TrimSpace(cmd.Conditions),
		Status:     OfferPending,
	}
	if p.Conditions == "" {
		p.Conditions = defaultConditions
	}

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Message, error) {
		c, err := r.participant(ctx, tx, id, userID)
		if err != nil {
			return nil, err
		}
		return r.append(ctx, tx, c, outgoing{
			sender:   userID,
			kind:     MessageProposal,
			content:  fmt.Sprintf("Proposta enviada no valor de R$ %.2f", p.Value),
			summary:  proposalSentMessage,
			proposal: p,
		})
	})
}

// SendContract requires an accepted proposal in the conversation. A zero
// value in cmd takes the accepted proposal's value.
func (r *repo) SendContract(ctx context.Context, id uuid.UUID, userID string, cmd ContractCommand) (*Message, error) {
	terms := strings.TrimSpace(cmd.Terms)
	if terms == "" {
		return nil, fmt.Errorf("%w: contract terms required", ErrInvalidMessage)
	}
	if cmd.Value < 0 {
		return nil, fmt.Errorf("%w: contract value must be positive", ErrInvalidMessage)
	}

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Message, error) {
		c, err := r.participant(ctx, tx, id, userID)
		if err != nil {
			return nil, err
		}

		accepted, err := acceptedProposal(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		value := cmd.Value
		if value == 0 {
			value = accepted.Value
		}

		return r.append(ctx, tx, c, outgoing{
			sender:   userID,
			kind:     MessageContract,
			content:  "Contrato gerado com base na proposta.",
			summary:  contractSentMessage,
			contract: &Contract{Value: value, Terms: terms, Status: OfferPending},
		})
	})
}

func (r *repo) RespondProposal(ctx context.Context, id, messageID uuid.UUID, userID string, accept bool) (*Message, error) {
	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Message, error) {
		if _, err := r.participant(ctx, tx, id, userID); err != nil {
			return nil, err
		}

		m, err := pendingOffer(ctx, tx, id, messageID, userID, MessageProposal)
		if err != nil {
			return nil, err
		}

		status := resolution(accept)
		updated, err := setOfferStatus(ctx, tx, m.ID, "proposal", status)
		if err != nil {
			return nil, err
		}

		if accept {
			res, err := tx.ExecContext(ctx, `
				UPDATE messages
				SET proposal = jsonb_set(proposal, '{status}', to_jsonb($3::text))
				WHERE conversation_id = $1 AND type = 'proposal' AND id <> $2
				  AND proposal->>'status' = 'pending'`,
				id, m.ID, OfferRejected,
			)
			if err != nil {
				return nil, fmt.Errorf("reject competing proposals: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				r.logger.Info("competing proposals rejected", "conversation_id", id, "count", n)
			}
		}

		r.logger.Info("proposal resolved", "conversation_id", id, "message_id", m.ID, "status", status)
		return updated, nil
	})
}

func (r *repo) RespondContract(ctx context.Context, id, messageID uuid.UUID, userID string, accept bool) (*Message, error) {
	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Message, error) {
		c, err := r.participant(ctx, tx, id, userID)
		if err != nil {
			return nil, err
		}

		m, err := pendingOffer(ctx, tx, id, messageID, userID, MessageContract)
		if err != nil {
			return nil, err
		}

		status := resolution(accept)
		updated, err := setOfferStatus(ctx, tx, m.ID, "contract", status)
		if err != nil {
			return nil, err
		}

		if accept {
			if _, err := tx.ExecContext(ctx,
				"UPDATE conversations SET contract_accepted = true WHERE id = $1", id,
			); err != nil {
				return nil, fmt.Errorf("mark contract accepted: %w", err)
			}
			if _, err := r.append(ctx, tx, c, outgoing{
				sender:  userID,
				kind:    MessageSystem,
				content: contractAcceptMessage,
				summary: contractAcceptMessage,
			}); err != nil {
				return nil, err
			}
		}

		r.logger.Info("contract resolved", "conversation_id", id, "message_id", m.ID, "status", status)
		return updated, nil
	})
}

// AttachContractDocument validates doc as a PDF before touching the store,
// then uploads it and records its key on the contract.
func (r *repo) AttachContractDocument(
	ctx context.Context,
	id, messageID uuid.UUID,
	userID string,
	doc DocumentUpload,
) (*Message, error) {
	pages, err := pdfPageCount(doc)
	if err != nil {
		return nil, err
	}

	if _, err := r.participant(ctx, r.db, id, userID); err != nil {
		return nil, err
	}

	m, err := findMessage(ctx, r.db, id, messageID, false)
	if err != nil {
		return nil, err
	}
	if m.Type != MessageContract {
		return nil, ErrMessageNotFound
	}

	key := fmt.Sprintf("conversations/%s/contracts/%s.pdf", id, m.ID)
	if err := r.storage.Upload(ctx, key, bytes.NewReader(doc.Data), int64(len(doc.Data)), "application/pdf"); err != nil {
		return nil, fmt.Errorf("upload contract document: %w", err)
	}

	q := `
		UPDATE messages
		SET contract = contract || jsonb_build_object('documentKey', $2::text, 'pageCount', $3::int)
		WHERE id = $1
		` + messageReturning

	updated, err := repository.QueryOne(ctx, r.db, q, []any{m.ID, key, pages}, scanMessage)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating document delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrMessageNotFound, ErrDuplicate)
	}

	r.logger.Info("contract document attached", "conversation_id", id, "message_id", m.ID, "pages", pages)
	return &updated, nil
}

func (r *repo) ContractDocument(ctx context.Context, id, messageID uuid.UUID, userID string) (io.ReadCloser, error) {
	if _, err := r.participant(ctx, r.db, id, userID); err != nil {
		return nil, err
	}

	m, err := findMessage(ctx, r.db, id, messageID, false)
	if err != nil {
		return nil, err
	}
	if m.Contract == nil || m.Contract.DocumentKey == "" {
		return nil, ErrMessageNotFound
	}

	body, err := r.storage.Download(ctx, m.Contract.DocumentKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrMessageNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("download contract document: %w", err)
	}
	return body, nil
}

// participant loads a conversation and verifies userID takes part in it.
func (r *repo) participant(ctx context.Context, db repository.DB, id uuid.UUID, userID string) (*Conversation, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, db, q, args, scanConversation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	if !c.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return &c, nil
}

type outgoing struct {
	sender   string
	kind     MessageType
	content  string
	summary  string
	proposal *Proposal
	contract *Contract
}

// append inserts a message and moves the conversation's summary and unread
// marker to the other participant.
func (r *repo) append(ctx context.Context, tx *sql.Tx, c *Conversation, out outgoing) (*Message, error) {
	var proposal, contract *string
	var err error

	if out.proposal != nil {
		if proposal, err = marshalNullable(out.proposal); err != nil {
			return nil, fmt.Errorf("marshal proposal: %w", err)
		}
	}
	if out.contract != nil {
		if contract, err = marshalNullable(out.contract); err != nil {
			return nil, fmt.Errorf("marshal contract: %w", err)
		}
	}

	q := `
		INSERT INTO messages(id, conversation_id, sender_id, type, content, proposal, contract)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb)
		` + messageReturning

	args := []any{uuid.New(), c.ID, out.sender, out.kind, out.content, proposal, contract}

	m, err := repository.QueryOne(ctx, tx, q, args, scanMessage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversations
		SET last_message = $2, last_message_at = now(), unread_by = jsonb_build_array($3::text)
		WHERE id = $1`,
		c.ID, out.summary, c.Other(out.sender),
	)
	if err != nil {
		return nil, fmt.Errorf("update conversation summary: %w", err)
	}

	return &m, nil
}

func findMessage(ctx context.Context, db repository.DB, conversationID, messageID uuid.UUID, lock bool) (*Message, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE m.id = $1 AND m.conversation_id = $2",
		messageProjection.Columns(),
		messageProjection.From(),
	)
	if lock {
		q += " FOR UPDATE"
	}

	m, err := repository.QueryOne(ctx, db, q, []any{messageID, conversationID}, scanMessage)
	if err != nil {
		return nil, repository.MapError(err, ErrMessageNotFound, ErrDuplicate)
	}
	return &m, nil
}

// pendingOffer locks a proposal or contract message that userID may resolve.
func pendingOffer(
	ctx context.Context,
	tx *sql.Tx,
	conversationID, messageID uuid.UUID,
	userID string,
	kind MessageType,
) (*Message, error) {
	m, err := findMessage(ctx, tx, conversationID, messageID, true)
	if err != nil {
		return nil, err
	}
	if m.Type != kind {
		return nil, fmt.Errorf("%w: not a %s", ErrMessageNotFound, kind)
	}
	if m.SenderID == userID {
		return nil, ErrNotRecipient
	}

	status := OfferPending
	switch kind {
	case MessageProposal:
		status = m.Proposal.Status
	case MessageContract:
		status = m.Contract.Status
	}
	if status != OfferPending {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyResolved, status)
	}
	return m, nil
}

func setOfferStatus(ctx context.Context, tx *sql.Tx, messageID uuid.UUID, column string, status OfferStatus) (*Message, error) {
	q := fmt.Sprintf(
		"UPDATE messages SET %[1]s = jsonb_set(%[1]s, '{status}', to_jsonb($2::text)) WHERE id = $1 %[2]s",
		column,
		messageReturning,
	)

	m, err := repository.QueryOne(ctx, tx, q, []any{messageID, status}, scanMessage)
	if err != nil {
		return nil, repository.MapError(err, ErrMessageNotFound, ErrDuplicate)
	}
	return &m, nil
}

func acceptedProposal(ctx context.Context, tx *sql.Tx, conversationID uuid.UUID) (*Proposal, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE m.conversation_id = $1 AND m.type = 'proposal' AND m.proposal->>'status' = 'accepted'
		ORDER BY m.created_at DESC
		LIMIT 1`,
		messageProjection.Columns(),
		messageProjection.From(),
	)

	m, err := repository.QueryOne(ctx, tx, q, []any{conversationID}, scanMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAcceptedProposal
	}
	if err != nil {
		return nil, fmt.Errorf("find accepted proposal: %w", err)
	}
	return m.Proposal, nil
}

func resolution(accept bool) OfferStatus {
	if accept {
		return OfferAccepted
	}
	return OfferRejected
}

func pdfPageCount(doc DocumentUpload) (int, error) {
	if len(doc.Data) == 0 {
		return 0, fmt.Errorf("%w: empty file", ErrInvalidDocument)
	}
	if doc.ContentType != "" && doc.ContentType != "application/pdf" {
		return 0, fmt.Errorf("%w: content type %s", ErrInvalidDocument, doc.ContentType)
	}

	pages, err := api.PageCount(bytes.NewReader(doc.Data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return pages, nil
}
