package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	port "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

const uniqueViolation = "23505"

var _ port.MessagingRepository = (*PgMessagingRepository)(nil)

// PgMessagingRepository persists conversations, messages and receipts in
// Postgres. Multi-row mutations run inside a transaction; the conversation
// uniqueness race is resolved here by treating a constraint conflict as
// "another creator won" and re-reading.
type PgMessagingRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgMessagingRepository(pool *pgxpool.Pool, logger *zap.Logger) *PgMessagingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PgMessagingRepository{pool: pool, logger: logger}
}

func (r *PgMessagingRepository) FindDirectConversation(ctx context.Context, pairKey string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMessagingRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx,
		`SELECT id::text FROM messaging.conversation WHERE conv_type = 'direct' AND pair_key = $1`,
		pairKey,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", messaging.ErrNotFound
	}
	return id, err
}

func (r *PgMessagingRepository) CreateDirectConversation(ctx context.Context, userA, userB string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMessagingRepository: nil pool")
	}
	pairKey := messaging.DirectPairKey(userA, userB)

	id, err := r.insertDirect(ctx, pairKey, userA, userB)
	if err == nil {
		return id, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		// Lost the creation race; the conflicting row is the conversation we
		// want.
		r.logger.Debug("direct conversation creation race resolved",
			zap.String("pair_key", pairKey))
		return r.FindDirectConversation(ctx, pairKey)
	}
	return "", err
}

func (r *PgMessagingRepository) insertDirect(ctx context.Context, pairKey, userA, userB string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		`INSERT INTO messaging.conversation (conv_type, pair_key) VALUES ('direct', $1) RETURNING id::text`,
		pairKey,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO messaging.participant (conversation_id, user_id) VALUES ($1::uuid, $2::uuid), ($1::uuid, $3::uuid)`,
		id, userA, userB,
	)
	if err != nil {
		return "", err
	}

	return id, tx.Commit(ctx)
}

func (r *PgMessagingRepository) FindAIConversation(ctx context.Context, userID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMessagingRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx,
		`SELECT id::text FROM messaging.conversation WHERE conv_type = 'ai' AND pair_key = $1`,
		userID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", messaging.ErrNotFound
	}
	return id, err
}

func (r *PgMessagingRepository) CreateAIConversation(ctx context.Context, userID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMessagingRepository: nil pool")
	}

	id, err := r.insertAI(ctx, userID)
	if err == nil {
		return id, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		r.logger.Debug("ai conversation creation race resolved", zap.String("user_id", userID))
		return r.FindAIConversation(ctx, userID)
	}
	return "", err
}

func (r *PgMessagingRepository) insertAI(ctx context.Context, userID string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		`INSERT INTO messaging.conversation (conv_type, name, pair_key) VALUES ('ai', 'Career Assistant', $1) RETURNING id::text`,
		userID,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO messaging.participant (conversation_id, user_id) VALUES ($1::uuid, $2::uuid)`,
		id, userID,
	)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messaging.ai_session (user_id, conversation_id)
		VALUES ($1::uuid, $2::uuid)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, id)
	if err != nil {
		return "", err
	}

	return id, tx.Commit(ctx)
}

func (r *PgMessagingRepository) GetConversation(ctx context.Context, conversationID string) (*messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	var c messaging.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, conv_type, name, pair_key, created_at, updated_at
		FROM messaging.conversation
		WHERE id = $1::uuid
	`, conversationID).Scan(&c.ID, &c.Type, &c.Name, &c.PairKey, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgMessagingRepository) ListConversationSummaries(ctx context.Context, userID string) ([]messaging.ConversationSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.conv_type, c.name, c.updated_at,
		       (SELECT array_agg(p2.user_id::text ORDER BY p2.user_id)
		          FROM messaging.participant p2
		         WHERE p2.conversation_id = c.id),
		       lm.id::text, lm.sender_id::text, lm.body, lm.media_url, lm.msg_type,
		       lm.is_ai_message, lm.delivery_status, lm.created_at,
		       (SELECT count(*)
		          FROM messaging.message m
		         WHERE m.conversation_id = c.id
		           AND m.deleted_at IS NULL
		           AND (m.sender_id IS NULL OR m.sender_id <> $1::uuid)
		           AND NOT EXISTS (
		               SELECT 1 FROM messaging.read_receipt rr
		                WHERE rr.message_id = m.id AND rr.user_id = $1::uuid))
		FROM messaging.conversation c
		JOIN messaging.participant p
		  ON p.conversation_id = c.id AND p.user_id = $1::uuid
		LEFT JOIN LATERAL (
			SELECT id, sender_id, body, media_url, msg_type, is_ai_message, delivery_status, created_at
			FROM messaging.message m
			WHERE m.conversation_id = c.id AND m.deleted_at IS NULL
			ORDER BY m.created_at DESC
			LIMIT 1
		) lm ON true
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []messaging.ConversationSummary
	for rows.Next() {
		var (
			s         messaging.ConversationSummary
			lmID      *string
			lmSender  *string
			lmBody    *string
			lmMedia   *string
			lmType    *int16
			lmIsAI    *bool
			lmStatus  *int16
			lmCreated *time.Time
		)
		if err := rows.Scan(&s.ID, &s.Type, &s.Name, &s.UpdatedAt, &s.ParticipantIDs,
			&lmID, &lmSender, &lmBody, &lmMedia, &lmType, &lmIsAI, &lmStatus, &lmCreated,
			&s.UnreadCount); err != nil {
			return nil, err
		}
		if lmID != nil {
			s.LastMessage = &messaging.Message{
				ID:             *lmID,
				ConversationID: s.ID,
				SenderID:       lmSender,
				Body:           lmBody,
				MediaURL:       lmMedia,
				MsgType:        messaging.MessageType(*lmType),
				IsAIMessage:    *lmIsAI,
				DeliveryStatus: messaging.DeliveryStatus(*lmStatus),
				CreatedAt:      *lmCreated,
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *PgMessagingRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgMessagingRepository: nil pool")
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM messaging.participant
			WHERE conversation_id = $1::uuid AND user_id = $2::uuid
		)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

func (r *PgMessagingRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx,
		`SELECT user_id::text FROM messaging.participant WHERE conversation_id = $1::uuid ORDER BY user_id`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgMessagingRepository) SaveMessage(ctx context.Context, m messaging.Message) (*messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO messaging.message (
			conversation_id, sender_id, body, media_url, msg_type, reply_to_id, is_ai_message, created_at
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6::uuid, $7, $8)
		RETURNING id::text, created_at, delivery_status
	`, m.ConversationID, m.SenderID, m.Body, m.MediaURL, m.MsgType, m.ReplyToID, m.IsAIMessage, m.CreatedAt,
	).Scan(&m.ID, &m.CreatedAt, &m.DeliveryStatus)
	if err != nil {
		return nil, err
	}

	// Inbox ordering follows the newest message.
	_, err = tx.Exec(ctx,
		`UPDATE messaging.conversation SET updated_at = $2 WHERE id = $1::uuid`,
		m.ConversationID, m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgMessagingRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	// Newest page, presented in reading order.
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, body, media_url, msg_type,
		       reply_to_id, is_ai_message, delivery_status, created_at, delivered_at, read_at
		FROM (
			SELECT id::text, conversation_id::text, sender_id::text, body, media_url, msg_type,
			       reply_to_id::text, is_ai_message, delivery_status, created_at, delivered_at, read_at
			FROM messaging.message
			WHERE conversation_id = $1::uuid AND deleted_at IS NULL
			ORDER BY created_at DESC
			LIMIT $2
		) newest
		ORDER BY created_at ASC
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []messaging.Message
	for rows.Next() {
		var m messaging.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.MediaURL, &m.MsgType,
			&m.ReplyToID, &m.IsAIMessage, &m.DeliveryStatus, &m.CreatedAt, &m.DeliveredAt, &m.ReadAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *PgMessagingRepository) GetMessage(ctx context.Context, messageID string) (*messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	var m messaging.Message
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, conversation_id::text, sender_id::text, body, media_url, msg_type,
		       reply_to_id::text, is_ai_message, delivery_status, created_at, delivered_at, read_at, deleted_at
		FROM messaging.message
		WHERE id = $1::uuid
	`, messageID).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.MediaURL, &m.MsgType,
		&m.ReplyToID, &m.IsAIMessage, &m.DeliveryStatus, &m.CreatedAt, &m.DeliveredAt, &m.ReadAt, &m.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgMessagingRepository) MarkDelivered(ctx context.Context, messageID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgMessagingRepository: nil pool")
	}
	// Compare-and-set: only the sent -> delivered edge; anything further
	// along is left untouched.
	ct, err := r.pool.Exec(ctx, `
		UPDATE messaging.message
		SET delivery_status = $2, delivered_at = now()
		WHERE id = $1::uuid AND delivery_status < $2 AND deleted_at IS NULL
	`, messageID, messaging.DeliveryDelivered)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *PgMessagingRepository) MarkConversationRead(ctx context.Context, conversationID, readerID string) (*messaging.ReadResult, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessagingRepository: nil pool")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result := &messaging.ReadResult{}

	// New receipts only; conflicts mean the reader already saw the message.
	rows, err := tx.Query(ctx, `
		INSERT INTO messaging.read_receipt (message_id, user_id)
		SELECT m.id, $2::uuid
		FROM messaging.message m
		WHERE m.conversation_id = $1::uuid
		  AND m.deleted_at IS NULL
		  AND (m.sender_id IS NULL OR m.sender_id <> $2::uuid)
		ON CONFLICT (message_id, user_id) DO NOTHING
		RETURNING message_id::text
	`, conversationID, readerID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		result.ReceiptMessageIDs = append(result.ReceiptMessageIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// A message is read once every participant other than its sender holds a
	// receipt; in a direct or assistant thread that is the single recipient.
	rows, err = tx.Query(ctx, `
		UPDATE messaging.message m
		SET delivery_status = $3,
		    delivered_at = COALESCE(m.delivered_at, now()),
		    read_at = COALESCE(m.read_at, now())
		WHERE m.conversation_id = $1::uuid
		  AND m.deleted_at IS NULL
		  AND m.delivery_status < $3
		  AND (m.sender_id IS NULL OR m.sender_id <> $2::uuid)
		  AND NOT EXISTS (
		      SELECT 1 FROM messaging.participant p
		      WHERE p.conversation_id = m.conversation_id
		        AND (m.sender_id IS NULL OR p.user_id <> m.sender_id)
		        AND NOT EXISTS (
		            SELECT 1 FROM messaging.read_receipt rr
		            WHERE rr.message_id = m.id AND rr.user_id = p.user_id))
		RETURNING m.id::text
	`, conversationID, readerID, messaging.DeliveryRead)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		result.ReadMessageIDs = append(result.ReadMessageIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE messaging.participant SET last_read_at = now()
		WHERE conversation_id = $1::uuid AND user_id = $2::uuid
	`, conversationID, readerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgMessagingRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessagingRepository: nil pool")
	}
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM messaging.message m
		JOIN messaging.participant p
		  ON p.conversation_id = m.conversation_id AND p.user_id = $1::uuid
		WHERE m.deleted_at IS NULL
		  AND (m.sender_id IS NULL OR m.sender_id <> $1::uuid)
		  AND NOT EXISTS (
		      SELECT 1 FROM messaging.read_receipt rr
		      WHERE rr.message_id = m.id AND rr.user_id = $1::uuid)
	`, userID).Scan(&count)
	return count, err
}

func (r *PgMessagingRepository) SoftDeleteMessage(ctx context.Context, messageID, requesterID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessagingRepository: nil pool")
	}
	var senderID *string
	var deletedAt *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT sender_id::text, deleted_at FROM messaging.message WHERE id = $1::uuid`,
		messageID,
	).Scan(&senderID, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return messaging.ErrNotFound
	}
	if err != nil {
		return err
	}
	if senderID == nil || *senderID != requesterID {
		return messaging.ErrNotSender
	}
	if deletedAt != nil {
		return nil // already deleted; idempotent
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE messaging.message SET deleted_at = now() WHERE id = $1::uuid AND deleted_at IS NULL`,
		messageID,
	)
	return err
}
