package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serviceconnect_backend/platform/apperr"
)

const roomNotFoundMessage = "chat room not found"

const roomColumns = `id, kind, participant_key, audience, job_id, last_message_at, last_message_preview, created_at`

const messageColumns = `id, room_id, sender_id, body, message_type, created_at`

const previewLength = 120

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new chat repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetRoom retrieves a room by ID.
func (r *Repo) GetRoom(ctx context.Context, id uuid.UUID) (Room, error) {
	query := `SELECT ` + roomColumns + ` FROM chat_rooms WHERE id = $1`

	room, err := scanRoom(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Room{}, apperr.NotFound(roomNotFoundMessage)
		}
		return Room{}, fmt.Errorf("get chat room: %w", err)
	}
	return room, nil
}

// IsParticipant reports whether the user is a member of the room.
func (r *Repo) IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_room_participants WHERE room_id = $1 AND user_id = $2)`,
		roomID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check room participant: %w", err)
	}
	return exists, nil
}

// ListParticipants returns the user IDs of a room's participants.
func (r *Repo) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM chat_room_participants WHERE room_id = $1`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room participants: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return ids, nil
}

// ListRoomsForUser returns the user's direct rooms plus the system rooms for
// their audiences, most recently active first.
func (r *Repo) ListRoomsForUser(ctx context.Context, userID uuid.UUID, audiences []string) ([]RoomWithUnread, error) {
	if audiences == nil {
		audiences = []string{}
	}

	query := `
		SELECT ` + prefixedRoomColumns + `, COALESCE(u.unread_count, 0)
		FROM chat_rooms cr
		LEFT JOIN chat_room_unreads u ON u.room_id = cr.id AND u.user_id = $1
		WHERE cr.id IN (SELECT room_id FROM chat_room_participants WHERE user_id = $1)
			OR (cr.kind = 'system' AND cr.audience = ANY($2))
		ORDER BY cr.last_message_at DESC NULLS LAST, cr.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, audiences)
	if err != nil {
		return nil, fmt.Errorf("list rooms for user: %w", err)
	}
	defer rows.Close()

	var rooms []RoomWithUnread
	for rows.Next() {
		var rm RoomWithUnread
		if err := rows.Scan(
			&rm.ID, &rm.Kind, &rm.ParticipantKey, &rm.Audience, &rm.JobID,
			&rm.LastMessageAt, &rm.LastMessagePreview, &rm.CreatedAt, &rm.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

const prefixedRoomColumns = `cr.id, cr.kind, cr.participant_key, cr.audience, cr.job_id, cr.last_message_at, cr.last_message_preview, cr.created_at`

// ListMessages returns up to limit messages, newest first, optionally only
// those before the given timestamp.
func (r *Repo) ListMessages(ctx context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM chat_messages
		WHERE room_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, roomID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// EnsureDirectRoom creates or reuses the direct room for the canonical key.
// The no-op DO UPDATE makes the insert return the existing row on conflict.
func (r *Repo) EnsureDirectRoom(ctx context.Context, key string, userA, userB uuid.UUID, jobID *uuid.UUID) (Room, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Room{}, fmt.Errorf("begin ensure room tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO chat_rooms (kind, participant_key, job_id)
		VALUES ('direct', $1, $2)
		ON CONFLICT (participant_key) DO UPDATE SET participant_key = EXCLUDED.participant_key
		RETURNING ` + roomColumns

	room, err := scanRoom(tx.QueryRow(ctx, query, key, jobID))
	if err != nil {
		return Room{}, fmt.Errorf("ensure direct room: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat_room_participants (room_id, user_id)
		VALUES ($1, $2), ($1, $3)
		ON CONFLICT DO NOTHING`, room.ID, userA, userB); err != nil {
		return Room{}, fmt.Errorf("add room participants: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Room{}, fmt.Errorf("commit ensure room tx: %w", err)
	}
	return room, nil
}

// EnsureSystemRoom creates or reuses the audience-wide system room.
func (r *Repo) EnsureSystemRoom(ctx context.Context, audience string) (Room, error) {
	query := `
		INSERT INTO chat_rooms (kind, participant_key, audience)
		VALUES ('system', $1, $2)
		ON CONFLICT (participant_key) DO UPDATE SET participant_key = EXCLUDED.participant_key
		RETURNING ` + roomColumns

	room, err := scanRoom(r.pool.QueryRow(ctx, query, "system_"+audience, audience))
	if err != nil {
		return Room{}, fmt.Errorf("ensure system room: %w", err)
	}
	return room, nil
}

// AddMessageTx stores a message, refreshes the room's last-message fields,
// and bumps the recipients' unread counts in one transaction.
func (r *Repo) AddMessageTx(ctx context.Context, params AddMessageParams) (Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("begin add message tx: %w", err)
	}
	defer tx.Rollback(ctx)

	msg, err := scanMessage(tx.QueryRow(ctx, `
		INSERT INTO chat_messages (room_id, sender_id, body, message_type)
		VALUES ($1, $2, $3, $4)
		RETURNING `+messageColumns,
		params.RoomID, params.SenderID, params.Body, params.MessageType))
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}

	preview := truncatePreview(params.Body)
	if _, err := tx.Exec(ctx, `
		UPDATE chat_rooms SET last_message_at = $2, last_message_preview = $3
		WHERE id = $1`, params.RoomID, msg.CreatedAt, preview); err != nil {
		return Message{}, fmt.Errorf("update room last message: %w", err)
	}

	for _, userID := range params.Recipients {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat_room_unreads (room_id, user_id, unread_count)
			VALUES ($1, $2, 1)
			ON CONFLICT (room_id, user_id)
			DO UPDATE SET unread_count = chat_room_unreads.unread_count + 1, updated_at = now()`,
			params.RoomID, userID); err != nil {
			return Message{}, fmt.Errorf("bump unread count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, fmt.Errorf("commit add message tx: %w", err)
	}
	return msg, nil
}

// MarkRead clears the viewer's unread count for the room.
func (r *Repo) MarkRead(ctx context.Context, roomID, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM chat_room_unreads WHERE room_id = $1 AND user_id = $2`,
		roomID, userID); err != nil {
		return fmt.Errorf("mark room read: %w", err)
	}
	return nil
}

// truncatePreview caps the last-message preview, backing up to a rune
// boundary so a multi-byte character never gets split into invalid UTF-8.
func truncatePreview(body string) string {
	if len(body) <= previewLength {
		return body
	}
	cut := previewLength
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (Room, error) {
	var rm Room
	err := row.Scan(
		&rm.ID, &rm.Kind, &rm.ParticipantKey, &rm.Audience, &rm.JobID,
		&rm.LastMessageAt, &rm.LastMessagePreview, &rm.CreatedAt,
	)
	return rm, err
}

func scanMessage(row rowScanner) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Body, &m.MessageType, &m.CreatedAt)
	return m, err
}
