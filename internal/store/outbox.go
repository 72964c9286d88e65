package store

import (
	"database/sql"
	"errors"
	"time"
)

const outboxColumns = `id, client_msg_id, conversation_id, body, status, error_message, server_msg_id, attempts, created_at, updated_at`

// QueueOutbox adds a message to the send outbox. Queueing a known client id
// that is not yet sent puts it back in the queue.
func (db *DB) QueueOutbox(clientMsgID, conversationID, body string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outbox (client_msg_id, conversation_id, body, status, created_at, updated_at)
		VALUES (?, ?, ?, 'queued', ?, ?)
		ON CONFLICT(client_msg_id) DO UPDATE SET
			status = 'queued',
			error_message = '',
			updated_at = excluded.updated_at
		WHERE outbox.status <> 'sent'`,
		clientMsgID, conversationID, body, now, now)
	return err
}

// RequeueOutbox moves a failed entry back to queued.
func (db *DB) RequeueOutbox(clientMsgID string) error {
	now := time.Now().UnixMilli()
	res, err := db.Exec(`
		UPDATE outbox SET status = 'queued', error_message = '', updated_at = ?
		WHERE client_msg_id = ? AND status = 'failed'`, now, clientMsgID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOutboxSending updates an outbox entry to 'sending' status.
func (db *DB) MarkOutboxSending(clientMsgID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'sending', attempts = attempts + 1, updated_at = ? WHERE client_msg_id = ?`, now, clientMsgID)
	return err
}

// MarkOutboxSent updates an outbox entry to 'sent' with the server message ID.
func (db *DB) MarkOutboxSent(clientMsgID, serverMsgID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'sent', server_msg_id = ?, error_message = '', updated_at = ? WHERE client_msg_id = ?`, serverMsgID, now, clientMsgID)
	return err
}

// MarkOutboxFailed updates an outbox entry to 'failed' with an error message.
func (db *DB) MarkOutboxFailed(clientMsgID, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE client_msg_id = ?`, errMsg, now, clientMsgID)
	return err
}

// ResetSendingOutbox returns entries stuck in 'sending' to the queue, as
// after a crash mid-send.
func (db *DB) ResetSendingOutbox() (int64, error) {
	now := time.Now().UnixMilli()
	res, err := db.Exec(`UPDATE outbox SET status = 'queued', updated_at = ? WHERE status = 'sending'`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneSentOutbox deletes sent entries last updated before cutoff.
func (db *DB) PruneSentOutbox(cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM outbox WHERE status = 'sent' AND updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetOutbox returns one entry by client id.
func (db *DB) GetOutbox(clientMsgID string) (*OutboxEntry, error) {
	row := db.QueryRow(`SELECT `+outboxColumns+` FROM outbox WHERE client_msg_id = ?`, clientMsgID)
	e, err := scanOutbox(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// PendingOutbox returns outbox entries that are still queued.
func (db *DB) PendingOutbox() ([]OutboxEntry, error) {
	return db.listOutbox(`WHERE status = 'queued' ORDER BY created_at ASC, id ASC`)
}

// FailedOutbox returns failed entries of a conversation, oldest first.
func (db *DB) FailedOutbox(conversationID string) ([]OutboxEntry, error) {
	return db.listOutbox(`WHERE status = 'failed' AND conversation_id = ? ORDER BY created_at ASC, id ASC`, conversationID)
}

func (db *DB) listOutbox(where string, args ...any) ([]OutboxEntry, error) {
	rows, err := db.Query(`SELECT `+outboxColumns+` FROM outbox `+where, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		e, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOutbox(s scanner) (*OutboxEntry, error) {
	var e OutboxEntry
	if err := s.Scan(&e.ID, &e.ClientMsgID, &e.ConversationID, &e.Body, &e.Status, &e.ErrorMessage, &e.ServerMsgID, &e.Attempts, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
