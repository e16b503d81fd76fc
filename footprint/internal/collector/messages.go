package collector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/quantself/contenthash"
	"github.com/hazyhaar/quantself/epoch"
	"github.com/hazyhaar/quantself/footprint/internal/locate"
	"github.com/hazyhaar/quantself/footprint/internal/store"
)

// messagesCollector reads Apple Messages chat.db. Dates there are
// nanoseconds since 2001.
type messagesCollector struct{}

func (messagesCollector) Kind() Kind { return Messages }

func (messagesCollector) Descriptor() locate.Descriptor {
	return locate.Descriptor{
		Name:  string(Messages),
		Paths: []string{"~/Library/Messages/chat.db"},
	}
}

func (m messagesCollector) Extract(ctx context.Context, src *sql.DB, dst *store.Store) (Tally, error) {
	var t Tally
	for _, step := range []struct {
		name string
		fn   func(context.Context, *sql.DB, *store.Store, *Tally) error
	}{
		{"chats", m.chats},
		{"contacts", m.contacts},
		{"messages", m.messages},
	} {
		if err := step.fn(ctx, src, dst, &t); err != nil {
			return t, fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return t, nil
}

const chatsQuery = `
SELECT
    c.guid,
    c.chat_identifier,
    c.display_name,
    (SELECT COUNT(*) FROM chat_handle_join WHERE chat_id = c.ROWID),
    (SELECT MAX(m.date) FROM message m
     JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
     WHERE cmj.chat_id = c.ROWID)
FROM chat c`

func (messagesCollector) chats(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, chatsQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var guid sql.NullString
		var lastMessage sql.NullInt64
		c := &store.Chat{}
		if err := rows.Scan(&guid, &c.ChatIdentifier, &c.DisplayName, &c.ParticipantCount, &lastMessage); err != nil {
			return fmt.Errorf("scan chat: %w", err)
		}
		if !nonEmpty(guid) {
			continue
		}
		c.RecordHash = guid.String
		c.LastMessageTime = epoch.AppleNano(lastMessage)
		if err := insert(ctx, dst, t, c); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (messagesCollector) contacts(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, `SELECT id, service FROM handle`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id sql.NullString
		c := &store.Contact{}
		if err := rows.Scan(&id, &c.Service); err != nil {
			return fmt.Errorf("scan handle: %w", err)
		}
		if !nonEmpty(id) {
			continue
		}
		c.HandleID = id.String
		c.RecordHash = contenthash.Of(c.HandleID, c.Service)
		if err := insert(ctx, dst, t, c); err != nil {
			return err
		}
	}
	return rows.Err()
}

const messagesQuery = `
SELECT
    m.guid,
    m.text,
    m.is_from_me,
    m.date,
    m.date_read,
    m.date_delivered,
    h.id,
    c.guid,
    m.service,
    (SELECT COUNT(*) FROM attachment a
     JOIN message_attachment_join maj ON a.ROWID = maj.attachment_id
     WHERE maj.message_id = m.ROWID)
FROM message m
LEFT JOIN handle h ON m.handle_id = h.ROWID
LEFT JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
LEFT JOIN chat c ON cmj.chat_id = c.ROWID
ORDER BY m.date`

func (messagesCollector) messages(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, messagesQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			guid                  sql.NullString
			fromMe                sql.NullInt64
			date, read, delivered sql.NullInt64
			attachments           sql.NullInt64
		)
		msg := &store.Message{}
		if err := rows.Scan(&guid, &msg.Text, &fromMe, &date, &read, &delivered,
			&msg.HandleID, &msg.ChatID, &msg.Service, &attachments); err != nil {
			return fmt.Errorf("scan message: %w", err)
		}
		if !nonEmpty(guid) {
			continue
		}
		ts := epoch.AppleNano(date)
		if !ts.Valid {
			continue
		}
		msg.RecordHash = guid.String
		msg.Timestamp = ts.Int64
		msg.IsFromMe = fromMe.Valid && fromMe.Int64 != 0
		msg.DateRead = epoch.AppleNano(read)
		msg.DateDelivered = epoch.AppleNano(delivered)
		msg.HasAttachment = attachments.Valid && attachments.Int64 > 0
		if err := insert(ctx, dst, t, msg); err != nil {
			return err
		}
	}
	return rows.Err()
}
