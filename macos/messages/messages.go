package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/spachava753/contactdir/macos/contacts"
)

const (
	messagesDBRelativePath = "Library/Messages/chat.db"
	appleReferenceUnix     = int64(978307200) // 2001-01-01T00:00:00Z

	defaultUnreadLimit   = 25
	defaultMessagesLimit = 50
	maxMessagesLimit     = 500

	// Handles with fewer digits (short codes) are not looked up in Contacts.
	minPhoneDigits = 7
)

// Directory is the part of *contacts.Directory used to name handles.
type Directory interface {
	Snapshot(ctx context.Context) contacts.Snapshot
	FindNumber(ctx context.Context, name string) []string
}

// Store reads the local Messages database.
type Store struct {
	// Path to chat.db. Defaults to ~/Library/Messages/chat.db.
	Path string
	// Contacts names phone handles. Optional.
	Contacts Directory
	// Logger defaults to zap.L().
	Logger *zap.Logger
}

// MessageQuery controls filters for [Store.ListMessages].
//
// Contact is a phone number, email handle, or contact name. Names are resolved
// to phone numbers through Store.Contacts.
type MessageQuery struct {
	Contact    string
	UnreadOnly bool
	Limit      int
}

// Message is one message row from the local Messages database.
type Message struct {
	RowID          int64
	GUID           string
	Text           string
	IsFromMe       bool
	IsRead         bool
	SentAt         time.Time
	ReadAt         *time.Time
	Handle         string
	ContactName    string
	ChatIdentifier string
	ChatID         string
	Service        string
}

// UnreadConversation summarizes unread inbound messages for one chat.
type UnreadConversation struct {
	ChatIdentifier string
	ChatID         string
	Handle         string
	ContactName    string
	Service        string
	UnreadCount    int
	LastMessage    time.Time
}

var errNoContactMatch = errors.New("messages: no phone numbers found for contact")

// ListUnreadConversations returns chats with at least one unread inbound
// message, newest first.
func (s *Store) ListUnreadConversations(ctx context.Context, limit int) ([]UnreadConversation, error) {
	if limit <= 0 {
		limit = defaultUnreadLimit
	}

	const query = `
WITH unread_stats AS (
	SELECT
		cmj.chat_id AS chat_id,
		MAX(m.date) AS last_date,
		SUM(CASE WHEN m.is_from_me = 0 AND m.is_read = 0 THEN 1 ELSE 0 END) AS unread_count
	FROM chat_message_join cmj
	JOIN message m ON m.ROWID = cmj.message_id
	WHERE COALESCE(m.is_empty, 0) = 0
	GROUP BY cmj.chat_id
), first_handle AS (
	SELECT chat_id, MIN(handle_id) AS handle_id
	FROM chat_handle_join
	GROUP BY chat_id
)
SELECT
	COALESCE(c.chat_identifier, ''),
	COALESCE(c.service_name, ''),
	COALESCE(c.display_name, ''),
	COALESCE(h.id, ''),
	COALESCE(h.uncanonicalized_id, ''),
	COALESCE(us.last_date, 0),
	COALESCE(us.unread_count, 0)
FROM unread_stats us
JOIN chat c ON c.ROWID = us.chat_id
LEFT JOIN first_handle fh ON fh.chat_id = c.ROWID
LEFT JOIN handle h ON h.ROWID = fh.handle_id
WHERE us.unread_count > 0
ORDER BY us.last_date DESC
LIMIT ?;
`
	records, err := s.query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	names := s.namer(ctx, len(records))
	result := make([]UnreadConversation, 0, len(records))
	for _, row := range records {
		if len(row) < 7 {
			continue
		}
		unreadCount, _ := strconv.Atoi(row[6])
		identifier := row[0]
		handle := firstNonEmpty(row[3], row[4], identifier)

		result = append(result, UnreadConversation{
			ChatIdentifier: identifier,
			ChatID:         buildChatID(identifier),
			Handle:         handle,
			ContactName:    firstNonEmpty(names.name(handle), row[2], handle),
			Service:        row[1],
			UnreadCount:    unreadCount,
			LastMessage:    appleNanoToTime(row[5]),
		})
	}
	return result, nil
}

// ListMessages returns the newest messages, optionally limited to one contact
// and to unread inbound messages.
func (s *Store) ListMessages(ctx context.Context, q MessageQuery) ([]Message, error) {
	if q.Limit <= 0 {
		q.Limit = defaultMessagesLimit
	}
	if q.Limit > maxMessagesLimit {
		q.Limit = maxMessagesLimit
	}

	where := []string{"COALESCE(m.is_empty, 0) = 0"}
	var args []any
	if contact := strings.TrimSpace(q.Contact); contact != "" {
		handles, err := s.contactHandles(ctx, contact)
		if err != nil {
			return nil, err
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(handles)), ",")
		where = append(where, fmt.Sprintf("(h.id IN (%[1]s) OR h.uncanonicalized_id IN (%[1]s) OR c.chat_identifier IN (%[1]s))", placeholders))
		for i := 0; i < 3; i++ {
			for _, handle := range handles {
				args = append(args, handle)
			}
		}
	}
	if q.UnreadOnly {
		where = append(where, "m.is_from_me = 0", "m.is_read = 0")
	}
	args = append(args, q.Limit)

	query := fmt.Sprintf(`
WITH chat_for_message AS (
	SELECT message_id, MIN(chat_id) AS chat_id
	FROM chat_message_join
	GROUP BY message_id
)
SELECT
	m.ROWID,
	COALESCE(m.guid, ''),
	COALESCE(m.text, ''),
	COALESCE(m.is_from_me, 0),
	COALESCE(m.is_read, 0),
	COALESCE(m.date, 0),
	COALESCE(m.date_read, 0),
	COALESCE(h.id, ''),
	COALESCE(h.uncanonicalized_id, ''),
	COALESCE(c.chat_identifier, ''),
	COALESCE(c.service_name, ''),
	COALESCE(c.display_name, '')
FROM message m
LEFT JOIN handle h ON h.ROWID = m.handle_id
LEFT JOIN chat_for_message cfm ON cfm.message_id = m.ROWID
LEFT JOIN chat c ON c.ROWID = cfm.chat_id
WHERE %s
ORDER BY m.date DESC
LIMIT ?;
`, strings.Join(where, " AND "))

	records, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	names := s.namer(ctx, len(records))
	messages := make([]Message, 0, len(records))
	for _, row := range records {
		if len(row) < 12 {
			continue
		}
		rowID, _ := strconv.ParseInt(row[0], 10, 64)

		var readAt *time.Time
		if rawRead := strings.TrimSpace(row[6]); rawRead != "" && rawRead != "0" {
			if t := appleNanoToTime(rawRead); !t.IsZero() {
				readAt = &t
			}
		}

		identifier := row[9]
		handle := firstNonEmpty(row[7], row[8], identifier)
		messages = append(messages, Message{
			RowID:          rowID,
			GUID:           row[1],
			Text:           row[2],
			IsFromMe:       parseBoolInt(row[3]),
			IsRead:         parseBoolInt(row[4]),
			SentAt:         appleNanoToTime(row[5]),
			ReadAt:         readAt,
			Handle:         handle,
			ContactName:    firstNonEmpty(names.name(handle), row[11], handle),
			ChatIdentifier: identifier,
			ChatID:         buildChatID(identifier),
			Service:        row[10],
		})
	}
	return messages, nil
}

// contactHandles expands a contact query into the handle spellings chat.db
// may hold for it.
func (s *Store) contactHandles(ctx context.Context, contact string) ([]string, error) {
	if looksLikeHandle(contact) {
		return handleCandidates(contact), nil
	}
	if s.Contacts == nil {
		return []string{contact}, nil
	}
	phones := s.Contacts.FindNumber(ctx, contact)
	if len(phones) == 0 {
		return nil, fmt.Errorf("%w: %q", errNoContactMatch, contact)
	}
	var handles []string
	for _, phone := range phones {
		handles = append(handles, handleCandidates(phone)...)
	}
	return dedupe(handles), nil
}

// handleCandidates returns the raw handle plus E.164-style variants of its
// digits. Ten-digit numbers are assumed to be missing a +1 country code.
func handleCandidates(handle string) []string {
	handle = strings.TrimSpace(handle)
	candidates := []string{handle}
	if strings.Contains(handle, "@") {
		return candidates
	}
	n := contacts.NormalizePhone(handle)
	if n == "" {
		return candidates
	}
	candidates = append(candidates, n)
	if !strings.HasPrefix(n, "+") {
		candidates = append(candidates, "+"+n)
		if len(n) == 10 {
			candidates = append(candidates, "+1"+n)
		}
	}
	return dedupe(candidates)
}

type handleNamer struct {
	snap contacts.Snapshot
}

func (n handleNamer) name(handle string) string {
	if !isPhoneHandle(handle) {
		return ""
	}
	name, _ := n.snap.ContactByPhone(handle)
	return name
}

// namer takes one contacts snapshot for the whole result set. No rows, no
// enumeration.
func (s *Store) namer(ctx context.Context, rows int) handleNamer {
	if s.Contacts == nil || rows == 0 {
		return handleNamer{}
	}
	snap := s.Contacts.Snapshot(ctx)
	s.logger().Debug("labeling handles from contacts", zap.Int("contacts", snap.Len()), zap.Int("rows", rows))
	return handleNamer{snap: snap}
}

func (s *Store) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.L().Named("messages")
	}
	return s.Logger
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([][]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			s.logger().Warn("closing messages database failed", zap.Error(err))
		}
	}()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("messages: sqlite query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("messages: reading sqlite columns failed: %w", err)
	}

	records := make([][]string, 0, 64)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePointers := make([]any, len(columns))
		for i := range values {
			valuePointers[i] = &values[i]
		}
		if err := rows.Scan(valuePointers...); err != nil {
			return nil, fmt.Errorf("messages: scanning sqlite row failed: %w", err)
		}

		record := make([]string, len(columns))
		for i, value := range values {
			switch typed := value.(type) {
			case nil:
				record[i] = ""
			case []byte:
				record[i] = string(typed)
			default:
				record[i] = fmt.Sprint(typed)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("messages: iterating sqlite rows failed: %w", err)
	}
	return records, nil
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	dbPath, err := s.dbPath()
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", strings.ReplaceAll(dbPath, " ", "%20"))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("messages: opening sqlite database failed: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("messages: connecting to sqlite database failed: %w", err)
	}
	return db, nil
}

func (s *Store) dbPath() (string, error) {
	path := s.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("messages: unable to resolve home directory: %w", err)
		}
		path = filepath.Join(home, messagesDBRelativePath)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("messages: chat database unavailable at %s: %w", path, err)
	}
	return path, nil
}

func appleNanoToTime(raw string) time.Time {
	nanos, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || nanos <= 0 {
		return time.Time{}
	}
	sec := nanos / int64(time.Second)
	nsec := nanos % int64(time.Second)
	return time.Unix(appleReferenceUnix+sec, nsec).UTC()
}

func buildChatID(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ""
	}
	return "any;-;" + identifier
}

func parseBoolInt(raw string) bool {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return i != 0
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func looksLikeHandle(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if strings.Contains(value, "@") {
		return true
	}
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '+' {
			return true
		}
	}
	return false
}

func isPhoneHandle(handle string) bool {
	if strings.Contains(handle, "@") {
		return false
	}
	return len(strings.TrimPrefix(contacts.NormalizePhone(handle), "+")) >= minPhoneDigits
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
