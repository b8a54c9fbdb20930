// Package messages reads the local macOS Messages database and labels
// conversations with names from the Contacts app.
//
// Data sources
//
//   - SQLite (~/Library/Messages/chat.db), opened read-only.
//   - Contacts.app through package contacts, for handle -> name labels.
//
// Exported API
//
//  1. Store.ListUnreadConversations(ctx, limit)
//     Which chats currently have unread inbound messages.
//  2. Store.ListMessages(ctx, query)
//     Newest messages, filtered by Contact (phone, email handle, or a contact
//     name resolved through Contacts) and UnreadOnly.
//
// Each call takes at most one Contacts enumeration and resolves every phone
// handle in the result against it with the reverse-phone matching rules.
// Email handles and short codes are not looked up. Without a Contacts
// directory, names fall back to the chat display name or the raw handle.
//
// Operational notes
//
//   - This package never writes to chat.db and never sends messages.
//   - Reading chat.db requires Full Disk Access for the calling process.
//   - SQLite access uses github.com/mattn/go-sqlite3 (CGO required).
package messages
