// Package contactdir is a documentation index for the packages in this module.
//
// Import the subpackages directly:
//   - github.com/spachava753/contactdir/macos/contacts
//     Read-only phone lookups against the macOS Contacts app.
//   - github.com/spachava753/contactdir/macos/messages
//     Unread conversations and recent messages from the Messages database,
//     labelled with contact names.
//   - github.com/spachava753/contactdir/mcptools
//     The contacts lookups served as Model Context Protocol tools.
//
// The contactdir command (cmd/contactdir) wraps all three for the shell.
//
// Discovery:
//   - go doc github.com/spachava753/contactdir
//   - go doc github.com/spachava753/contactdir/macos/contacts
package contactdir
