// Package contacts provides read-only phone lookups against the macOS
// Contacts app.
//
// The package exposes three lookups:
//
//   - GetAllNumbers: contact name -> phone numbers for up to MaxContacts people.
//   - FindNumber: phone numbers for contacts whose name contains a query.
//   - FindContactByPhone: the contact name owning a phone number.
//
// Each is available as a package function over a default Directory, or as a
// method on a Directory built with New.
//
// # Failure Model
//
// Lookups never return errors. Every call first probes Contacts; if the probe
// fails (Automation permission denied, Contacts unavailable, non-darwin
// platform) or the query itself fails, the failure is logged through zap and
// the call returns its empty value: an empty map, an empty slice, or ok=false.
// Callers treat "not found" and "failed" the same way.
//
// A single unreadable person or phone value is skipped; it does not fail the
// enumeration.
//
// # Matching
//
// FindNumber issues a targeted name query first. If it returns nothing, a bulk
// enumeration is scanned and the first contact whose lower-cased name contains
// the lower-cased query wins. Results are never merged across contacts in this
// fallback.
//
// FindContactByPhone issues a targeted query comparing stored values against
// the normalized input by raw substring containment in both directions. If that
// finds nothing, a bulk enumeration is scanned with PhoneMatches, which also
// tolerates a missing "+" or "+1" prefix. Short inputs can match loosely; the
// first matching contact in enumeration order wins.
//
// # Platform
//
// The default Bridge is OSAScript, which runs AppleScript through
// /usr/bin/osascript. User input reaches scripts only through argv. The calling
// process needs Automation permission to control Contacts.app (System Settings
// -> Privacy & Security -> Automation). Non-darwin builds report
// ErrUnsupportedPlatform through the logged error.
//
// Lookups honor ctx cancellation but add no deadline of their own; apply
// DefaultTimeout or your own with context.WithTimeout.
//
// # Composition Examples
//
// 1) Dial-by-name:
//
//	ctx, cancel := context.WithTimeout(context.Background(), contacts.DefaultTimeout)
//	defer cancel()
//	phones := contacts.FindNumber(ctx, "priya")
//	if len(phones) == 0 {
//		// not found or Contacts unavailable
//	}
//
// 2) Label many handles with one enumeration:
//
//	dir := contacts.New(contacts.Config{Logger: logger})
//	snap := dir.Snapshot(ctx)
//	for _, handle := range handles {
//		if name, ok := snap.ContactByPhone(handle); ok {
//			// use name
//		}
//	}
package contacts
