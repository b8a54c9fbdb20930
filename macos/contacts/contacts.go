package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxContacts bounds how many people a single query walks.
	DefaultMaxContacts = 100
	// DefaultTimeout is the per-call deadline callers should apply. The
	// Directory itself never adds a deadline.
	DefaultTimeout = 5000 * time.Millisecond
)

// ErrUnsupportedPlatform is returned when the contacts bridge is unavailable on
// the current OS/runtime.
var ErrUnsupportedPlatform = errors.New("contacts: unsupported platform")

// ErrorCode classifies bridge errors.
type ErrorCode string

const (
	// ErrorCodePermissionDenied indicates Automation access to Contacts is missing.
	ErrorCodePermissionDenied ErrorCode = "permission_denied"
	// ErrorCodeUnavailable indicates Contacts or osascript could not be reached.
	ErrorCodeUnavailable ErrorCode = "unavailable"
	// ErrorCodeCanceled indicates the caller's context ended the query.
	ErrorCodeCanceled ErrorCode = "canceled"
	// ErrorCodeScript indicates the script itself failed.
	ErrorCodeScript ErrorCode = "script"
)

// Error is a typed package error for bridge operations.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e == nil {
		return "contacts: <nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("contacts: %s", e.Code)
	}
	return fmt.Sprintf("contacts: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Contact is one address-book person with at least one phone number.
type Contact struct {
	Name   string
	Phones []string
}

// Config configures a Directory. Zero fields take defaults.
type Config struct {
	// Bridge runs scripts against Contacts. Defaults to OSAScript{}.
	Bridge Bridge
	// MaxContacts bounds each query. Defaults to DefaultMaxContacts.
	MaxContacts int
	// Logger receives diagnostics for swallowed failures. Defaults to zap.L().
	Logger *zap.Logger
}

// Directory answers read-only phone lookups against the Contacts app.
//
// Every exported method degrades to an empty result on failure; errors are
// logged, never returned. A Directory holds no mutable state and is safe for
// concurrent use.
type Directory struct {
	bridge      Bridge
	maxContacts int
	logger      *zap.Logger
}

// New returns a Directory for cfg.
func New(cfg Config) *Directory {
	if cfg.Bridge == nil {
		cfg.Bridge = OSAScript{}
	}
	if cfg.MaxContacts <= 0 {
		cfg.MaxContacts = DefaultMaxContacts
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}
	return &Directory{
		bridge:      cfg.Bridge,
		maxContacts: cfg.MaxContacts,
		logger:      cfg.Logger.Named("contacts"),
	}
}

// MaxContacts reports the per-query bound in effect.
func (d *Directory) MaxContacts() int {
	return d.maxContacts
}

// CheckAccess probes Contacts with a read-only query. It reports false, after
// logging the cause, when the app is unreachable or access is denied.
func (d *Directory) CheckAccess(ctx context.Context) bool {
	if _, err := d.bridge.Run(ctx, probeScript, nil); err != nil {
		d.logger.Warn("cannot access Contacts app; grant Automation access in System Settings > Privacy & Security",
			zap.String("code", string(codeOf(err))),
			zap.Error(err),
		)
		return false
	}
	return true
}

// GetAllNumbers returns contact name -> phone numbers for up to MaxContacts
// people. Contacts without phones are omitted. Returns an empty map on failure.
func (d *Directory) GetAllNumbers(ctx context.Context) map[string][]string {
	return d.Snapshot(ctx).Numbers()
}

// Snapshot runs one bulk enumeration and returns it in enumeration order.
// Returns an empty Snapshot on failure.
func (d *Directory) Snapshot(ctx context.Context) Snapshot {
	if !d.CheckAccess(ctx) {
		return Snapshot{}
	}
	snap, err := d.snapshot(ctx)
	if err != nil {
		d.logger.Warn("listing contacts failed", zap.Error(err))
		return Snapshot{}
	}
	return snap
}

func (d *Directory) snapshot(ctx context.Context) (Snapshot, error) {
	out, err := d.bridge.Run(ctx, listScript, []string{itoa(d.maxContacts)})
	if err != nil {
		return Snapshot{}, err
	}
	return newSnapshot(parseRows(out), d.maxContacts), nil
}

// FindNumber returns the phone numbers of contacts whose name contains name,
// ignoring case. If the targeted query finds nothing, the first contact in a
// bulk enumeration whose name matches is used instead. Returns an empty slice
// for blank input, no match, or failure.
func (d *Directory) FindNumber(ctx context.Context, name string) []string {
	if strings.TrimSpace(name) == "" {
		return []string{}
	}
	if !d.CheckAccess(ctx) {
		return []string{}
	}

	query := foldName(name)
	phones, err := d.findNumberTargeted(ctx, query)
	if err != nil {
		d.logger.Warn("finding numbers by name failed", zap.String("name", name), zap.Error(err))
		return []string{}
	}
	if len(phones) > 0 {
		return phones
	}

	d.logger.Debug("no direct name match, scanning all contacts", zap.String("name", name))
	snap, err := d.snapshot(ctx)
	if err != nil {
		d.logger.Warn("finding numbers by name failed", zap.String("name", name), zap.Error(err))
		return []string{}
	}
	if phones, ok := snap.PhonesByName(name); ok {
		return phones
	}
	return []string{}
}

func (d *Directory) findNumberTargeted(ctx context.Context, query string) ([]string, error) {
	out, err := d.bridge.Run(ctx, findByNameScript, []string{query, itoa(d.maxContacts)})
	if err != nil {
		return nil, err
	}
	phones := []string{}
	for _, c := range parseRows(out) {
		if !nameContains(c.Name, query) {
			continue
		}
		phones = append(phones, c.Phones...)
	}
	return phones, nil
}

// FindContactByPhone returns the name of the first contact owning phone. It
// tries raw containment against stored values first, then normalized matching
// over a bulk enumeration. ok is false for blank input, no match, or failure.
func (d *Directory) FindContactByPhone(ctx context.Context, phone string) (name string, ok bool) {
	if strings.TrimSpace(phone) == "" {
		return "", false
	}
	if !d.CheckAccess(ctx) {
		return "", false
	}

	search := NormalizePhone(phone)
	out, err := d.bridge.Run(ctx, findByPhoneScript, []string{search, itoa(d.maxContacts)})
	if err != nil {
		d.logger.Warn("finding contact by phone failed", zap.String("phone", phone), zap.Error(err))
		return "", false
	}
	if name = firstLine(out); name != "" {
		return name, true
	}

	d.logger.Debug("no direct phone match, scanning all contacts", zap.String("phone", phone))
	snap, err := d.snapshot(ctx)
	if err != nil {
		d.logger.Warn("finding contact by phone failed", zap.String("phone", phone), zap.Error(err))
		return "", false
	}
	return snap.ContactByPhone(phone)
}

var (
	defaultOnce sync.Once
	defaultDir  *Directory
)

func defaultDirectory() *Directory {
	defaultOnce.Do(func() {
		defaultDir = New(Config{})
	})
	return defaultDir
}

// GetAllNumbers lists contacts with phone numbers using the default Directory.
func GetAllNumbers(ctx context.Context) map[string][]string {
	return defaultDirectory().GetAllNumbers(ctx)
}

// FindNumber finds phone numbers by partial name using the default Directory.
func FindNumber(ctx context.Context, name string) []string {
	return defaultDirectory().FindNumber(ctx, name)
}

// FindContactByPhone finds a contact name by phone using the default Directory.
func FindContactByPhone(ctx context.Context, phone string) (string, bool) {
	return defaultDirectory().FindContactByPhone(ctx, phone)
}
