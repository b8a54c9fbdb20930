// Package mcptools exposes the contacts lookups as Model Context Protocol
// tools.
package mcptools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/spachava753/contactdir/macos/contacts"
)

const serverName = "contactdir"

// Tool names registered by NewServer.
const (
	ToolList        = "contacts_list"
	ToolFindNumber  = "contacts_find_number"
	ToolFindByPhone = "contacts_find_by_phone"
)

// Directory is the lookup surface served as tools. *contacts.Directory
// satisfies it.
type Directory interface {
	GetAllNumbers(ctx context.Context) map[string][]string
	FindNumber(ctx context.Context, name string) []string
	FindContactByPhone(ctx context.Context, phone string) (string, bool)
}

// Config configures NewServer.
type Config struct {
	Directory Directory
	Version   string
	// Timeout bounds each tool call. Defaults to contacts.DefaultTimeout.
	Timeout time.Duration
	Logger  *zap.Logger
}

// ListInput takes no arguments.
type ListInput struct{}

// ListOutput maps contact names to phone numbers.
type ListOutput struct {
	Contacts map[string][]string `json:"contacts" jsonschema:"contact name to phone numbers"`
}

// FindNumberInput selects contacts by name.
type FindNumberInput struct {
	Name string `json:"name" jsonschema:"full or partial contact name, case-insensitive"`
}

// FindNumberOutput lists the matched phone numbers.
type FindNumberOutput struct {
	Phones []string `json:"phones" jsonschema:"phone numbers as stored in Contacts"`
}

// FindByPhoneInput selects a contact by phone number.
type FindByPhoneInput struct {
	Phone string `json:"phone" jsonschema:"phone number in any common format"`
}

// FindByPhoneOutput names the owning contact, if any.
type FindByPhoneOutput struct {
	Found bool   `json:"found" jsonschema:"whether a contact owns the number"`
	Name  string `json:"name,omitempty" jsonschema:"contact name"`
}

// NewServer returns an MCP server with the three lookup tools registered.
func NewServer(cfg Config) *mcp.Server {
	if cfg.Directory == nil {
		cfg.Directory = contacts.New(contacts.Config{Logger: cfg.Logger})
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = contacts.DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}
	h := &handlers{dir: cfg.Directory, timeout: cfg.Timeout, logger: cfg.Logger.Named("mcp")}

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: cfg.Version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolList,
		Description: "List contacts that have phone numbers, keyed by contact name.",
	}, h.list)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolFindNumber,
		Description: "Find phone numbers for contacts whose name contains the given text.",
	}, h.findNumber)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolFindByPhone,
		Description: "Find the contact name that owns a phone number.",
	}, h.findByPhone)
	return server
}

type handlers struct {
	dir     Directory
	timeout time.Duration
	logger  *zap.Logger
}

func (h *handlers) list(ctx context.Context, req *mcp.CallToolRequest, in ListInput) (*mcp.CallToolResult, ListOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	numbers := h.dir.GetAllNumbers(ctx)
	if numbers == nil {
		numbers = map[string][]string{}
	}
	h.logger.Debug("tool call", zap.String("tool", ToolList), zap.Int("contacts", len(numbers)))
	return nil, ListOutput{Contacts: numbers}, nil
}

func (h *handlers) findNumber(ctx context.Context, req *mcp.CallToolRequest, in FindNumberInput) (*mcp.CallToolResult, FindNumberOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	phones := h.dir.FindNumber(ctx, in.Name)
	if phones == nil {
		phones = []string{}
	}
	h.logger.Debug("tool call", zap.String("tool", ToolFindNumber), zap.Int("phones", len(phones)))
	return nil, FindNumberOutput{Phones: phones}, nil
}

func (h *handlers) findByPhone(ctx context.Context, req *mcp.CallToolRequest, in FindByPhoneInput) (*mcp.CallToolResult, FindByPhoneOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	name, ok := h.dir.FindContactByPhone(ctx, in.Phone)
	h.logger.Debug("tool call", zap.String("tool", ToolFindByPhone), zap.Bool("found", ok))
	return nil, FindByPhoneOutput{Found: ok, Name: name}, nil
}
