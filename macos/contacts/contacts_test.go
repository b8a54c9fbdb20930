package contacts

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nalgeon/be"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type scriptResult struct {
	out string
	err error
}

type bridgeCall struct {
	script string
	args   []string
}

// fakeBridge answers each known script with a canned result.
type fakeBridge struct {
	mu      sync.Mutex
	results map[string]scriptResult
	calls   []bridgeCall
}

func newFakeBridge(results map[string]scriptResult) *fakeBridge {
	return &fakeBridge{results: results}
}

func (f *fakeBridge) Run(ctx context.Context, script []string, args []string) (string, error) {
	name := scriptName(script)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, bridgeCall{script: name, args: append([]string(nil), args...)})
	res := f.results[name]
	return res.out, res.err
}

func (f *fakeBridge) scripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		names = append(names, call.script)
	}
	return names
}

func (f *fakeBridge) argsFor(script string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		if call.script == script {
			return call.args
		}
	}
	return nil
}

func scriptName(script []string) string {
	switch {
	case len(script) == 0:
		return ""
	case &script[0] == &probeScript[0]:
		return "probe"
	case &script[0] == &listScript[0]:
		return "list"
	case &script[0] == &findByNameScript[0]:
		return "name"
	case &script[0] == &findByPhoneScript[0]:
		return "phone"
	default:
		return "unknown"
	}
}

func newTestDirectory(bridge Bridge, maxContacts int) (*Directory, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(Config{Bridge: bridge, MaxContacts: maxContacts, Logger: zap.New(core)}), logs
}

func TestNewDefaults(t *testing.T) {
	dir := New(Config{})
	be.Equal(t, dir.MaxContacts(), DefaultMaxContacts)
	_, ok := dir.bridge.(OSAScript)
	be.True(t, ok)
}

func TestGetAllNumbers(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"list": {out: "John Smith|||555-1234|||  \nNo Phones|||   \nJane Doe|||+15551234|||(555) 000-1111\n"},
	})
	dir, _ := newTestDirectory(bridge, 0)

	got := dir.GetAllNumbers(context.Background())
	be.Equal(t, got, map[string][]string{
		"John Smith": {"555-1234"},
		"Jane Doe":   {"+15551234", "(555) 000-1111"},
	})
	be.Equal(t, bridge.scripts(), []string{"probe", "list"})
	be.Equal(t, bridge.argsFor("list"), []string{"100"})
}

func TestGetAllNumbersBounded(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"list": {out: "A|||1\nB|||2\nC|||3\nD|||4"},
	})
	dir, _ := newTestDirectory(bridge, 3)

	got := dir.GetAllNumbers(context.Background())
	be.Equal(t, len(got), 3)
	_, hasD := got["D"]
	be.True(t, !hasD)
	be.Equal(t, bridge.argsFor("list"), []string{"3"})
}

func TestGetAllNumbersSkipsBrokenRecords(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"list": {out: "Alice|||555-0100\n|||555-0199\nBroken\n\nBob|||555-0200"},
	})
	dir, _ := newTestDirectory(bridge, 0)

	got := dir.GetAllNumbers(context.Background())
	be.Equal(t, got, map[string][]string{
		"Alice": {"555-0100"},
		"Bob":   {"555-0200"},
	})
}

func TestGetAllNumbersQueryFailure(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"list": {err: &Error{Code: ErrorCodeScript, Message: "execution error"}},
	})
	dir, logs := newTestDirectory(bridge, 0)

	got := dir.GetAllNumbers(context.Background())
	be.True(t, got != nil)
	be.Equal(t, len(got), 0)
	be.Equal(t, logs.FilterMessage("listing contacts failed").Len(), 1)
}

func TestAccessDeniedShortCircuits(t *testing.T) {
	denied := &Error{Code: ErrorCodePermissionDenied, Message: "Not authorized to send Apple events to Contacts. (-1743)"}
	bridge := newFakeBridge(map[string]scriptResult{
		"probe": {err: denied},
		"list":  {out: "John Smith|||555-1234"},
		"name":  {out: "John Smith|||555-1234"},
		"phone": {out: "John Smith"},
	})
	dir, logs := newTestDirectory(bridge, 0)
	ctx := context.Background()

	be.True(t, !dir.CheckAccess(ctx))
	be.Equal(t, len(dir.GetAllNumbers(ctx)), 0)
	be.Equal(t, dir.FindNumber(ctx, "John"), []string{})
	name, ok := dir.FindContactByPhone(ctx, "555-1234")
	be.Equal(t, name, "")
	be.True(t, !ok)

	be.Equal(t, bridge.scripts(), []string{"probe", "probe", "probe", "probe"})

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	be.Equal(t, len(warnings), 4)
	be.Equal(t, warnings[0].ContextMap()["code"], "permission_denied")
}

func TestBlankInputsIssueNoQuery(t *testing.T) {
	bridge := newFakeBridge(nil)
	dir, _ := newTestDirectory(bridge, 0)
	ctx := context.Background()

	for _, input := range []string{"", "   ", "\t\n"} {
		be.Equal(t, dir.FindNumber(ctx, input), []string{})
		name, ok := dir.FindContactByPhone(ctx, input)
		be.Equal(t, name, "")
		be.True(t, !ok)
	}
	be.Equal(t, len(bridge.scripts()), 0)
}

func TestFindNumberTargeted(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"name": {out: "John Smith|||555-1234|||555-9999\nAnna Smithers|||555-0000"},
	})
	dir, _ := newTestDirectory(bridge, 0)

	got := dir.FindNumber(context.Background(), "SMITH")
	be.Equal(t, got, []string{"555-1234", "555-9999", "555-0000"})
	be.Equal(t, bridge.argsFor("name"), []string{"smith", "100"})
	be.Equal(t, bridge.scripts(), []string{"probe", "name"})
}

func TestFindNumberFallback(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"name": {out: ""},
		"list": {out: "Alice|||555-0100\nJohn Smith|||555-1234\nJohnny Smith|||555-7777"},
	})
	dir, logs := newTestDirectory(bridge, 0)

	got := dir.FindNumber(context.Background(), "Smith")
	be.Equal(t, got, []string{"555-1234"})
	be.Equal(t, bridge.scripts(), []string{"probe", "name", "list"})
	be.Equal(t, logs.FilterLevelExact(zapcore.DebugLevel).Len(), 1)
}

func TestFindNumberDropsTargetedRowsThatDoNotMatch(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"name": {out: "Bob Stone|||555-0300"},
		"list": {out: "Bob Stone|||555-0300\nJosé Álvarez|||555-0400"},
	})
	dir, _ := newTestDirectory(bridge, 0)

	got := dir.FindNumber(context.Background(), "josé")
	be.Equal(t, got, []string{"555-0400"})
}

func TestFindNumberNoMatch(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"list": {out: "Alice|||555-0100"},
	})
	dir, _ := newTestDirectory(bridge, 0)

	be.Equal(t, dir.FindNumber(context.Background(), "zed"), []string{})
}

func TestFindNumberTargetedFailureSkipsFallback(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"name": {err: errors.New("boom")},
		"list": {out: "John Smith|||555-1234"},
	})
	dir, logs := newTestDirectory(bridge, 0)

	be.Equal(t, dir.FindNumber(context.Background(), "smith"), []string{})
	be.Equal(t, bridge.scripts(), []string{"probe", "name"})
	be.Equal(t, logs.FilterMessage("finding numbers by name failed").Len(), 1)
}

func TestFindContactByPhoneTargeted(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"phone": {out: "Jane Doe\n"},
	})
	dir, _ := newTestDirectory(bridge, 0)

	name, ok := dir.FindContactByPhone(context.Background(), "(555) 123-4")
	be.True(t, ok)
	be.Equal(t, name, "Jane Doe")
	be.Equal(t, bridge.argsFor("phone"), []string{"5551234", "100"})
	be.Equal(t, bridge.scripts(), []string{"probe", "phone"})
}

func TestFindContactByPhoneFallback(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"list": {out: "Alice|||+44 20 7946 0958\nJane Doe|||+15551234"},
	})
	dir, _ := newTestDirectory(bridge, 0)

	name, ok := dir.FindContactByPhone(context.Background(), "555-1234")
	be.True(t, ok)
	be.Equal(t, name, "Jane Doe")
	be.Equal(t, bridge.scripts(), []string{"probe", "phone", "list"})
}

func TestFindContactByPhoneNoMatch(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"list": {out: "Alice|||+44 20 7946 0958\nJane Doe|||+15551234"},
	})
	dir, _ := newTestDirectory(bridge, 0)

	name, ok := dir.FindContactByPhone(context.Background(), "9999999999")
	be.True(t, !ok)
	be.Equal(t, name, "")
}

func TestFindContactByPhoneFallbackFailure(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"list": {err: &Error{Code: ErrorCodeCanceled, Message: context.DeadlineExceeded.Error()}},
	})
	dir, logs := newTestDirectory(bridge, 0)

	_, ok := dir.FindContactByPhone(context.Background(), "555-1234")
	be.True(t, !ok)
	be.Equal(t, logs.FilterMessage("finding contact by phone failed").Len(), 1)
}

func TestConcurrentLookupsAreIndependent(t *testing.T) {
	bridge := newFakeBridge(map[string]scriptResult{
		"name":  {out: "John Smith|||555-1234"},
		"phone": {out: "John Smith"},
		"list":  {out: "John Smith|||555-1234"},
	})
	dir, _ := newTestDirectory(bridge, 0)
	ctx := context.Background()

	type result struct {
		phones []string
		name   string
		ok     bool
		count  int
	}
	results := make([]result, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name, ok := dir.FindContactByPhone(ctx, "5551234")
			results[i] = result{
				phones: dir.FindNumber(ctx, "john"),
				name:   name,
				ok:     ok,
				count:  len(dir.GetAllNumbers(ctx)),
			}
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		be.Equal(t, res.phones, []string{"555-1234"})
		be.True(t, res.ok)
		be.Equal(t, res.name, "John Smith")
		be.Equal(t, res.count, 1)
	}
}
