// Package transfer implements JSON export to files and bulk import from
// files for users and orders.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"user-order-console/internal/adapter/rest"
	"user-order-console/internal/ui/notify"
	apperrors "user-order-console/pkg/errors"
)

// Entity selects what is exported or imported.
type Entity string

const (
	Users  Entity = "users"
	Orders Entity = "orders"
	All    Entity = "all" // export only
)

// Notification texts.
const (
	ExportFailed = "Export failed"
	ImportFailed = "Invalid JSON or import failed"
)

// fileTimestamp is the layout of the timestamp in export file names.
const fileTimestamp = "20060102-150405"

// ParseEntity validates an entity name given on the command line.
func ParseEntity(s string) (Entity, error) {
	switch e := Entity(s); e {
	case Users, Orders, All:
		return e, nil
	}
	return "", fmt.Errorf("unknown entity %q: expected users, orders or all", s)
}

// API is the subset of the REST client used for transfers.
type API interface {
	ExportUsers(ctx context.Context) (json.RawMessage, error)
	ExportOrders(ctx context.Context) (json.RawMessage, error)
	ExportAll(ctx context.Context) (json.RawMessage, error)
	ImportUsers(ctx context.Context, items []json.RawMessage) (*rest.ImportResult, error)
	ImportOrders(ctx context.Context, items []json.RawMessage) (*rest.ImportResult, error)
}

// Control runs exports and imports and reports them through a Notifier.
// It holds no state between attempts, so the same file can be imported
// again.
type Control struct {
	api      API
	dir      string
	notifier notify.Notifier
	bus      *notify.Bus
	log      *zap.Logger
	now      func() time.Time

	busy atomic.Int32
}

// Option configures a Control.
type Option func(*Control)

// WithClock overrides the clock used for export file names.
func WithClock(now func() time.Time) Option {
	return func(c *Control) { c.now = now }
}

// New creates a Control writing exports into dir. bus may be nil.
func New(api API, dir string, notifier notify.Notifier, bus *notify.Bus, log *zap.Logger, opts ...Option) *Control {
	if dir == "" {
		dir = "."
	}
	c := &Control{
		api:      api,
		dir:      dir,
		notifier: notifier,
		bus:      bus,
		log:      log.Named("transfer"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether an export or import is running.
func (c *Control) Busy() bool {
	return c.busy.Load() > 0
}

func (c *Control) enter() func() {
	c.busy.Add(1)
	return func() { c.busy.Add(-1) }
}

// Export downloads entity and writes the response body, indented, to
// <dir>/<entity>-<timestamp>.json. It returns the written path.
func (c *Control) Export(ctx context.Context, entity Entity) (string, error) {
	return c.exportAndReport(ctx, entity, func(error) bool { return false })
}

// exportAndReport runs one export and notifies its outcome unless quiet
// reports the failure as not worth showing.
func (c *Control) exportAndReport(ctx context.Context, entity Entity, quiet func(error) bool) (string, error) {
	defer c.enter()()

	path, err := c.export(ctx, entity)
	if err != nil {
		if quiet(err) {
			c.log.Debug("export abandoned", zap.String("entity", string(entity)), zap.Error(err))
			return "", err
		}
		c.log.Warn("export failed", zap.String("entity", string(entity)), zap.Error(err))
		c.notify(false, ExportFailed)
		return "", err
	}

	c.log.Info("export written", zap.String("entity", string(entity)), zap.String("path", path))
	c.notify(true, exportedMessage(entity))
	return path, nil
}

// ExportMany runs Export for each distinct entity concurrently and returns
// the written paths in first-occurrence order. The first failure cancels
// the others; only that failure is notified.
func (c *Control) ExportMany(ctx context.Context, entities ...Entity) ([]string, error) {
	entities = distinct(entities)
	paths := make([]string, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	// Siblings cancelled by the group stay silent; a cancelled caller does not.
	cancelledBySibling := func(err error) bool {
		return errors.Is(err, context.Canceled) && gctx.Err() != nil && ctx.Err() == nil
	}
	for i, entity := range entities {
		g.Go(func() error {
			path, err := c.exportAndReport(gctx, entity, cancelledBySibling)
			paths[i] = path
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (c *Control) export(ctx context.Context, entity Entity) (string, error) {
	var (
		data json.RawMessage
		err  error
	)
	switch entity {
	case Users:
		data, err = c.api.ExportUsers(ctx)
	case Orders:
		data, err = c.api.ExportOrders(ctx)
	case All:
		data, err = c.api.ExportAll(ctx)
	default:
		return "", fmt.Errorf("unknown entity %q", entity)
	}
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	if err := json.Indent(&body, data, "", "  "); err != nil {
		return "", fmt.Errorf("indent export: %w", err)
	}
	body.WriteByte('\n')

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", entity, c.now().Format(fileTimestamp))
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, body.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// Import reads a JSON file and bulk-creates its items.
func (c *Control) Import(ctx context.Context, entity Entity, path string) (*rest.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, c.importFailed(entity, path, err)
	}
	defer f.Close()

	return c.ImportReader(ctx, entity, filepath.Base(path), f)
}

// ImportReader bulk-creates the items read from r. The content must be a
// JSON array or an object with an "items" array. name identifies the source
// in logs.
func (c *Control) ImportReader(ctx context.Context, entity Entity, name string, r io.Reader) (*rest.ImportResult, error) {
	defer c.enter()()

	items, err := ReadItems(name, r)
	if err != nil {
		return nil, c.importFailed(entity, name, err)
	}

	var res *rest.ImportResult
	switch entity {
	case Users:
		res, err = c.api.ImportUsers(ctx, items)
	case Orders:
		res, err = c.api.ImportOrders(ctx, items)
	default:
		err = fmt.Errorf("cannot import entity %q", entity)
	}
	if err != nil {
		return nil, c.importFailed(entity, name, err)
	}

	c.log.Info("import finished",
		zap.String("entity", string(entity)),
		zap.String("source", name),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
	)
	c.notify(true, fmt.Sprintf("Imported: %d, skipped: %d", res.Created, res.Skipped))
	c.bus.Publish(topicOf(entity))
	return res, nil
}

func (c *Control) importFailed(entity Entity, name string, err error) error {
	c.log.Warn("import failed", zap.String("entity", string(entity)), zap.String("source", name), zap.Error(err))
	c.notify(false, ImportFailed)
	return err
}

// ReadItems parses import content: either a bare JSON array or an object
// whose "items" field is an array. Elements are returned untouched.
func ReadItems(name string, r io.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewMalformedFileError(name, err)
	}
	data = bytes.TrimSpace(data)

	var items []json.RawMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, apperrors.NewMalformedFileError(name, err)
		}
		return items, nil
	}

	var wrapped struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, apperrors.NewMalformedFileError(name, err)
	}
	if err := json.Unmarshal(wrapped.Items, &items); err != nil || items == nil {
		return nil, apperrors.NewMalformedFileError(name, apperrors.ErrNoItems)
	}
	return items, nil
}

func (c *Control) notify(ok bool, msg string) {
	if c.notifier == nil {
		return
	}
	if ok {
		c.notifier.Success(msg)
	} else {
		c.notifier.Error(msg)
	}
}

func distinct(entities []Entity) []Entity {
	seen := make(map[Entity]bool, len(entities))
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

func exportedMessage(entity Entity) string {
	switch entity {
	case Users:
		return "Users exported"
	case Orders:
		return "Orders exported"
	default:
		return "Data exported"
	}
}

func topicOf(entity Entity) notify.Topic {
	if entity == Orders {
		return notify.TopicOrders
	}
	return notify.TopicUsers
}
