package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"user-order-console/internal/ui/debounce"
	"user-order-console/internal/ui/notify"
	"user-order-console/internal/ui/render"
	"user-order-console/internal/usecase/listing"
	"user-order-console/internal/usecase/transfer"
)

const browseHelp = "commands: n next, p previous, /text search, r refresh, i <file> import, q quit"

func (c *cli) browseCmd() *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:       "browse users|orders",
		Short:     "Page through a list interactively",
		Long:      "Reads commands from stdin. " + browseHelp + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(transfer.Users), string(transfer.Orders)},
		RunE: func(cmd *cobra.Command, args []string) error {
			d := c.app.Container
			delay := c.app.Config.UI.SearchDebounce()
			opts := c.listOptions(1, limit, "")

			switch entity := transfer.Entity(args[0]); entity {
			case transfer.Users:
				view := listing.NewUsers(d.Client.ListUsers, d.Logger, opts)
				s := newSession(view, render.Users, cmd.OutOrStdout(), delay, c.importer(entity))
				return s.run(cmd.Context(), cmd.InOrStdin(), d.Bus, notify.TopicUsers)
			case transfer.Orders:
				view := listing.NewOrders(d.Client.ListOrders, d.Logger, opts)
				s := newSession(view, render.Orders, cmd.OutOrStdout(), delay, c.importer(entity))
				return s.run(cmd.Context(), cmd.InOrStdin(), d.Bus, notify.TopicOrders)
			}
			return fmt.Errorf("unknown list %q: expected users or orders", args[0])
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", 0, "page size (defaults to PAGE_SIZE)")
	return cmd
}

// importer imports files of one entity through the shared transfer control.
type importer struct {
	control *transfer.Control
	entity  transfer.Entity
}

func (c *cli) importer(entity transfer.Entity) importer {
	return importer{control: c.app.Container.Transfer, entity: entity}
}

// session drives one list view from line-based input.
type session[T any] struct {
	view   *listing.View[T]
	draw   func(io.Writer, listing.State[T]) error
	delay  time.Duration
	imp    importer
	search *debounce.Input

	bg        sync.WaitGroup
	importing atomic.Bool // this session's import; Busy covers the shared control

	mu  sync.Mutex
	out io.Writer
}

func newSession[T any](view *listing.View[T], draw func(io.Writer, listing.State[T]) error, out io.Writer, delay time.Duration, imp importer) *session[T] {
	return &session[T]{view: view, draw: draw, out: out, delay: delay, imp: imp}
}

func (s *session[T]) show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.draw(s.out, s.view.State())
	if s.search != nil && s.search.Pending() {
		fmt.Fprintln(s.out, "(search pending)")
	}
	fmt.Fprint(s.out, "> ")
}

// importFile runs the import in the background; the view refreshes through
// the bus once it succeeds. Only one transfer runs at a time.
func (s *session[T]) importFile(ctx context.Context, path string) {
	if s.imp.control.Busy() || !s.importing.CompareAndSwap(false, true) {
		s.println("a transfer is already running")
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer s.importing.Store(false)
		// Failures are already notified.
		if _, err := s.imp.control.Import(ctx, s.imp.entity, path); err != nil {
			return
		}
		s.view.Wait()
		s.show()
	}()
}

func (s *session[T]) println(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, msg)
}

func (s *session[T]) run(ctx context.Context, in io.Reader, bus *notify.Bus, topic notify.Topic) error {
	defer s.view.Close()
	unsubscribe := s.view.Subscribe(ctx, bus, topic)
	defer unsubscribe()
	defer s.bg.Wait()

	search := debounce.New(s.delay, func(q string) {
		s.view.SetQuery(ctx, q)
		s.show()
	})
	s.search = search
	defer search.Close()

	s.view.Load(ctx)
	s.show()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "q":
			return nil
		case line == "n":
			s.view.Next(ctx)
			s.show()
		case line == "p":
			s.view.Prev(ctx)
			s.show()
		case line == "r":
			s.view.Refresh(ctx)
			s.show()
		case strings.HasPrefix(line, "/"):
			search.Type(strings.TrimPrefix(line, "/"))
		case strings.HasPrefix(line, "i "):
			s.importFile(ctx, strings.TrimSpace(strings.TrimPrefix(line, "i ")))
		default:
			s.println(browseHelp)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}
