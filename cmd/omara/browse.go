package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/erazemk/omara/internal/cache"
	"github.com/erazemk/omara/internal/filter"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/wardrobe"
)

const browseHelp = `Commands:
  name <text>        filter by name (applied after a short pause)
  brand <text>       filter by brand (applied after a short pause)
  category <value>   filter by category: shirt, pants, shoes, jacket, accessory, other
  color <value>      filter by color
  clear [field]      clear one filter or all of them
  filters            show the active filters
  ls                 show the current list
  refresh            fetch the list again
  rm <id>            delete an item
  help               show this help
  exit               leave
`

// browser is the state behind "omara browse". Lines go to exec; list
// updates arrive from the view.
type browser struct {
	app     *wardrobe.App
	filters *filter.Store
	view    *wardrobe.View

	mu  sync.Mutex
	out io.Writer
}

func newBrowser(app *wardrobe.App, out io.Writer, opts ...filter.Option) *browser {
	b := &browser{app: app, out: out}
	b.filters = app.NewFilters(opts...)
	b.view = app.NewView(b.filters, b.onResult)
	return b
}

func (b *browser) Close() {
	b.view.Close()
	b.filters.Close()
}

func (b *browser) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

func (b *browser) onResult(r cache.Result) {
	switch r.Status {
	case cache.StatusSuccess:
		if r.Stale {
			return
		}
		b.printList(r)
	case cache.StatusError:
		if b.app.CheckAuth(r.Err) {
			b.printf("Session expired; run 'omara login'.\n")
			return
		}
		b.printf("Could not load items: %v\n", r.Err)
		if len(r.Items) > 0 {
			b.printf("Showing the last list.\n")
		}
	}
}

func (b *browser) printList(r cache.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, "\n[%s]\n", describe(r.Criteria))
	printItems(b.out, r.Items)
}

func describe(f model.FilterCriteria) string {
	if f.IsZero() {
		return "all items"
	}
	var parts []string
	for _, field := range model.FilterFields {
		if v := f.Get(field); v != "" {
			parts = append(parts, fmt.Sprintf("%s=%q", field, v))
		}
	}
	return strings.Join(parts, " ")
}

// prompt shows how many filters are active.
func (b *browser) prompt() string {
	if n := b.filters.ActiveCount(); n > 0 {
		return fmt.Sprintf("omara (%d)> ", n)
	}
	return "omara> "
}

var errQuit = errors.New("quit")

// exec runs one command line. It returns errQuit on exit.
func (b *browser) exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(word) {
	case "exit", "quit", "q":
		return errQuit
	case "help", "?":
		b.printf("%s", browseHelp)
	case "name", "brand", "color":
		b.filters.SetField(model.FilterField(strings.ToLower(word)), rest)
	case "category", "cat":
		if rest == "" {
			b.filters.ClearField(model.FieldCategory)
			return nil
		}
		cat, err := model.ParseCategory(rest)
		if err != nil {
			return err
		}
		b.filters.SetField(model.FieldCategory, string(cat))
	case "clear":
		if rest == "" {
			b.filters.ClearAll()
			return nil
		}
		field, err := model.ParseFilterField(rest)
		if err != nil {
			return err
		}
		b.filters.ClearField(field)
	case "filters":
		cur, deb := b.filters.Current(), b.filters.Debounced()
		b.printf("Filters: %s (%d active)\n", describe(cur), b.filters.ActiveCount())
		if cur != deb {
			b.printf("Showing: %s\n", describe(deb))
		}
	case "ls", "list":
		r := b.view.Result()
		switch r.Status {
		case cache.StatusLoading:
			b.printf("Loading...\n")
		case cache.StatusIdle:
			b.printf("Not loaded; are you logged in?\n")
		default:
			b.printList(r)
		}
	case "refresh":
		b.view.Retry()
	case "rm", "delete":
		if rest == "" {
			return errors.New("usage: rm <id>")
		}
		id, err := b.resolve(rest)
		if err != nil {
			return err
		}
		if err := b.app.Mutations.Delete(ctx, id); err != nil {
			return err
		}
		b.printf("Deleted %s\n", shortID(id))
	default:
		return fmt.Errorf("unknown command %q; type 'help'", word)
	}
	return nil
}

// resolve matches an ID prefix against the displayed list.
func (b *browser) resolve(prefix string) (string, error) {
	var match string
	for _, it := range b.view.Result().Items {
		if !strings.HasPrefix(it.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("id %q is ambiguous", prefix)
		}
		match = it.ID
	}
	if match == "" {
		return "", fmt.Errorf("no item with id %q in the list", prefix)
	}
	return match, nil
}

func newBrowseCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Filter your wardrobe interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.requireAuth(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "omara> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("starting prompt: %w", err)
			}
			defer rl.Close()

			b := newBrowser(s.app, rl.Stdout())
			defer b.Close()
			b.printf("Type 'help' for commands.\n")

			for {
				rl.SetPrompt(b.prompt())
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}

				if err := b.exec(cmd.Context(), line); err != nil {
					if errors.Is(err, errQuit) {
						return nil
					}
					b.printf("Error: %v\n", err)
				}
			}
		},
	}
}
