package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/compare"
	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/store"
	"github.com/papapumpkin/relmenu/internal/telemetry"
)

var (
	// ErrNotFound is returned when a document id is not in the store.
	ErrNotFound = errors.New("share: menu not found")

	// ErrEmptyParam is returned when resolving an empty slug or id.
	ErrEmptyParam = errors.New("share: empty parameter")
)

// maxConcurrentLookups bounds ResolveAll's store round trips.
const maxConcurrentLookups = 8

// Resolver resolves slugs and stored document ids into menus. Store may be
// nil, in which case only self-contained slugs resolve. A nil Codec means
// codec.Default and a nil Logger discards output.
type Resolver struct {
	Store   store.Store
	Codec   *codec.Codec
	Logger  *slog.Logger
	Journal *telemetry.Emitter
}

// Column is one resolved comparison parameter. Menu is nil when Err is set.
type Column struct {
	Param string
	Title string
	Menu  *menu.Menu
	Err   error
}

// Resolve returns the title and menu named by raw. A raw value containing
// ":" is a self-contained slug; anything else is a document id looked up in
// the store.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, *menu.Menu, error) {
	if raw == "" {
		return "", nil, ErrEmptyParam
	}
	c := r.codec()
	if codec.IsSlug(raw) {
		var m menu.Menu
		title, err := c.DecodeSlug(raw, &m)
		if err != nil {
			return "", nil, fmt.Errorf("share: decode slug: %w", err)
		}
		return title, &m, nil
	}

	if r.Store == nil {
		return "", nil, fmt.Errorf("%w: %q (no document store)", ErrNotFound, raw)
	}
	docs, err := r.Store.GetDocuments(ctx, raw)
	if err != nil {
		return "", nil, fmt.Errorf("share: look up %q: %w", raw, err)
	}
	doc, ok := docs[raw]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrNotFound, raw)
	}
	var m menu.Menu
	if err := c.Decode(doc.Encoded, &m); err != nil {
		return "", nil, fmt.Errorf("share: decode document %q: %w", raw, err)
	}
	return doc.Title, &m, nil
}

// ResolveAll resolves every non-empty entry of raws concurrently. Columns come
// back in input order; a failed entry yields a Column with Err set rather than
// failing the batch. Only context cancellation aborts.
func (r *Resolver) ResolveAll(ctx context.Context, raws []string) ([]Column, error) {
	cols := make([]Column, 0, len(raws))
	for _, raw := range raws {
		if raw != "" {
			cols = append(cols, Column{Param: raw})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i := range cols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			title, m, err := r.Resolve(gctx, cols[i].Param)
			cols[i].Title, cols[i].Menu, cols[i].Err = title, m, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := r.logger()
	for i, col := range cols {
		if col.Err != nil {
			log.Warn("menu did not resolve", "column", i, "error", col.Err)
		}
	}
	return cols, nil
}

// Comparison is the outcome of comparing resolved parameters. Table column i
// corresponds to Columns[i], resolved or not.
type Comparison struct {
	Columns []Column
	Table   *compare.Table
}

// Compare resolves raws and compares every column, keeping unresolved columns
// as empty slots.
func (r *Resolver) Compare(ctx context.Context, raws []string) (*Comparison, error) {
	cols, err := r.ResolveAll(ctx, raws)
	if err != nil {
		return nil, err
	}
	menus := make([]*menu.Menu, len(cols))
	for i, col := range cols {
		menus[i] = col.Menu
	}
	cmp := &Comparison{Columns: cols, Table: compare.Compare(menus)}

	if err := r.Journal.Emit(telemetry.Event{
		Kind: telemetry.KindCompare,
		Data: map[string]any{"columns": len(cols), "resolved": len(cmp.Resolved()), "groups": cmp.Table.Len()},
	}); err != nil {
		r.logger().Warn("journal write failed", "error", err)
	}
	return cmp, nil
}

// Titles returns one display title per column. Untitled columns are named
// "Menu N", counting from 1.
func (c *Comparison) Titles() []string {
	titles := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		if col.Title != "" {
			titles[i] = col.Title
		} else {
			titles[i] = fmt.Sprintf("Menu %d", i+1)
		}
	}
	return titles
}

// Resolved returns the indexes of columns that resolved to a menu.
func (c *Comparison) Resolved() []int {
	idx := []int{}
	for i, col := range c.Columns {
		if col.Menu != nil {
			idx = append(idx, i)
		}
	}
	return idx
}

func (r *Resolver) codec() *codec.Codec {
	if r.Codec != nil {
		return r.Codec
	}
	return codec.Default()
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}
