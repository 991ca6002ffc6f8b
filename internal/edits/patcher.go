package edits

import (
	"context"
	"fmt"
)

// Store reads and writes whole documents. Write must preserve whatever
// encoding the document was read with.
type Store interface {
	Read(ctx context.Context, doc DocID) (string, error)
	Write(ctx context.Context, doc DocID, text string) error
}

// Patcher runs resolve and apply against documents held in a Store.
// Documents are visited sequentially in canonical order.
type Patcher struct {
	store Store
}

// NewPatcher returns a Patcher bound to store.
func NewPatcher(store Store) *Patcher {
	return &Patcher{store: store}
}

// Preview returns the patched text of every document touched by edits.
// Documents without edits are absent from the result. Nothing is written.
func (p *Patcher) Preview(ctx context.Context, edits []Edit) (map[DocID]string, error) {
	groups, err := ResolveGroups(edits)
	if err != nil {
		return nil, err
	}

	out := make(map[DocID]string, len(groups))
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		patched, err := p.patch(ctx, g)
		if err != nil {
			return nil, err
		}
		out[g.Doc] = patched
	}
	return out, nil
}

// Persist patches every touched document and writes it back once.
// The first failure stops the pass; documents already written stay written.
func (p *Patcher) Persist(ctx context.Context, edits []Edit) error {
	groups, err := ResolveGroups(edits)
	if err != nil {
		return err
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		patched, err := p.patch(ctx, g)
		if err != nil {
			return err
		}
		if err := p.store.Write(ctx, g.Doc, patched); err != nil {
			return fmt.Errorf("write %s: %w", g.Doc, err)
		}
	}
	return nil
}

func (p *Patcher) patch(ctx context.Context, g Group) (string, error) {
	text, err := p.store.Read(ctx, g.Doc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", g.Doc, err)
	}
	return Apply(text, g.Edits)
}

// PreviewTexts is Preview over an already-read snapshot of document texts.
// An edit for a document missing from texts is reported as a *SpanError.
func PreviewTexts(edits []Edit, texts map[DocID]string) (map[DocID]string, error) {
	groups, err := ResolveGroups(edits)
	if err != nil {
		return nil, err
	}

	out := make(map[DocID]string, len(groups))
	for _, g := range groups {
		text, ok := texts[g.Doc]
		if !ok {
			return nil, &SpanError{Doc: g.Doc, Span: g.Edits[0].Span, Boundary: 0, Reason: "document not loaded"}
		}
		patched, err := Apply(text, g.Edits)
		if err != nil {
			return nil, err
		}
		out[g.Doc] = patched
	}
	return out, nil
}
