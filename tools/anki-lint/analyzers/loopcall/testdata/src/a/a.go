package a

import "context"

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type NoteStore interface {
	AddNote(ctx context.Context, deck, front string) (int64, error)
}

func bad(ctx context.Context, items []string, e Embedder, store NoteStore) {
	for _, item := range items {
		e.Embed(ctx, item)               // want "potential N\\+1: Embed called inside loop - use EmbedBatch"
		store.AddNote(ctx, "Default", item) // want "potential N\\+1: AddNote called inside loop - consider batching"
	}
}

func silenced(ctx context.Context, items []string, store NoteStore) {
	for _, item := range items {
		//nolint:loopcall // one note per request
		store.AddNote(ctx, "Default", item)
		store.AddNote(ctx, "Default", item) //nolint:loopcall
	}
}

func worker(ctx context.Context, items []string, store NoteStore) {
	for range 2 {
		go func() {
			for _, item := range items {
				store.AddNote(ctx, "Default", item) // want "potential N\\+1: AddNote called inside loop"
			}
		}()
	}
}

func good(ctx context.Context, items []string) {
	for _, item := range items {
		_ = len(item)
	}
}
