package loader

// Batch is the settled outcome of one ResolveAll call.
type Batch struct {
	Generation uint64
	// Stale is set when a newer batch started before this one settled.
	Stale    bool
	Bitmaps  map[string]*Bitmap
	Failures map[string]*DecodeError

	order []string
}

func newBatch(gen uint64, reqs []Request) *Batch {
	b := &Batch{
		Generation: gen,
		Bitmaps:    make(map[string]*Bitmap, len(reqs)),
		Failures:   make(map[string]*DecodeError),
	}
	for _, r := range reqs {
		b.order = append(b.order, r.ID)
	}
	return b
}

// Ordered returns the decoded bitmaps in request order, skipping failures.
func (b *Batch) Ordered() []*Bitmap {
	out := make([]*Bitmap, 0, len(b.Bitmaps))
	for _, id := range b.order {
		if bm, ok := b.Bitmaps[id]; ok {
			out = append(out, bm)
		}
	}
	return out
}

// Errors returns the failures in request order.
func (b *Batch) Errors() []*DecodeError {
	var out []*DecodeError
	for _, id := range b.order {
		if err, ok := b.Failures[id]; ok {
			out = append(out, err)
		}
	}
	return out
}

// Release releases every bitmap still held by the batch.
func (b *Batch) Release() {
	for _, bm := range b.Bitmaps {
		bm.Release()
	}
}
