package arena

// DefaultPageSize provides a default for Atoms.PageSize.
const DefaultPageSize = 64

// Atoms implements a page-allocated table of arbitrary records, indexed by a
// dense id assigned on Alloc. It is the identity backing for stack-effect
// atoms during a single chain operation: the chain arena is discarded once
// the operation completes (spec §3 "Lifecycles").
type Atoms struct {
	pagedCore
	pages [][]interface{}
	next  uint
}

// Len returns the number of atoms allocated so far.
func (a *Atoms) Len() uint { return a.next }

// Alloc appends a new atom record, returning its id.
func (a *Atoms) Alloc(v interface{}) uint {
	id := a.next
	a.next++
	if err := a.stor(id, v); err != nil {
		// PageSize is internally controlled and Limit is not set by the
		// effect package, so growth here never fails in practice.
		panic(err)
	}
	return id
}

// Get returns the record stored at id, or nil if id was never allocated.
func (a *Atoms) Get(id uint) interface{} {
	if a.PageSize == 0 || len(a.pages) == 0 {
		return nil
	}
	pageID := a.findPage(id)
	base := a.bases[pageID]
	page := a.pages[pageID]
	if i := int(id) - int(base); 0 <= i && i < len(page) {
		return page[i]
	}
	return nil
}

// Set overwrites the record stored at id; id must already be allocated.
func (a *Atoms) Set(id uint, v interface{}) {
	if err := a.stor(id, v); err != nil {
		panic(err)
	}
}

func (a *Atoms) stor(id uint, v interface{}) error {
	if err := a.checkLimit(id, "alloc"); err != nil {
		return err
	}
	if a.PageSize == 0 {
		a.PageSize = DefaultPageSize
	}

	pageID := a.findPage(id)
	if pageID < len(a.bases) && id >= a.bases[pageID]+a.sizes[pageID] {
		pageID = len(a.bases) // past the end of the last page: open a new one
	}
	base, size, isNew := a.allocPage(pageID, id)
	if isNew {
		page := make([]interface{}, size)
		if pageID == len(a.pages) {
			a.pages = append(a.pages, page)
		} else {
			a.pages = append(a.pages, nil)
			copy(a.pages[pageID+1:], a.pages[pageID:])
			a.pages[pageID] = page
		}
	}
	a.pages[pageID][id-base] = v
	return nil
}
