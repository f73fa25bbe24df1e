package conversation

// Document is a processed upload known to the server.
type Document struct {
	ID       string `json:"document_id"`
	Filename string `json:"filename"`
}

// Registry is an append-only catalog of documents plus the current
// selection. It is not synchronized; Session guards it.
type Registry struct {
	docs     []Document
	index    map[string]int
	selected string
}

// NewRegistry returns an empty registry with nothing selected.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add appends doc unless its id is already known. It reports whether the
// document was added.
func (r *Registry) Add(doc Document) bool {
	if _, ok := r.index[doc.ID]; ok {
		return false
	}
	r.index[doc.ID] = len(r.docs)
	r.docs = append(r.docs, doc)
	return true
}

// List returns the documents in insertion order.
func (r *Registry) List() []Document {
	out := make([]Document, len(r.docs))
	copy(out, r.docs)
	return out
}

// Len returns the number of known documents.
func (r *Registry) Len() int {
	return len(r.docs)
}

// Get looks a document up by id.
func (r *Registry) Get(id string) (Document, bool) {
	i, ok := r.index[id]
	if !ok {
		return Document{}, false
	}
	return r.docs[i], true
}

// Select sets the selection. The id need not be known yet; an empty id
// clears the selection.
func (r *Registry) Select(id string) {
	r.selected = id
}

// SelectedID returns the selected id, "" when unset.
func (r *Registry) SelectedID() string {
	return r.selected
}

// Selected resolves the selection against the catalog.
func (r *Registry) Selected() (Document, bool) {
	if r.selected == "" {
		return Document{}, false
	}
	return r.Get(r.selected)
}
