// Package index defines the PostingList/Index capability the core consumes
// from an already-built frequency index (out of scope per the core's
// design: construction, compression, and on-disk layout belong to an
// external collaborator). It ships two reference implementations — an
// in-memory one for tests and a flat uncompressed file format modeled on
// JASSjr's vocab/postings/lengths/docids layout — neither of which is the
// "production index" the core treats as an external black box.
package index

// DocId and TermId mirror the core's 32-bit identifiers.
type DocId = uint32
type TermId = uint32

// Posting is a single (docid, frequency) pair within one term's list.
type Posting struct {
	DocId DocId
	Freq  uint32
}

// Cursor is the capability a posting list exposes to the algorithms: a
// monotonically advancing position over a strictly increasing docid
// sequence, terminating at Sentinel.
type Cursor interface {
	DocId() DocId
	Freq() uint32
	Next()
	NextGEQ(target DocId) DocId
	Size() int
}

// Index is the capability consumed from the external collaborator that
// built and persisted the frequency index.
type Index interface {
	NumDocs() uint64
	Open(t TermId) (Cursor, bool)
	Warmup(t TermId)
}

// Sentinel returns the end-of-list docid for an index of the given size:
// DocIdSentinel = num_docs, per the data model.
func Sentinel(numDocs uint64) DocId {
	return DocId(numDocs)
}
