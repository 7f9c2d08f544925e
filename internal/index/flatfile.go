package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// FlatFileIndex reads the uncompressed vocab/postings/lengths layout
// popularized by JASSjr (_examples/other_examples, JASSjr_search.go): a
// vocab.bin of fixed-width (TermId, where, size) records, a postings.bin
// of interleaved (docid, freq) int32 pairs addressed by byte offset, and a
// lengths.bin of per-document lengths used by the BM25 scorer. No
// compression, no memory mapping — the simplest fixture that lets the CLI
// open a real index without depending on a production codec.
type FlatFileIndex struct {
	numDocs  uint64
	vocab    map[TermId]vocabEntry
	postings *os.File
	lengths  []uint32
}

type vocabEntry struct {
	where, size int64
}

// OpenFlatFile opens the three files making up a flat-file index rooted at
// dir: dir/vocab.bin, dir/postings.bin, dir/lengths.bin. vocab.bin here maps
// TermId (not surface terms — term-id lookup is the external lexicon's
// job) to (where, size) in postings.bin.
func OpenFlatFile(dir string) (*FlatFileIndex, error) {
	lengths, err := readLengths(dir + "/lengths.bin")
	if err != nil {
		return nil, fmt.Errorf("reading lengths.bin: %w", err)
	}
	vocab, err := readVocab(dir + "/vocab.bin")
	if err != nil {
		return nil, fmt.Errorf("reading vocab.bin: %w", err)
	}
	postingsFile, err := os.Open(dir + "/postings.bin")
	if err != nil {
		return nil, fmt.Errorf("opening postings.bin: %w", err)
	}
	return &FlatFileIndex{
		numDocs:  uint64(len(lengths)),
		vocab:    vocab,
		postings: postingsFile,
		lengths:  lengths,
	}, nil
}

func readLengths(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	lengths := make([]uint32, info.Size()/4)
	if err := binary.Read(bufio.NewReader(f), binary.LittleEndian, lengths); err != nil {
		return nil, err
	}
	return lengths, nil
}

// readVocab decodes a sequence of (TermId uint32, where int64, size int64)
// fixed-width records — a simplification of JASSjr's length-prefixed
// string vocab, since term surface forms are the external lexicon's
// concern here, not the index's.
func readVocab(path string) (map[TermId]vocabEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	const recordSize = 4 + 8 + 8
	vocab := make(map[TermId]vocabEntry, len(data)/recordSize)
	for off := 0; off+recordSize <= len(data); off += recordSize {
		t := binary.LittleEndian.Uint32(data[off:])
		where := int64(binary.LittleEndian.Uint64(data[off+4:]))
		size := int64(binary.LittleEndian.Uint64(data[off+12:]))
		vocab[t] = vocabEntry{where: where, size: size}
	}
	return vocab, nil
}

func (idx *FlatFileIndex) NumDocs() uint64 { return idx.numDocs }

// Terms returns every TermId present in the vocabulary, for callers (such
// as the wand-building CLI path) that need to enumerate the full term set.
func (idx *FlatFileIndex) Terms() []TermId {
	out := make([]TermId, 0, len(idx.vocab))
	for t := range idx.vocab {
		out = append(out, t)
	}
	return out
}

// Postings decodes and returns the full posting list for term t.
func (idx *FlatFileIndex) Postings(t TermId) ([]Posting, bool) {
	entry, ok := idx.vocab[t]
	if !ok {
		return nil, false
	}
	buf := make([]byte, entry.size)
	if _, err := idx.postings.ReadAt(buf, entry.where); err != nil {
		return nil, false
	}
	count := len(buf) / 8
	list := make([]Posting, count)
	for i := 0; i < count; i++ {
		list[i] = Posting{
			DocId: binary.LittleEndian.Uint32(buf[i*8:]),
			Freq:  binary.LittleEndian.Uint32(buf[i*8+4:]),
		}
	}
	return list, true
}

func (idx *FlatFileIndex) Open(t TermId) (Cursor, bool) {
	entry, ok := idx.vocab[t]
	if !ok {
		return nil, false
	}
	buf := make([]byte, entry.size)
	if _, err := idx.postings.ReadAt(buf, entry.where); err != nil {
		return nil, false
	}
	count := len(buf) / 8
	list := make([]Posting, count)
	for i := 0; i < count; i++ {
		list[i] = Posting{
			DocId: binary.LittleEndian.Uint32(buf[i*8:]),
			Freq:  binary.LittleEndian.Uint32(buf[i*8+4:]),
		}
	}
	return newSliceCursor(list, Sentinel(idx.numDocs)), true
}

// Warmup reads the term's postings once to prefault the OS page cache.
func (idx *FlatFileIndex) Warmup(t TermId) {
	entry, ok := idx.vocab[t]
	if !ok {
		return
	}
	buf := make([]byte, entry.size)
	_, _ = idx.postings.ReadAt(buf, entry.where)
}

// DocLength returns the document length used by BM25-style scorers.
func (idx *FlatFileIndex) DocLength(d DocId) uint32 {
	if int(d) >= len(idx.lengths) {
		return 0
	}
	return idx.lengths[d]
}

// AverageDocLength matches JASSjr's averageDocumentLength computation.
func (idx *FlatFileIndex) AverageDocLength() float64 {
	if len(idx.lengths) == 0 {
		return 0
	}
	var sum float64
	for _, l := range idx.lengths {
		sum += float64(l)
	}
	return sum / float64(len(idx.lengths))
}

func (idx *FlatFileIndex) Close() error {
	return idx.postings.Close()
}
