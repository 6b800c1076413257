package codec

import "errors"

// StreamIterator walks a mod stream one record at a time.
//
//	it := codec.NewRecordCodec().Iterator(data)
//	for it.Next() {
//	    r := it.Record()
//	}
//	if err := it.Err(); err != nil { ... }
type StreamIterator struct {
	codec  *RecordCodec
	data   []byte
	pos    int
	index  int
	record *Record
	err    error
	done   bool
}

// Next advances to the next record. It returns false at the terminator or
// on the first decode error.
func (it *StreamIterator) Next() bool {
	if it.done {
		return false
	}

	r, next, err := it.codec.DecodeNext(it.data, it.pos)
	if err != nil {
		it.done = true
		it.record = nil
		if !errors.Is(err, ErrEndOfStream) {
			it.err = err
		}
		return false
	}

	it.record = r
	it.pos = next
	it.index++
	return true
}

// Record returns the current record
func (it *StreamIterator) Record() *Record {
	return it.record
}

// Index returns the 1-based index of the current record
func (it *StreamIterator) Index() int {
	return it.index
}

// Offset returns the position of the next undecoded byte
func (it *StreamIterator) Offset() int {
	return it.pos
}

// Err returns the decode error that stopped iteration, if any. Reaching the
// terminator is not an error.
func (it *StreamIterator) Err() error {
	return it.err
}
