package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	// Terminator marks the end of a mod stream. It is never part of a record.
	Terminator byte = 0xff

	// HeaderSize is Address(4) + Size(4)
	HeaderSize = 8
)

var (
	// ErrEndOfStream is returned by DecodeNext when the terminator is reached
	ErrEndOfStream = errors.New("end of stream")

	// ErrTruncated matches every *TruncatedStreamError via errors.Is
	ErrTruncated = errors.New("truncated stream")

	// ErrSizeMismatch is returned when a record's Size disagrees with its payload
	ErrSizeMismatch = errors.New("record size does not match payload length")
)

// TruncatedStreamError reports a header or payload that runs past the end
// of the buffer, or a buffer that ends without a terminator.
type TruncatedStreamError struct {
	Offset int // Start of the record being decoded
	Need   int // Bytes required from Offset
	Have   int // Bytes available from Offset
}

func (e *TruncatedStreamError) Error() string {
	if e.Have == 0 {
		return fmt.Sprintf("truncated stream: missing terminator at offset %d", e.Offset)
	}
	return fmt.Sprintf("truncated stream at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

func (e *TruncatedStreamError) Is(target error) bool {
	return target == ErrTruncated
}

// Record is one address/size/payload entry of a mod stream
type Record struct {
	Address uint32 // Destination address
	Size    uint32 // Payload length in bytes
	Payload []byte // Raw payload
}

// NewRecord creates a record with Size taken from the payload length
func NewRecord(address uint32, payload []byte) *Record {
	if len(payload) > int(^uint32(0)) {
		panic("payload too large")
	}
	return &Record{
		Address: address,
		Size:    uint32(len(payload)),
		Payload: payload,
	}
}

// EncodedSize returns the number of bytes the record occupies in a stream,
// not counting the terminator.
func (r *Record) EncodedSize() int {
	return HeaderSize + len(r.Payload)
}

// Validate checks that the declared size matches the payload
func (r *Record) Validate() error {
	if int(r.Size) != len(r.Payload) {
		return fmt.Errorf("%w: size %d, payload %d", ErrSizeMismatch, r.Size, len(r.Payload))
	}
	return nil
}

// Equal reports whether two records carry the same address, size and payload
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Address != other.Address || r.Size != other.Size || len(r.Payload) != len(other.Payload) {
		return false
	}
	for i := range r.Payload {
		if r.Payload[i] != other.Payload[i] {
			return false
		}
	}
	return true
}

// RecordCodec handles serialization and deserialization of mod records
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// DecodeNext decodes the record starting at pos. It returns the record and
// the position just past it. At the terminator it returns ErrEndOfStream and
// pos unchanged.
// Format: [Address(4 BE)][Size(4 BE)][Payload(Size)]
func (c *RecordCodec) DecodeNext(data []byte, pos int) (*Record, int, error) {
	if pos < 0 || pos > len(data) {
		return nil, pos, fmt.Errorf("position %d outside buffer of %d bytes", pos, len(data))
	}

	remaining := len(data) - pos
	if remaining == 0 {
		return nil, pos, &TruncatedStreamError{Offset: pos, Need: 1, Have: 0}
	}
	if data[pos] == Terminator {
		return nil, pos, ErrEndOfStream
	}
	if remaining < HeaderSize {
		return nil, pos, &TruncatedStreamError{Offset: pos, Need: HeaderSize, Have: remaining}
	}

	address := binary.BigEndian.Uint32(data[pos:])
	size := binary.BigEndian.Uint32(data[pos+4:])

	// uint64 keeps the bound check honest for sizes near 4GiB on 32-bit hosts
	need := uint64(HeaderSize) + uint64(size)
	if need > uint64(remaining) {
		return nil, pos, &TruncatedStreamError{Offset: pos, Need: int(need), Have: remaining}
	}

	start := pos + HeaderSize
	end := start + int(size)

	return &Record{
		Address: address,
		Size:    size,
		Payload: data[start:end:end],
	}, end, nil
}

// DecodeAll decodes every record up to the terminator. On error no records
// are returned.
func (c *RecordCodec) DecodeAll(data []byte) ([]*Record, error) {
	var records []*Record
	it := c.Iterator(data)
	for it.Next() {
		records = append(records, it.Record())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Iterator returns a lazy iterator over the records in data. Each call
// starts again from the beginning of the buffer.
func (c *RecordCodec) Iterator(data []byte) *StreamIterator {
	return &StreamIterator{codec: c, data: data}
}

// AppendRecord appends the record's header and payload to dst without a
// terminator.
func (c *RecordCodec) AppendRecord(dst []byte, r *Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return dst, err
	}
	dst = binary.BigEndian.AppendUint32(dst, r.Address)
	dst = binary.BigEndian.AppendUint32(dst, r.Size)
	return append(dst, r.Payload...), nil
}

// Encode serializes a single record as a complete one-record stream,
// terminator included.
func (c *RecordCodec) Encode(r *Record) ([]byte, error) {
	buf := make([]byte, 0, r.EncodedSize()+1)
	buf, err := c.AppendRecord(buf, r)
	if err != nil {
		return nil, err
	}
	return append(buf, Terminator), nil
}

// EncodeStream serializes records in order followed by one terminator
func (c *RecordCodec) EncodeStream(records []*Record) ([]byte, error) {
	n := 1
	for _, r := range records {
		n += r.EncodedSize()
	}

	buf := make([]byte, 0, n)
	for i, r := range records {
		var err error
		if buf, err = c.AppendRecord(buf, r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return append(buf, Terminator), nil
}

// FormatText renders a record as one dump line:
//
//	0x10, 0x2: ['0xab', '0xcd']
func FormatText(r *Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%#x, %#x: [", r.Address, r.Size)
	for i, b := range r.Payload {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "'%#x'", b)
	}
	sb.WriteByte(']')
	return sb.String()
}
