// Package catalog indexes the records of many mod files by address so that
// overlapping patches can be found before they are applied to one image.
package catalog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/modtool/pkg/codec"
)

// Key: [Address(4 BE)][EntryID(20)]
// Value: [Size(4)][Index(4)][Source]
const (
	idLength  = 20
	keyLength = 4 + idLength
)

var (
	ErrClosed       = errors.New("catalog is closed")
	ErrCorruptEntry = errors.New("corrupt catalog entry")
)

// Entry describes one record of one ingested mod file
type Entry struct {
	ID      ksuid.KSUID
	Address uint32
	Size    uint32
	Source  string
	Index   int // 1-based position of the record in its source stream
}

// End returns the first address past the entry's payload
func (e Entry) End() uint64 {
	return uint64(e.Address) + uint64(e.Size)
}

// Overlap pairs two entries from different sources whose ranges intersect
type Overlap struct {
	First  Entry
	Second Entry
}

// Catalog is a pebble-backed address index
type Catalog struct {
	db     *pebble.DB
	codec  *codec.RecordCodec
	logger *zap.Logger
}

// Open opens or creates a catalog in dir
func Open(dir string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &Catalog{
		db:     db,
		codec:  codec.NewRecordCodec(),
		logger: logger,
	}, nil
}

// Add decodes stream and stores one entry per record under source. Nothing
// is stored if the stream fails to decode.
func (c *Catalog) Add(source string, stream []byte) (int, error) {
	if c.db == nil {
		return 0, ErrClosed
	}

	records, err := c.codec.DecodeAll(stream)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", source, err)
	}

	batch := c.db.NewBatch()
	defer batch.Close()

	for i, r := range records {
		entry := Entry{
			ID:      ksuid.New(),
			Address: r.Address,
			Size:    r.Size,
			Source:  source,
			Index:   i + 1,
		}
		if err := batch.Set(encodeKey(entry), encodeValue(entry), nil); err != nil {
			return 0, fmt.Errorf("failed to stage entry: %w", err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to commit entries: %w", err)
	}

	c.logger.Debug("catalogued mod stream", zap.String("source", source), zap.Int("records", len(records)))
	return len(records), nil
}

// Entries returns every entry in address order
func (c *Catalog) Entries() ([]Entry, error) {
	if c.db == nil {
		return nil, ErrClosed
	}

	iter, err := c.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		entry, err := decodeEntry(iter.Key(), iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog: %w", err)
	}

	return entries, nil
}

// Overlaps returns every pair of entries from different sources whose
// address ranges intersect. Empty records never overlap.
func (c *Catalog) Overlaps() ([]Overlap, error) {
	entries, err := c.Entries()
	if err != nil {
		return nil, err
	}
	return findOverlaps(entries), nil
}

// Close closes the underlying database
func (c *Catalog) Close() error {
	if c.db == nil {
		return ErrClosed
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// findOverlaps sweeps entries sorted by address, keeping the ones whose
// range is still open.
func findOverlaps(entries []Entry) []Overlap {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Address < entries[j].Address
	})

	var overlaps []Overlap
	var active []Entry
	for _, e := range entries {
		if e.Size == 0 {
			continue
		}

		kept := active[:0]
		for _, a := range active {
			if a.End() > uint64(e.Address) {
				kept = append(kept, a)
			}
		}
		active = kept

		for _, a := range active {
			if a.Source != e.Source {
				overlaps = append(overlaps, Overlap{First: a, Second: e})
			}
		}
		active = append(active, e)
	}
	return overlaps
}

func encodeKey(e Entry) []byte {
	key := make([]byte, 0, keyLength)
	key = binary.BigEndian.AppendUint32(key, e.Address)
	return append(key, e.ID.Bytes()...)
}

func encodeValue(e Entry) []byte {
	value := make([]byte, 0, 8+len(e.Source))
	value = binary.BigEndian.AppendUint32(value, e.Size)
	value = binary.BigEndian.AppendUint32(value, uint32(e.Index))
	return append(value, e.Source...)
}

func decodeEntry(key, value []byte) (Entry, error) {
	if len(key) != keyLength || len(value) < 8 {
		return Entry{}, ErrCorruptEntry
	}

	id, err := ksuid.FromBytes(key[4:])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}

	return Entry{
		ID:      id,
		Address: binary.BigEndian.Uint32(key[0:4]),
		Size:    binary.BigEndian.Uint32(value[0:4]),
		Index:   int(binary.BigEndian.Uint32(value[4:8])),
		Source:  string(value[8:]),
	}, nil
}
