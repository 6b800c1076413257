package modfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/modtool/pkg/codec"
)

// Processor runs the file-level operations over mod streams
type Processor struct {
	codec  *codec.RecordCodec
	logger *zap.Logger
}

// NewProcessor creates a processor. A nil logger disables logging.
func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		codec:  codec.NewRecordCodec(),
		logger: logger,
	}
}

// ReadFile loads a whole mod file into memory
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mod file: %w", err)
	}
	return data, nil
}

// Dump writes one text line per record to w in stream order and returns the
// number of records written. Lines for records decoded before an error are
// still written.
func (p *Processor) Dump(data []byte, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	it := p.codec.Iterator(data)

	count := 0
	for it.Next() {
		if _, err := fmt.Fprintln(bw, codec.FormatText(it.Record())); err != nil {
			return count, fmt.Errorf("failed to write record %d: %w", it.Index(), err)
		}
		count++
	}

	if err := bw.Flush(); err != nil {
		return count, fmt.Errorf("failed to flush dump: %w", err)
	}
	if err := it.Err(); err != nil {
		return count, err
	}

	p.logger.Debug("dumped stream", zap.Int("records", count))
	return count, nil
}

// DumpFile renders the mod file at inPath into a text file at outPath
func (p *Processor) DumpFile(inPath, outPath string) (int, error) {
	data, err := ReadFile(inPath)
	if err != nil {
		return 0, err
	}

	var count int
	err = writeWith(outPath, defaultFileMode, func(w io.Writer) error {
		var dumpErr error
		count, dumpErr = p.Dump(data, w)
		return dumpErr
	})
	if err != nil {
		return count, err
	}

	p.logger.Info("dumped mod file",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("records", count))
	return count, nil
}

// Split writes every record of data to its own file as a complete
// one-record stream. It returns the paths written in stream order.
//
// Without Atomic, files written before an error stay on disk.
func (p *Processor) Split(data []byte, config SplitConfig) ([]string, error) {
	if config.Prefix == "" {
		return nil, ErrEmptyPrefix
	}
	if err := os.MkdirAll(config.Directory, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	target := config.Directory
	if config.Atomic {
		target = filepath.Join(config.Directory, ".split-"+ksuid.New().String())
		if err := os.Mkdir(target, 0750); err != nil {
			return nil, fmt.Errorf("failed to create staging directory: %w", err)
		}
		defer os.RemoveAll(target)
	}

	var names []string
	it := p.codec.Iterator(data)
	for it.Next() {
		encoded, err := p.codec.Encode(it.Record())
		if err != nil {
			return nil, fmt.Errorf("failed to encode record %d: %w", it.Index(), err)
		}

		name := fmt.Sprintf("%s-%d", config.Prefix, it.Index())
		path := filepath.Join(target, name)
		if err := writeBytes(path, encoded, config.fileMode()); err != nil {
			return nil, err
		}
		names = append(names, name)

		p.logger.Debug("wrote record file",
			zap.String("path", path),
			zap.Uint32("address", it.Record().Address),
			zap.Uint32("size", it.Record().Size))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(config.Directory, name)
		if config.Atomic {
			if err := os.Rename(filepath.Join(target, name), paths[i]); err != nil {
				return nil, fmt.Errorf("failed to commit %s: %w", name, err)
			}
		}
	}

	p.logger.Info("split mod stream",
		zap.String("directory", config.Directory),
		zap.String("prefix", config.Prefix),
		zap.Int("files", len(paths)))
	return paths, nil
}

// SplitFile splits the mod file at inPath
func (p *Processor) SplitFile(inPath string, config SplitConfig) ([]string, error) {
	data, err := ReadFile(inPath)
	if err != nil {
		return nil, err
	}
	return p.Split(data, config)
}

// Join decodes each stream in turn and re-encodes all of their records as a
// single stream with one terminator.
func (p *Processor) Join(streams ...[]byte) ([]byte, error) {
	var records []*codec.Record
	for i, data := range streams {
		decoded, err := p.codec.DecodeAll(data)
		if err != nil {
			return nil, fmt.Errorf("stream %d: %w", i+1, err)
		}
		records = append(records, decoded...)
	}

	joined, err := p.codec.EncodeStream(records)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("joined streams", zap.Int("streams", len(streams)), zap.Int("records", len(records)))
	return joined, nil
}

// JoinFiles joins the mod files at inPaths into a single stream at outPath
func (p *Processor) JoinFiles(outPath string, inPaths ...string) (int, error) {
	streams := make([][]byte, len(inPaths))
	for i, path := range inPaths {
		data, err := ReadFile(path)
		if err != nil {
			return 0, err
		}
		streams[i] = data
	}

	joined, err := p.Join(streams...)
	if err != nil {
		return 0, err
	}
	if err := writeBytes(outPath, joined, defaultFileMode); err != nil {
		return 0, err
	}
	return len(joined), nil
}

// Apply copies each record's payload into image at (address - base). It
// returns the number of records applied. A record that does not fit stops
// the pass with ErrAddressOutOfRange; records before it remain applied.
func (p *Processor) Apply(image []byte, data []byte, base uint32) (int, error) {
	it := p.codec.Iterator(data)

	count := 0
	for it.Next() {
		r := it.Record()
		if r.Address < base {
			return count, fmt.Errorf("%w: record %d at %#x is below base %#x", ErrAddressOutOfRange, it.Index(), r.Address, base)
		}

		offset := uint64(r.Address - base)
		if offset+uint64(r.Size) > uint64(len(image)) {
			return count, fmt.Errorf("%w: record %d at %#x+%#x exceeds image of %#x bytes",
				ErrAddressOutOfRange, it.Index(), r.Address, r.Size, len(image))
		}

		copy(image[offset:], r.Payload)
		count++
	}
	if err := it.Err(); err != nil {
		return count, err
	}

	p.logger.Debug("applied mod stream", zap.Int("records", count), zap.Uint32("base", base))
	return count, nil
}

// ApplyFiles applies each mod file in order to the image at imagePath and
// writes the patched image to outPath. The source image is not modified.
func (p *Processor) ApplyFiles(imagePath, outPath string, base uint32, modPaths ...string) (int, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read image: %w", err)
	}

	total := 0
	for _, modPath := range modPaths {
		data, err := ReadFile(modPath)
		if err != nil {
			return total, err
		}

		count, err := p.Apply(image, data, base)
		total += count
		if err != nil {
			return total, fmt.Errorf("%s: %w", modPath, err)
		}
		p.logger.Debug("applied mod file", zap.String("mod", modPath), zap.Int("records", count))
	}

	if err := writeBytes(outPath, image, defaultFileMode); err != nil {
		return total, err
	}

	p.logger.Info("patched image",
		zap.String("image", imagePath),
		zap.String("output", outPath),
		zap.Int("mods", len(modPaths)),
		zap.Int("records", total))
	return total, nil
}

func writeBytes(path string, data []byte, mode os.FileMode) error {
	return writeWith(path, mode, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// writeWith creates path, hands it to fn and always closes it. A close
// failure is reported when fn itself succeeded.
func writeWith(path string, mode os.FileMode, fn func(io.Writer) error) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	if err := fn(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
