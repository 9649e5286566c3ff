// Package snapshot checkpoints a graphstream.GraphStreamIndex's immutable
// base layer to disk and restores it, so a long-running process can
// hibernate instead of replaying its entire base-graph load on restart. The
// column deinterleave-then-compress layout mirrors the teacher's rbtree
// allocator hibernation format.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
)

// magic distinguishes a snapshot file from arbitrary binary content.
const magic = "WCOJSNAP"

// Write compresses entries' keys and values into separate columns (better
// compression than an interleaved (key, value) stream, since each column is
// individually more repetitive) and writes them to path.
func Write(path string, entries []compact.Entry[uint32, uint32]) error {
	keys := make([]uint32, len(entries))
	values := make([]uint32, len(entries))

	for i, e := range entries {
		keys[i] = e.Key
		values[i] = e.Value
	}

	var keysCompressed, valuesCompressed []byte

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		keysCompressed = compressUint32Slice(keys)
	}()

	go func() {
		defer wg.Done()

		valuesCompressed = compressUint32Slice(values)
	}()

	wg.Wait()

	buf := new(bytes.Buffer)

	if _, err := buf.WriteString(magic); err != nil {
		return err
	}

	if err := binary.Write(buf, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	for _, column := range [][]byte{keysCompressed, valuesCompressed} {
		if err := binary.Write(buf, binary.LittleEndian, uint64(len(column))); err != nil {
			return err
		}

		buf.Write(column)
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Read restores the entries written by Write.
func Read(path string) ([]compact.Entry[uint32, uint32], error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	if len(raw) < len(magic) || string(raw[:len(magic)]) != magic {
		return nil, fmt.Errorf("snapshot: %s: bad magic header", path)
	}

	r := bytes.NewReader(raw[len(magic):])

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", path, err)
	}

	keys := make([]uint32, count)
	values := make([]uint32, count)
	columns := [2][]uint32{keys, values}

	for i := range columns {
		var size uint64
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("snapshot: %s: %w", path, err)
		}

		compressed := make([]byte, size)
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, fmt.Errorf("snapshot: %s: %w", path, err)
		}

		decompressUint32Slice(compressed, columns[i])
	}

	entries := make([]compact.Entry[uint32, uint32], count)
	for i := range entries {
		entries[i] = compact.Entry[uint32, uint32]{Key: keys[i], Value: values[i]}
	}

	return entries, nil
}

func compressUint32Slice(data []uint32) []byte {
	if len(data) == 0 {
		return []byte{}
	}

	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil || written == 0 {
		return nil
	}

	return compressed[:written]
}

func decompressUint32Slice(data []byte, result []uint32) {
	if len(result) == 0 {
		return
	}

	decompressed := make([]byte, len(result)*4)

	if _, err := lz4.UncompressBlock(data, decompressed); err != nil {
		return
	}

	_ = binary.Read(bytes.NewReader(decompressed), binary.LittleEndian, result)
}
