// Package adjacency loads a static base graph as the sorted compact.Entry
// slice pkg/compact.Load accepts, either from a plain text edge list or from
// a prebuilt binary offsets/targets file pair.
package adjacency

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
	"github.com/Sumatoshi-tech/wcoj/pkg/loader"
)

// LoadVector reads a whitespace-separated text edge list ("src dst" per
// line, blank lines and lines starting with '#' ignored) and returns the
// entries sorted and ready for compact.Load. The whole file is read into
// memory, matching the original implementation's in-memory GraphVector.
func LoadVector(r io.Reader) ([]compact.Entry[uint32, uint32], error) {
	l := loader.New(func(a, b loader.Pair[uint32, uint32]) bool {
		if a.Key != b.Key {
			return a.Key < b.Key
		}

		return a.Value < b.Value
	})

	scanner := bufio.NewScanner(r)
	lineNo := 0

	var batch []loader.Pair[uint32, uint32]

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("adjacency: line %d: expected 2 fields, got %d", lineNo, len(fields))
		}

		src, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("adjacency: line %d: source: %w", lineNo, err)
		}

		dst, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("adjacency: line %d: destination: %w", lineNo, err)
		}

		batch = append(batch, loader.Pair[uint32, uint32]{Key: uint32(src), Value: uint32(dst)})

		if len(batch) == 4096 {
			l.Push(batch)
			batch = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("adjacency: scan: %w", err)
	}

	l.Push(batch)

	pairs := l.Finish()
	entries := make([]compact.Entry[uint32, uint32], len(pairs))

	for i, p := range pairs {
		entries[i] = compact.Entry[uint32, uint32]{Key: p.Key, Value: p.Value}
	}

	return entries, nil
}

// offsetsMagic distinguishes the little-endian uint64 offsets file from
// arbitrary binary content.
const offsetsMagic = "WCOJOFFS"

// WriteMapped writes prefix.offsets and prefix.targets from entries, which
// must already be sorted by Key (the order compact.Load expects). offsets[i]
// is the index into targets where node i's out-edges begin, with a final
// sentinel offset equal to len(targets), mirroring the original's
// GraphMMap layout of one offsets slice and one targets slice.
func WriteMapped(prefix string, entries []compact.Entry[uint32, uint32], nodeCount int) error {
	offsets := make([]uint64, nodeCount+1)
	targets := make([]uint32, len(entries))

	for i, e := range entries {
		targets[i] = e.Value
		offsets[e.Key+1]++
	}

	for i := 1; i < len(offsets); i++ {
		offsets[i] += offsets[i-1]
	}

	if err := writeBinaryFile(prefix+".offsets", offsetsMagic, offsets); err != nil {
		return fmt.Errorf("adjacency: write offsets: %w", err)
	}

	if err := writeBinaryFile(prefix+".targets", offsetsMagic, targets); err != nil {
		return fmt.Errorf("adjacency: write targets: %w", err)
	}

	return nil
}

func writeBinaryFile[T any](path, magic string, data []T) error {
	buf := new(bytes.Buffer)

	if _, err := buf.WriteString(magic); err != nil {
		return err
	}

	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadMapped reads the prefix.offsets/prefix.targets binary pair written by
// WriteMapped and reconstructs the sorted compact.Entry slice compact.Load
// expects. Despite the name, this reads the files fully into memory rather
// than mapping them.
func LoadMapped(prefix string) ([]compact.Entry[uint32, uint32], error) {
	offsets, err := readBinaryFile[uint64](prefix + ".offsets")
	if err != nil {
		return nil, fmt.Errorf("adjacency: read offsets: %w", err)
	}

	targets, err := readBinaryFile[uint32](prefix + ".targets")
	if err != nil {
		return nil, fmt.Errorf("adjacency: read targets: %w", err)
	}

	if len(offsets) == 0 {
		return nil, nil
	}

	entries := make([]compact.Entry[uint32, uint32], 0, len(targets))

	for node := 0; node+1 < len(offsets); node++ {
		start, limit := offsets[node], offsets[node+1]
		if limit > uint64(len(targets)) {
			return nil, fmt.Errorf("adjacency: node %d: offset %d exceeds %d targets", node, limit, len(targets))
		}

		for _, dst := range targets[start:limit] {
			entries = append(entries, compact.Entry[uint32, uint32]{Key: uint32(node), Value: dst})
		}
	}

	return entries, nil
}

func readBinaryFile[T any](path string) ([]T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(raw) < len(offsetsMagic) || string(raw[:len(offsetsMagic)]) != offsetsMagic {
		return nil, fmt.Errorf("adjacency: %s: bad magic header", path)
	}

	body := raw[len(offsetsMagic):]

	var zero T

	size := binary.Size(zero)
	if size <= 0 || len(body)%size != 0 {
		return nil, fmt.Errorf("adjacency: %s: truncated body", path)
	}

	out := make([]T, len(body)/size)
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("adjacency: %s: %w", path, err)
	}

	return out, nil
}
