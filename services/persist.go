package services

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/erickguan/agentic-finance-analysis/models"
)

// On-disk layout of the vector store directory:
//
//	index.bin      - the similarity index (magic, version, dimension, count,
//	                 then count*dimension little-endian float32 values)
//	metadata.json  - ordered list of per-document metadata
//	documents.json - ordered list of document texts (same order/length)
//	symbols.json   - map of uppercase symbol to integer positions
//
// All four artifacts load together or not at all; partial presence or any
// inconsistency falls back to a fresh empty index. Saves write the JSON
// artifacts first and index.bin last, each through a temp file + rename, so
// a crash between writes is caught by the consistency checks on next load.

const (
	indexFile     = "index.bin"
	metadataFile  = "metadata.json"
	documentsFile = "documents.json"
	symbolsFile   = "symbols.json"

	indexMagic   = "AFAI"
	indexVersion = uint32(1)
)

func (vs *VectorStore) load() error {
	vectors, dim, err := readIndexFile(filepath.Join(vs.dir, indexFile))
	if err != nil {
		return err
	}

	var metadata []models.Document
	if err := readJSONFile(filepath.Join(vs.dir, metadataFile), &metadata); err != nil {
		return err
	}

	var texts []string
	if err := readJSONFile(filepath.Join(vs.dir, documentsFile), &texts); err != nil {
		return err
	}

	var symbols map[string][]int
	if err := readJSONFile(filepath.Join(vs.dir, symbolsFile), &symbols); err != nil {
		return err
	}

	if dim != vs.dimension {
		return fmt.Errorf("persisted dimension %d does not match configured %d", dim, vs.dimension)
	}
	if len(vectors) != len(metadata) || len(metadata) != len(texts) {
		return fmt.Errorf("artifact length mismatch: %d vectors, %d metadata, %d documents",
			len(vectors), len(metadata), len(texts))
	}
	for symbol, positions := range symbols {
		for _, pos := range positions {
			if pos < 0 || pos >= len(metadata) {
				return fmt.Errorf("symbol %s references out-of-range position %d", symbol, pos)
			}
		}
	}
	for i := range metadata {
		if metadata[i].Text != texts[i] {
			return fmt.Errorf("document %d text diverges between artifacts", i)
		}
	}
	if symbols == nil {
		symbols = make(map[string][]int)
	}

	vs.vectors = vectors
	vs.documents = metadata
	vs.symbols = symbols
	return nil
}

func (vs *VectorStore) save() error {
	if err := os.MkdirAll(vs.dir, 0o755); err != nil {
		return err
	}

	vs.mu.RLock()
	vectors := vs.vectors
	documents := vs.documents
	texts := make([]string, len(documents))
	for i := range documents {
		texts[i] = documents[i].Text
	}
	symbols := make(map[string][]int, len(vs.symbols))
	for symbol, positions := range vs.symbols {
		symbols[symbol] = append([]int(nil), positions...)
	}
	vs.mu.RUnlock()

	// index.bin goes last; an interrupted save leaves fresh JSON next to a
	// stale index, which the load-time length checks reject.
	if err := writeJSONFile(filepath.Join(vs.dir, metadataFile), documents); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(vs.dir, documentsFile), texts); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(vs.dir, symbolsFile), symbols); err != nil {
		return err
	}
	return writeIndexFile(filepath.Join(vs.dir, indexFile), vectors, vs.dimension)
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSONFile(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

func readIndexFile(path string) ([][]float32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(data) < 16 || string(data[:4]) != indexMagic {
		return nil, 0, fmt.Errorf("%s: bad header", filepath.Base(path))
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != indexVersion {
		return nil, 0, fmt.Errorf("%s: unsupported version %d", filepath.Base(path), v)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	count := int(binary.LittleEndian.Uint32(data[12:16]))

	want := 16 + count*dim*4
	if dim <= 0 || count < 0 || len(data) != want {
		return nil, 0, fmt.Errorf("%s: truncated index (have %d bytes, want %d)", filepath.Base(path), len(data), want)
	}

	vectors := make([][]float32, count)
	offset := 16
	for i := 0; i < count; i++ {
		row := make([]float32, dim)
		for j := 0; j < dim; j++ {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
			offset += 4
		}
		vectors[i] = row
	}
	return vectors, dim, nil
}

func writeIndexFile(path string, vectors [][]float32, dim int) error {
	buf := make([]byte, 16, 16+len(vectors)*dim*4)
	copy(buf[:4], indexMagic)
	binary.LittleEndian.PutUint32(buf[4:8], indexVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(dim))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(vectors)))

	scratch := make([]byte, 4)
	for _, row := range vectors {
		for _, v := range row {
			binary.LittleEndian.PutUint32(scratch, math.Float32bits(v))
			buf = append(buf, scratch...)
		}
	}
	return atomicWrite(path, buf)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
