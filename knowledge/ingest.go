package knowledge

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one loaded source document before chunking.
type Document struct {
	Content string
	Source  string
}

// IngestOptions control the batch ingestion pipeline. Zero values fall back
// to the defaults the original knowledge base shipped with.
type IngestOptions struct {
	ChunkSize    int  // characters per chunk, default 1000
	ChunkOverlap int  // characters carried into the next chunk, default 200
	Reset        bool // clear the index before ingesting
}

// Ingest loads every supported document under dir, splits them into
// overlapping chunks, embeds and stores them. It returns the number of chunks
// indexed. Supported formats: .txt, .md, .csv, .json, .yaml, .yml.
func Ingest(ctx context.Context, index *Index, dir string, opts IngestOptions) (int, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = 200
	}
	if opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = opts.ChunkSize / 5
	}

	if opts.Reset {
		if err := index.Reset(ctx); err != nil {
			return 0, err
		}
	}

	docs, err := LoadDocuments(dir)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, doc := range docs {
		chunks := Split(doc.Content, opts.ChunkSize, opts.ChunkOverlap)
		if len(chunks) == 0 {
			continue
		}
		if err := index.Add(ctx, chunks, doc.Source); err != nil {
			return total, err
		}
		total += len(chunks)
	}
	return total, nil
}

// LoadDocuments walks dir and loads every supported file. Unsupported
// extensions are skipped silently; unreadable files abort the load.
func LoadDocuments(dir string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		var loaded []Document
		var loadErr error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			loaded, loadErr = loadText(path)
		case ".csv":
			loaded, loadErr = loadCSV(path)
		case ".json":
			loaded, loadErr = loadJSON(path)
		case ".yaml", ".yml":
			loaded, loadErr = loadYAML(path)
		default:
			return nil
		}
		if loadErr != nil {
			return fmt.Errorf("load %s: %w", path, loadErr)
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func loadText(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, nil
	}
	return []Document{{Content: content, Source: path}}, nil
}

// loadCSV turns every data row into one "header: value" block, mirroring how
// row-oriented documents read best for retrieval.
func loadCSV(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	var docs []Document
	for _, row := range records[1:] {
		var b strings.Builder
		for i, field := range row {
			if i < len(header) {
				fmt.Fprintf(&b, "%s: %s\n", header[i], field)
			}
		}
		docs = append(docs, Document{Content: strings.TrimSpace(b.String()), Source: path})
	}
	return docs, nil
}

// loadJSON treats a top-level array as one document per element; any other
// shape becomes a single document.
func loadJSON(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	if list, ok := root.([]any); ok {
		var docs []Document
		for _, item := range list {
			rendered, err := json.MarshalIndent(item, "", "  ")
			if err != nil {
				return nil, err
			}
			docs = append(docs, Document{Content: string(rendered), Source: path})
		}
		return docs, nil
	}

	rendered, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, err
	}
	return []Document{{Content: string(rendered), Source: path}}, nil
}

// loadYAML mirrors loadJSON for YAML files (FAQ and glossary documents are
// commonly maintained as YAML lists).
func loadYAML(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	if list, ok := root.([]any); ok {
		var docs []Document
		for _, item := range list {
			rendered, err := yaml.Marshal(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, Document{Content: strings.TrimSpace(string(rendered)), Source: path})
		}
		return docs, nil
	}

	rendered, err := yaml.Marshal(root)
	if err != nil {
		return nil, err
	}
	return []Document{{Content: strings.TrimSpace(string(rendered)), Source: path}}, nil
}

// Split cuts text into chunks of at most size characters with the given
// overlap, preferring paragraph, line and sentence boundaries over hard cuts.
func Split(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunk := strings.TrimSpace(text[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := findBoundary(text[start:end])
		if cut <= 0 {
			cut = size
		}
		chunk := strings.TrimSpace(text[start : start+cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := start + cut - overlap
		if next <= start {
			next = start + cut
		}
		start = next
	}
	return chunks
}

// findBoundary returns the best cut position inside window, searching from
// the end for a paragraph break, then a newline, then a sentence end, then a
// space. Returns -1 when nothing qualifies.
func findBoundary(window string) int {
	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if idx := strings.LastIndex(window, sep); idx > len(window)/2 {
			return idx + len(sep)
		}
	}
	return -1
}
