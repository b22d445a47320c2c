package index

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// DigestSuffix is appended to the index path to name its BLAKE3 sidecar.
const DigestSuffix = ".blake3"

var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

type fileDocument struct {
	SchemaVersion int                 `json:"schema_version"`
	BuildID       string              `json:"build_id,omitempty"`
	BuiltAt       time.Time           `json:"built_at"`
	StandardWorks map[string]fileWork `json:"standard_works"`
}

type fileWork struct {
	Position int                 `json:"position"`
	Books    map[string]fileBook `json:"books"`
}

type fileBook struct {
	Position      int            `json:"position"`
	UnigramCounts map[string]int `json:"unigram_counts"`
	TokenSequence []string       `json:"token_sequence"`
	TotalTokens   int            `json:"total_tokens"`
}

type saveOptions struct {
	compress bool
	indent   bool
}

// SaveOption configures Save.
type SaveOption func(*saveOptions)

// WithCompression writes the document xz-compressed. A path ending in
// ".xz" implies it.
func WithCompression(on bool) SaveOption {
	return func(o *saveOptions) { o.compress = o.compress || on }
}

// WithIndent pretty-prints the JSON document.
func WithIndent() SaveOption {
	return func(o *saveOptions) { o.indent = true }
}

// Save writes idx to path, replacing any previous artifact in one rename,
// and writes the BLAKE3 digest of the bytes on disk to path+DigestSuffix.
// It returns the hex digest.
func Save(idx *Index, path string, opts ...SaveOption) (string, error) {
	o := saveOptions{compress: strings.HasSuffix(strings.ToLower(path), ".xz")}
	for _, opt := range opts {
		opt(&o)
	}

	var buf bytes.Buffer
	var w io.Writer = &buf
	var xw *xz.Writer
	if o.compress {
		var err error
		xw, err = xz.NewWriter(&buf)
		if err != nil {
			return "", fmt.Errorf("create xz writer: %w", err)
		}
		w = xw
	}
	enc := json.NewEncoder(w)
	if o.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(toDocument(idx)); err != nil {
		return "", fmt.Errorf("encode index: %w", err)
	}
	if xw != nil {
		if err := xw.Close(); err != nil {
			return "", fmt.Errorf("close xz writer: %w", err)
		}
	}

	data := buf.Bytes()
	sum := blake3.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	if err := writeFileAtomic(path+DigestSuffix, []byte(digest+"\n")); err != nil {
		return "", err
	}
	return digest, nil
}

func toDocument(idx *Index) *fileDocument {
	doc := &fileDocument{
		SchemaVersion: SchemaVersion,
		BuildID:       idx.BuildID,
		BuiltAt:       idx.BuiltAt,
		StandardWorks: make(map[string]fileWork, len(idx.Works)),
	}
	for wi, w := range idx.Works {
		fw := fileWork{Position: wi, Books: make(map[string]fileBook, len(w.Books))}
		for bi, b := range w.Books {
			fw.Books[b.Name] = fileBook{
				Position:      bi,
				UnigramCounts: b.Unigrams,
				TokenSequence: b.Tokens,
				TotalTokens:   b.TotalTokens,
			}
		}
		doc.StandardWorks[w.Name] = fw
	}
	return doc
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Load reads an index written by Save. Every failure is an *IndexLoadError.
func Load(path string) (*Index, error) {
	idx, err := load(path)
	if err != nil {
		return nil, &IndexLoadError{Path: path, Err: err}
	}
	return idx, nil
}

func load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := verifyDigest(path, data); err != nil {
		return nil, err
	}

	var r io.Reader = bytes.NewReader(data)
	if bytes.HasPrefix(data, xzMagic) {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}
		r = bufio.NewReader(xr)
	}
	var doc fileDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d (want %d)", doc.SchemaVersion, SchemaVersion)
	}
	idx, err := fromDocument(&doc)
	if err != nil {
		return nil, err
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("index failed validation: %w", err)
	}
	return idx, nil
}

// verifyDigest checks data against the sidecar when one exists.
func verifyDigest(path string, data []byte) error {
	want, err := os.ReadFile(path + DigestSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read digest: %w", err)
	}
	sum := blake3.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != strings.TrimSpace(string(want)) {
		return fmt.Errorf("digest mismatch: file %s, recorded %s", got, strings.TrimSpace(string(want)))
	}
	return nil
}

func fromDocument(doc *fileDocument) (*Index, error) {
	type namedWork struct {
		name string
		fileWork
	}
	works := make([]namedWork, 0, len(doc.StandardWorks))
	for name, fw := range doc.StandardWorks {
		works = append(works, namedWork{name: name, fileWork: fw})
	}
	sort.Slice(works, func(i, j int) bool { return works[i].Position < works[j].Position })

	out := make([]*StandardWork, 0, len(works))
	for i, fw := range works {
		if fw.Position != i {
			return nil, fmt.Errorf("work %q: position %d, want %d", fw.name, fw.Position, i)
		}
		type namedBook struct {
			name string
			fileBook
		}
		books := make([]namedBook, 0, len(fw.Books))
		for name, fb := range fw.Books {
			books = append(books, namedBook{name: name, fileBook: fb})
		}
		sort.Slice(books, func(i, j int) bool { return books[i].Position < books[j].Position })

		wb := make([]*Book, 0, len(books))
		for j, fb := range books {
			if fb.Position != j {
				return nil, fmt.Errorf("book %q: position %d, want %d", fb.name, fb.Position, j)
			}
			b := &Book{
				Name:        fb.name,
				Work:        fw.name,
				Tokens:      fb.TokenSequence,
				Unigrams:    fb.UnigramCounts,
				TotalTokens: fb.TotalTokens,
			}
			if b.Tokens == nil {
				b.Tokens = []string{}
			}
			if b.Unigrams == nil {
				b.Unigrams = map[string]int{}
			}
			wb = append(wb, b)
		}
		out = append(out, NewStandardWork(fw.name, wb))
	}
	idx := New(out)
	idx.SchemaVersion = doc.SchemaVersion
	idx.BuildID = doc.BuildID
	idx.BuiltAt = doc.BuiltAt
	return idx, nil
}
