// Package retrieval selects passages from local course notes to ground
// quiz generation in the student's own material.
package retrieval

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Retriever returns context text for a topic. An empty string means
// no relevant material was found; generation proceeds without it.
type Retriever interface {
	Retrieve(ctx context.Context, topic string, k int) (string, error)
}

// DirRetriever ranks paragraphs from .txt and .md files in a notes
// directory by term overlap with the topic.
type DirRetriever struct {
	dir string
}

func NewDirRetriever(dir string) *DirRetriever {
	return &DirRetriever{dir: dir}
}

type scoredChunk struct {
	text  string
	score int
	order int // tie-break: keep document order stable
}

func (r *DirRetriever) Retrieve(ctx context.Context, topic string, k int) (string, error) {
	if k <= 0 {
		return "", nil
	}

	terms := tokenize(topic)
	if len(terms) == 0 {
		return "", nil
	}

	var chunks []scoredChunk
	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
		default:
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read notes file %s: %w", path, err)
		}

		for _, para := range splitParagraphs(string(data)) {
			if score := overlap(terms, tokenize(para)); score > 0 {
				chunks = append(chunks, scoredChunk{text: para, score: score, order: len(chunks)})
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk notes directory: %w", err)
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].score != chunks[j].score {
			return chunks[i].score > chunks[j].score
		}
		return chunks[i].order < chunks[j].order
	})
	if len(chunks) > k {
		chunks = chunks[:k]
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.text
	}
	return strings.Join(parts, "\n\n"), nil
}

func splitParagraphs(text string) []string {
	var out []string
	for _, block := range regexp.MustCompile(`\n\s*\n`).Split(text, -1) {
		block = strings.TrimSpace(block)
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(s string) map[string]bool {
	terms := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		if len(w) > 2 { // skip stop-word-sized tokens
			terms[w] = true
		}
	}
	return terms
}

func overlap(a, b map[string]bool) int {
	n := 0
	for t := range a {
		if b[t] {
			n++
		}
	}
	return n
}
