package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/kisanmitra/agri-advisor/internal/utils"
)

// Embedder turns text into a vector of the store's embedding dimension.
type Embedder func(ctx context.Context, text string) ([]float32, error)

// InsertPolicySection stores a section and its vector. The section ID is filled in.
func (s *SQLiteStore) InsertPolicySection(ctx context.Context, sec *PolicySection) error {
	if err := s.checkEmbedding(sec); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertPolicySection(ctx, tx, sec); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit policy chunk: %w", err)
	}
	return nil
}

// ReplacePolicySections swaps the whole policy index for secs in one transaction.
// The previous index survives any failure.
func (s *SQLiteStore) ReplacePolicySections(ctx context.Context, secs []*PolicySection) error {
	for _, sec := range secs {
		if err := s.checkEmbedding(sec); err != nil {
			return err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearPolicySections(ctx, tx); err != nil {
		return err
	}
	for _, sec := range secs {
		if err := insertPolicySection(ctx, tx, sec); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit policy index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearPolicySections(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearPolicySections(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) checkEmbedding(sec *PolicySection) error {
	if len(sec.Embedding) != s.embeddingDim {
		return fmt.Errorf("embedding has %d dimensions, index expects %d", len(sec.Embedding), s.embeddingDim)
	}
	return nil
}

func insertPolicySection(ctx context.Context, tx *sql.Tx, sec *PolicySection) error {
	res, err := tx.ExecContext(ctx, "INSERT INTO policy_chunks (source, position, content) VALUES (?, ?, ?)",
		sec.Source, sec.Position, sec.Content)
	if err != nil {
		return fmt.Errorf("failed to insert policy chunk: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read policy chunk id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO vec_policy_chunks (chunk_id, embedding) VALUES (?, ?)",
		id, serializeFloat32(sec.Embedding)); err != nil {
		return fmt.Errorf("failed to index policy chunk: %w", err)
	}
	sec.ID = id
	return nil
}

func clearPolicySections(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM vec_policy_chunks"); err != nil {
		return fmt.Errorf("failed to clear policy index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM policy_chunks"); err != nil {
		return fmt.Errorf("failed to clear policy chunks: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountPolicySections(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM policy_chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count policy chunks: %w", err)
	}
	return n, nil
}

// SearchPolicySections returns the k nearest sections, most similar first.
// Similarity is 1 - cosine distance, clamped to [0, 1].
func (s *SQLiteStore) SearchPolicySections(ctx context.Context, query []float32, k int) ([]PolicyMatch, error) {
	if len(query) != s.embeddingDim {
		return nil, fmt.Errorf("query embedding has %d dimensions, index expects %d", len(query), s.embeddingDim)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.chunk_id, v.distance, c.source, c.position, c.content
		FROM vec_policy_chunks v
		JOIN policy_chunks c ON c.id = v.chunk_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search policy index: %w", err)
	}
	defer rows.Close()

	var out []PolicyMatch
	for rows.Next() {
		var m PolicyMatch
		var distance float64
		if err := rows.Scan(&m.ID, &distance, &m.Source, &m.Position, &m.Content); err != nil {
			return nil, fmt.Errorf("failed to scan policy match: %w", err)
		}
		m.Similarity = utils.DistanceToSimilarity(distance)
		out = append(out, m)
	}
	return out, rows.Err()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// ExtractText reads a policy document. PDFs are read page by page; anything else
// is treated as UTF-8 text.
func ExtractText(path string) (string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(b), nil
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// ChunkText splits text on blank lines and packs paragraphs into chunks of at
// most size runes. Consecutive chunks share up to overlap trailing runes.
// Paragraphs longer than size are cut at word boundaries.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1200
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var pieces []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		pieces = append(pieces, splitLong(para, size-overlap)...)
	}

	var chunks []string
	var current string
	for _, p := range pieces {
		switch {
		case current == "":
			current = p
		case runeLen(current)+1+runeLen(p) <= size:
			current += " " + p
		default:
			chunks = append(chunks, current)
			if tail := tailWords(current, overlap); tail != "" && runeLen(tail)+1+runeLen(p) <= size {
				current = tail + " " + p
			} else {
				current = p
			}
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func runeLen(s string) int { return len([]rune(s)) }

// splitLong cuts a paragraph into word-aligned parts of at most limit runes.
func splitLong(para string, limit int) []string {
	if runeLen(para) <= limit {
		return []string{para}
	}
	var out []string
	var cur []string
	curLen := 0
	for _, w := range strings.Fields(para) {
		wl := runeLen(w)
		if curLen > 0 && curLen+1+wl > limit {
			out = append(out, strings.Join(cur, " "))
			cur, curLen = nil, 0
		}
		if curLen > 0 {
			curLen++
		}
		cur = append(cur, w)
		curLen += wl
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

// tailWords returns the longest run of whole trailing words within n runes.
func tailWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	length := 0
	i := len(words)
	for i > 0 {
		wl := runeLen(words[i-1])
		if length > 0 {
			wl++
		}
		if length+wl > n {
			break
		}
		length += wl
		i--
	}
	return strings.Join(words[i:], " ")
}

// IngestOptions control policy ingestion.
type IngestOptions struct {
	ChunkSize    int
	ChunkOverlap int
	// Interval spaces embedding calls to stay under the provider rate limit.
	Interval time.Duration
}

// ErrNothingEmbedded is returned when no policy chunk could be embedded. The
// existing index is left as it was.
var ErrNothingEmbedded = errors.New("no policy chunk could be embedded")

// IngestPolicies replaces the policy index with chunks of the given documents.
// Every chunk is embedded before the index is touched. Chunks that fail to embed
// are skipped and logged.
func (s *SQLiteStore) IngestPolicies(ctx context.Context, paths []string, embed Embedder, opts IngestOptions) (int, error) {
	var chunks []*PolicySection
	for _, path := range paths {
		text, err := ExtractText(path)
		if err != nil {
			return 0, err
		}
		for i, c := range ChunkText(text, opts.ChunkSize, opts.ChunkOverlap) {
			chunks = append(chunks, &PolicySection{Source: filepath.Base(path), Position: i, Content: c})
		}
	}
	if len(chunks) == 0 {
		s.log.Warn("no policy text found", map[string]interface{}{"files": len(paths)})
		return 0, nil
	}

	s.log.Info("embedding policy chunks", map[string]interface{}{"chunks": len(chunks), "files": len(paths)})

	interval := opts.Interval
	if interval <= 0 {
		interval = 40 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var ready []*PolicySection
	for i, sec := range chunks {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}

		embedding, err := embed(ctx, sec.Content)
		if err == nil && len(embedding) != s.embeddingDim {
			err = fmt.Errorf("embedding has %d dimensions, index expects %d", len(embedding), s.embeddingDim)
		}
		if err != nil {
			s.log.Warn("failed to embed policy chunk, skipping", map[string]interface{}{
				"chunk": i + 1, "source": sec.Source, "error": err.Error(),
			})
			continue
		}
		sec.Embedding = embedding
		ready = append(ready, sec)
		if len(ready)%10 == 0 {
			s.log.Info("policy ingestion progress", map[string]interface{}{"embedded": len(ready), "total": len(chunks)})
		}
	}
	if len(ready) == 0 {
		return 0, fmt.Errorf("%w (%d failed)", ErrNothingEmbedded, len(chunks))
	}

	if err := s.ReplacePolicySections(ctx, ready); err != nil {
		return 0, err
	}
	s.log.Info("policy ingestion finished", map[string]interface{}{"ingested": len(ready), "skipped": len(chunks) - len(ready)})
	return len(ready), nil
}
