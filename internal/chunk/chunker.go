// Package chunk splits file content into overlapping token-bounded chunks.
// Code files are split on top-level declaration boundaries first, then each
// logical segment is token-windowed; plain text is windowed directly. The
// same (path, text, limits) always yields the same chunk set and ordinals.
package chunk

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/siftd/sift/internal/fileid"
	"github.com/siftd/sift/internal/meta"
	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/internal/token"
)

// minSegmentChars prevents pathologically tiny segments: a declaration
// boundary only starts a new segment once this many characters accumulated.
const minSegmentChars = 300

// declBoundaryRe matches top-level declaration starts across the supported
// languages (func/def/class/type/...).
var declBoundaryRe = regexp.MustCompile(`(?m)^(export\s+)?(public\s+|private\s+|protected\s+|static\s+)*(async\s+)?(func|fn|def|function|class|type|interface|struct|enum|trait|impl|module|object)\b`)

// Chunker splits files into chunks. Token limits differ for code and text;
// overlap is shared between consecutive windows of an oversized segment.
type Chunker struct {
	codeTokens int
	textTokens int
	overlap    int
}

// NewChunker creates a chunker with the given per-kind token limits and overlap.
func NewChunker(codeTokens, textTokens, overlap int) *Chunker {
	return &Chunker{
		codeTokens: codeTokens,
		textTokens: textTokens,
		overlap:    overlap,
	}
}

// Chunk splits text into chunks for the file at path. Chunk IDs derive from
// (path, ordinal), so unchanged content re-chunks to identical IDs.
func (c *Chunker) Chunk(path, text string) []*models.Chunk {
	lang := meta.DetectLanguage(path, text)
	if meta.IsCodeLanguage(lang) {
		return c.chunkCode(path, text)
	}
	return c.window(path, text, models.ChunkKindText, c.textTokens, "")
}

// chunkCode splits on declaration boundaries, then windows each segment.
// A file that yields a single segment is windowed with plain ordinals, the
// same as text; only multi-segment files use dotted sub-ordinals for
// oversized segments.
func (c *Chunker) chunkCode(path, text string) []*models.Chunk {
	segments := splitDeclarations(text)
	if len(segments) <= 1 {
		return c.window(path, text, models.ChunkKindCode, c.codeTokens, "")
	}
	var chunks []*models.Chunk
	for i, seg := range segments {
		tokens := token.Split(seg)
		if len(tokens) <= c.codeTokens {
			chunks = append(chunks, c.newChunk(path, seg, models.ChunkKindCode, strconv.Itoa(i), len(tokens)))
			continue
		}
		chunks = append(chunks, c.window(path, seg, models.ChunkKindCode, c.codeTokens, strconv.Itoa(i)+".")...)
	}
	return chunks
}

// window slices text into sliding token windows. ordinalPrefix is "" for
// plain ordinals (0, 1, ...) or "i." for sub-ordinals of segment i.
func (c *Chunker) window(path, text string, kind models.ChunkKind, limit int, ordinalPrefix string) []*models.Chunk {
	tokens := token.Split(text)
	if len(tokens) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}
	step := limit - c.overlap
	if step <= 0 {
		step = 1
	}
	var chunks []*models.Chunk
	for i, start := 0, 0; start < len(tokens); i, start = i+1, start+step {
		end := start + limit
		if end > len(tokens) {
			end = len(tokens)
		}
		content := token.SliceTokens(text, tokens, start, end)
		ordinal := fmt.Sprintf("%s%d", ordinalPrefix, i)
		chunks = append(chunks, c.newChunk(path, content, kind, ordinal, end-start))
		if end >= len(tokens) {
			break
		}
	}
	return chunks
}

func (c *Chunker) newChunk(path, content string, kind models.ChunkKind, ordinal string, tokens int) *models.Chunk {
	return &models.Chunk{
		ID:      fileid.ChunkID(path, ordinal),
		Path:    path,
		Ordinal: ordinal,
		Content: content,
		Kind:    kind,
		Tokens:  tokens,
	}
}

// splitDeclarations splits source text into logical segments at declaration
// boundaries, merging segments shorter than minSegmentChars into the next one.
func splitDeclarations(text string) []string {
	locs := declBoundaryRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var segments []string
	segStart := 0
	for _, loc := range locs {
		if loc[0] == segStart {
			continue
		}
		if loc[0]-segStart < minSegmentChars {
			continue
		}
		segments = append(segments, text[segStart:loc[0]])
		segStart = loc[0]
	}
	if segStart < len(text) {
		segments = append(segments, text[segStart:])
	}
	return segments
}
