package services

// Chunker splits document text into overlapping segments. Cut points
// prefer the largest separator found inside the size window: paragraph
// break, then line break, then sentence end, then space, then a hard
// character cut. Sizes and overlap are measured in characters, not
// bytes, so multibyte text is never cut mid-rune. The same text and
// parameters always produce the same chunk sequence.
type Chunker struct {
	chunkSize int
	overlap   int
}

var chunkSeparators = [][]rune{[]rune("\n\n"), []rune("\n"), []rune(". "), []rune(" ")}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split produces the ordered chunk sequence for text. Each chunk after
// the first re-includes the last overlap characters of its predecessor,
// so stripping that prefix and concatenating reconstructs the input.
// Empty text yields no chunks; text within the size limit yields one.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := c.findCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - c.overlap
	}
	return chunks
}

// findCut picks the split position inside (start, end]. It must land
// past start+overlap so the next chunk always advances.
func (c *Chunker) findCut(runes []rune, start, end int) int {
	window := runes[start:end]
	floor := c.overlap + 1

	for _, sep := range chunkSeparators {
		idx := lastIndexRunes(window, sep)
		if idx < 0 {
			continue
		}
		cut := idx + len(sep)
		if cut > floor {
			return start + cut
		}
	}
	return end
}

func lastIndexRunes(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// StripOverlap removes the re-included prefix from every chunk after
// the first, yielding the non-overlapping segments of the original
// text.
func (c *Chunker) StripOverlap(chunks []string) []string {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		r := []rune(chunks[i])
		if len(r) > c.overlap {
			out[i] = string(r[c.overlap:])
		} else {
			out[i] = ""
		}
	}
	return out
}
