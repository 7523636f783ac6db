package orchestrator

const maxChunkCodePoints = 1000

// SplitFinalResult chunks s into runs of at most maxChunkCodePoints code
// points each (counted as runes, not bytes, and without regard to grapheme
// clusters — preserved exactly as the source behaves per §9). Concatenating
// the returned chunks reproduces s exactly.
func SplitFinalResult(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(runes)/maxChunkCodePoints)+1)
	for start := 0; start < len(runes); start += maxChunkCodePoints {
		end := start + maxChunkCodePoints
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
