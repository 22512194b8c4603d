package chunker

import (
	"fmt"
	"strings"
)

const (
	DefaultMinSize = 800
	DefaultMaxSize = 1200
	DefaultOverlap = 100
)

// Splitter cuts text into overlapping windows measured in runes. Consecutive
// windows share up to Overlap runes; when the remaining tail is shorter than
// MinSize the final window extends to consume it whole.
type Splitter struct {
	minSize int
	maxSize int
	overlap int
}

func NewSplitter(minSize, maxSize, overlap int) (*Splitter, error) {
	if minSize <= 0 || maxSize <= 0 || overlap < 0 {
		return nil, fmt.Errorf("chunk sizes must be positive, overlap non-negative")
	}
	if minSize > maxSize {
		return nil, fmt.Errorf("min size %d exceeds max size %d", minSize, maxSize)
	}
	// overlap >= maxSize makes the window advance non-positive, refuse the
	// configuration instead of stalling later.
	if overlap >= maxSize {
		return nil, fmt.Errorf("overlap %d must be smaller than max size %d", overlap, maxSize)
	}
	return &Splitter{minSize: minSize, maxSize: maxSize, overlap: overlap}, nil
}

func (s *Splitter) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	index := 0
	for index < len(runes) {
		length := s.maxSize
		if remaining := len(runes) - index; remaining < length {
			length = remaining
		}
		if length < s.minSize && index != 0 {
			length = len(runes) - index
		}
		chunks = append(chunks, string(runes[index:index+length]))
		if index+length >= len(runes) {
			break
		}
		advance := length - s.overlap
		if advance < 1 {
			advance = 1
		}
		index += advance
	}
	return chunks
}
