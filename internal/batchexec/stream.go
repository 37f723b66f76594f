package batchexec

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Chunk type markers used by the streamed query endpoint.
const (
	chunkTypeAnswer   = 1
	chunkTypeThinking = 2
)

// minAnswerLength filters out fragment chunks; the stream emits many short
// partial strings before the full text arrives.
const minAnswerLength = 20

// ExtractAnswer decodes a streamed query response and returns the final
// answer text.
//
// The stream interleaves "thinking" chunks (type 2) with answer chunks
// (type 1), each carrying a progressively longer text. The backend sometimes
// omits the type marker on legitimate final answers, so the selection is
// asymmetric: keep the longest answer-tagged chunk, and only when none exists
// fall back to the longest thinking chunk. Ties are broken first-seen.
func ExtractAnswer(text string) string {
	text = strings.TrimPrefix(text, ResponsePrefix)

	lines := strings.Split(strings.TrimSpace(text), "\n")
	var longestAnswer, longestThinking string

	consider := func(line string) {
		chunkText, isAnswer := extractChunk(line)
		if chunkText == "" {
			return
		}
		if isAnswer {
			if len(chunkText) > len(longestAnswer) {
				longestAnswer = chunkText
			}
		} else if len(chunkText) > len(longestThinking) {
			longestThinking = chunkText
		}
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if _, err := strconv.Atoi(line); err == nil {
			i++
			if i < len(lines) {
				consider(lines[i])
			}
			continue
		}
		consider(line)
	}

	if longestAnswer != "" {
		return longestAnswer
	}
	return longestThinking
}

// extractChunk pulls the candidate text out of one stream chunk and reports
// whether it is answer-tagged. The chunk is [["wrb.fr", null, innerJSON, ...]]
// where innerJSON decodes to [[text, null, ..., [.., typeCode]]]. The type
// code is the last element of the array at position 4.
func extractChunk(line string) (string, bool) {
	chunk := gjson.Parse(line)
	if !chunk.IsArray() {
		return "", false
	}

	for _, item := range chunk.Array() {
		fields := item.Array()
		if len(fields) < 3 || fields[0].String() != FrameTag {
			continue
		}
		if fields[2].Type != gjson.String {
			continue
		}

		inner := gjson.Parse(fields[2].String())
		first := inner.Get("0")
		if !first.Exists() {
			continue
		}

		// Some chunks carry a bare string instead of the tagged array;
		// those are never answer-tagged.
		if first.Type == gjson.String {
			if len(first.String()) > minAnswerLength {
				return first.String(), false
			}
			continue
		}

		answerText := first.Get("0")
		if answerText.Type != gjson.String || len(answerText.String()) <= minAnswerLength {
			continue
		}

		isAnswer := false
		if typeInfo := first.Get("4"); typeInfo.IsArray() {
			parts := typeInfo.Array()
			if len(parts) > 0 {
				last := parts[len(parts)-1]
				isAnswer = last.Type == gjson.Number && last.Int() == chunkTypeAnswer
			}
		}
		return answerText.String(), isAnswer
	}

	return "", false
}
