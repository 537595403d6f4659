package utils

import "fmt"

// SplitText splits a long string into chunks of approximately 'chunkSize'
// runes with an 'overlap' to preserve context at boundaries. Chunk ends
// prefer a sentence-terminating period within the last 100 runes of the
// window, then the nearest preceding space, so words are not cut in half
// when a boundary exists.
//
// Chunks are raw slices of the input (no trimming): concatenating the
// non-overlapping spans reconstructs the original text exactly.
func SplitText(text string, chunkSize int, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		// overlap >= chunkSize would make the offset stop advancing
		return nil, fmt.Errorf("invalid overlap %d for chunk size %d", overlap, chunkSize)
	}

	runes := []rune(text)
	totalLen := len(runes)
	if totalLen == 0 {
		return nil, nil
	}

	var chunks []string
	offset := 0

	for offset < totalLen {
		end := offset + chunkSize
		if end > totalLen {
			end = totalLen
		}

		// Not the final chunk: pull the boundary back to a natural break.
		if end < totalLen {
			lastPeriod := lastIndexBefore(runes, '.', end)
			lastSpace := lastIndexBefore(runes, ' ', end)

			if lastPeriod > offset && lastPeriod > end-100 {
				end = lastPeriod + 1
			} else if lastSpace > offset {
				end = lastSpace + 1
			}
		}

		chunks = append(chunks, string(runes[offset:end]))

		if end == totalLen {
			break
		}

		next := end - overlap
		if next <= offset {
			// Pathological input (no break found, tiny window): forfeit the
			// overlap rather than loop forever.
			next = end
		}
		offset = next
	}

	return chunks, nil
}

// lastIndexBefore returns the largest index < end where runes[index] == r,
// or -1 if there is none.
func lastIndexBefore(runes []rune, r rune, end int) int {
	for i := end - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
