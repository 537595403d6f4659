package rag

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// SimilarityResult is one scored unit returned by SimilaritySearch.
type SimilarityResult struct {
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// DocumentInfo describes a stored document for the listing surface.
type DocumentInfo struct {
	Name  string `json:"name"`
	Units int    `json:"units"`
	Bytes int    `json:"bytes"`
}

// storedUnit is one embedded unit: the whole document in the simple variant,
// a single chunk in the chunked variant.
type storedUnit struct {
	text      string
	embedding []float32
	seq       uint64
}

// DocumentStore is an in-memory map from document name to its embedded
// units. Writes replace whole documents atomically, so a concurrent search
// never observes a half-written document. Search is an exhaustive O(N*D)
// scan — intentional at the target scale (tens to low hundreds of
// documents); swap in an approximate index behind the same contract before
// scaling beyond that.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]storedUnit
	seq  uint64
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string][]storedUnit),
	}
}

// Put inserts or replaces a document stored as a single embedded unit.
func (s *DocumentStore) Put(name string, text string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("document %q: empty embedding", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.docs[name] = []storedUnit{{text: text, embedding: embedding, seq: s.seq}}
	return nil
}

// PutChunks inserts or replaces a document stored as one unit per chunk.
// The replacement is atomic: readers see either the old set or the new set.
func (s *DocumentStore) PutChunks(name string, texts []string, embeddings [][]float32) error {
	if len(texts) != len(embeddings) {
		return fmt.Errorf("document %q: %d chunks but %d embeddings", name, len(texts), len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) == 0 {
			return fmt.Errorf("document %q: empty embedding for chunk %d", name, i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	units := make([]storedUnit, len(texts))
	for i := range texts {
		s.seq++
		units[i] = storedUnit{text: texts[i], embedding: embeddings[i], seq: s.seq}
	}
	s.docs[name] = units
	return nil
}

// Delete removes a document and all its units. Deleting a name that was
// never stored is a no-op.
func (s *DocumentStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, name)
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// List returns stored document infos sorted by name.
func (s *DocumentStore) List() []DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]DocumentInfo, 0, len(s.docs))
	for name, units := range s.docs {
		info := DocumentInfo{Name: name, Units: len(units)}
		for _, u := range units {
			info.Bytes += len(u.text)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// SimilaritySearch scores every stored unit against the query embedding by
// cosine similarity, keeps scores >= minScore and returns at most topK
// results, ordered by descending score with ties broken by insertion order.
func (s *DocumentStore) SimilaritySearch(query []float32, topK int, minScore float64) []SimilarityResult {
	if topK <= 0 || len(query) == 0 {
		return nil
	}

	s.mu.RLock()
	type scored struct {
		SimilarityResult
		seq uint64
	}
	var results []scored
	for name, units := range s.docs {
		for i, u := range units {
			if len(u.embedding) != len(query) {
				// Dimension mismatch (provider changed models): not comparable.
				continue
			}
			score := cosineSimilarity(query, u.embedding)
			if score >= minScore {
				results = append(results, scored{
					SimilarityResult: SimilarityResult{
						Source:     name,
						ChunkIndex: i,
						Text:       u.text,
						Score:      score,
					},
					seq: u.seq,
				})
			}
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].seq < results[j].seq
	})

	if len(results) > topK {
		results = results[:topK]
	}
	out := make([]SimilarityResult, len(results))
	for i, r := range results {
		out[i] = r.SimilarityResult
	}
	return out
}

// cosineSimilarity computes dot(a,b)/(|a|*|b|) in float64 for stability.
// A zero-magnitude vector yields 0 rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
