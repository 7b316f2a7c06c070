// Package index implements a flat squared-L2 nearest-neighbor index over
// chunk embeddings. Vectors and their ids live in two positionally paired
// artifacts; position i in the vector block always addresses ids[i].
package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// artifact header for the vector block.
const (
	artifactMagic   = "MKBX"
	artifactVersion = uint32(1)
)

// Flat is an exhaustive-scan index. Distances are squared Euclidean with
// no internal normalization; callers normalize before indexing if they
// want cosine semantics. Safe for concurrent use.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	ids     []string
}

// NewFlat creates an empty index for vectors of the given width.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Build replaces all index content with the given vectors and ids.
func (f *Flat) Build(vectors [][]float32, ids []string) error {
	if err := f.check(vectors, ids); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = append([][]float32(nil), vectors...)
	f.ids = append([]string(nil), ids...)
	return nil
}

// Add appends vectors and ids to the index. On an empty index this is
// equivalent to Build.
func (f *Flat) Add(vectors [][]float32, ids []string) error {
	if err := f.check(vectors, ids); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = append(f.vectors, vectors...)
	f.ids = append(f.ids, ids...)
	return nil
}

func (f *Flat) check(vectors [][]float32, ids []string) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("%w: %d vectors, %d ids",
			domain.ErrVectorDimMismatch, len(vectors), len(ids))
	}
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: vector %d has width %d, index wants %d",
				domain.ErrVectorDimMismatch, i, len(v), f.dim)
		}
	}
	return nil
}

// Search returns the k nearest ids by squared-L2 distance, ascending.
// k is clamped to the number of indexed vectors.
func (f *Flat) Search(query []float32, k int) ([]domain.SearchHit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query width %d, index wants %d",
			domain.ErrVectorDimMismatch, len(query), f.dim)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.vectors) == 0 {
		return nil, domain.ErrIndexEmpty
	}
	if k > len(f.vectors) {
		k = len(f.vectors)
	}
	if k <= 0 {
		return nil, nil
	}

	order := make([]int, len(f.vectors))
	dists := make([]float32, len(f.vectors))
	for i, v := range f.vectors {
		order[i] = i
		dists[i] = sqL2(query, v)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	hits := make([]domain.SearchHit, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.SearchHit{ChunkID: f.ids[order[i]], Distance: dists[order[i]]}
	}
	return hits, nil
}

// Count returns the number of indexed vectors.
func (f *Flat) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Dim returns the configured vector width.
func (f *Flat) Dim() int { return f.dim }

// Save writes the vector block and the id list to their artifact paths.
// The two files form one unit and must be loaded together.
func (f *Flat) Save(vectorPath, idListPath string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	buf := make([]byte, 0, 16+len(f.vectors)*f.dim*4)
	buf = append(buf, artifactMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, artifactVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(f.dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(f.vectors)))
	for _, v := range f.vectors {
		for _, x := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
		}
	}
	if err := os.WriteFile(vectorPath, buf, 0o644); err != nil {
		return fmt.Errorf("write vector artifact: %w", err)
	}

	ids, err := json.Marshal(f.ids)
	if err != nil {
		return fmt.Errorf("encode id list: %w", err)
	}
	if err := os.WriteFile(idListPath, ids, 0o644); err != nil {
		return fmt.Errorf("write id list artifact: %w", err)
	}
	return nil
}

// Load reads both artifacts and replaces the index content. Artifacts
// whose lengths disagree fail with ErrIndexCorrupt.
func (f *Flat) Load(vectorPath, idListPath string) error {
	raw, err := os.ReadFile(vectorPath)
	if err != nil {
		return fmt.Errorf("read vector artifact: %w", err)
	}
	if len(raw) < 16 || string(raw[:4]) != artifactMagic {
		return fmt.Errorf("%w: bad vector artifact header", domain.ErrIndexCorrupt)
	}
	if v := binary.LittleEndian.Uint32(raw[4:8]); v != artifactVersion {
		return fmt.Errorf("%w: unsupported artifact version %d", domain.ErrIndexCorrupt, v)
	}
	dim := int(binary.LittleEndian.Uint32(raw[8:12]))
	count := int(binary.LittleEndian.Uint32(raw[12:16]))
	if dim != f.dim {
		return fmt.Errorf("%w: artifact width %d, index wants %d",
			domain.ErrVectorDimMismatch, dim, f.dim)
	}
	if len(raw) != 16+count*dim*4 {
		return fmt.Errorf("%w: vector artifact truncated", domain.ErrIndexCorrupt)
	}

	vectors := make([][]float32, count)
	off := 16
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off : off+4]))
			off += 4
		}
		vectors[i] = v
	}

	idsRaw, err := os.ReadFile(idListPath)
	if err != nil {
		return fmt.Errorf("read id list artifact: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(idsRaw, &ids); err != nil {
		return fmt.Errorf("%w: decode id list: %v", domain.ErrIndexCorrupt, err)
	}
	if len(ids) != count {
		return fmt.Errorf("%w: %d vectors but %d ids", domain.ErrIndexCorrupt, count, len(ids))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = vectors
	f.ids = ids
	return nil
}

func sqL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
