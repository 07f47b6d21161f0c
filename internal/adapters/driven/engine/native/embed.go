package native

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// tokens splits text into case folded words.
func tokens(text string) []string {
	return strings.FieldsFunc(folder.String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// embed hashes the words of text into a unit vector of dim dimensions.
func embed(text string, dim int) []float32 {
	v := make([]float32, dim)
	for _, tok := range tokens(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(dim))
		if sum&(1<<31) != 0 {
			v[idx]--
		} else {
			v[idx]++
		}
	}
	normalize(v)
	return v
}

func normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
}

// cosine returns the cosine similarity, 0 when either vector is empty or zero.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// centroid is a running mean of embeddings.
type centroid struct {
	Mean  []float32 `cbor:"mean,omitempty"`
	Count int       `cbor:"count"`
}

func (c *centroid) add(e []float32) {
	if len(e) == 0 {
		return
	}
	if len(c.Mean) != len(e) {
		c.Mean = make([]float32, len(e))
		c.Count = 0
	}
	c.Count++
	w := 1 / float32(c.Count)
	for i := range e {
		c.Mean[i] += (e[i] - c.Mean[i]) * w
	}
}

func (c *centroid) similarity(e []float32) float64 {
	if c.Count == 0 {
		return 0
	}
	return cosine(c.Mean, e)
}
