package summary

import (
	"encoding/json"
	"strconv"
)

// tally counts occurrences of categorical values.
type tally map[string]int

func (t tally) add(v string) { t[v]++ }

// addNumber counts n by numeric value, so 2 and 2.0 share one key.
func (t tally) addNumber(n json.Number) { t[numberKey(n)]++ }

// numberKey renders n in its shortest form. Integers keep full precision.
func numberKey(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}

// snapshot returns a plain copy suitable for output.
func (t tally) snapshot() map[string]int {
	out := make(map[string]int, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// progressionCounter is a multiset of status sequences that remembers
// first-insertion order, which fixes the tie-break of mostCommon.
type progressionCounter struct {
	order  []string
	seqs   map[string][]string
	counts map[string]int
}

func newProgressionCounter() progressionCounter {
	return progressionCounter{seqs: map[string][]string{}, counts: map[string]int{}}
}

func (p *progressionCounter) add(seq []string) {
	// JSON encoding keeps [] and [""] distinct.
	kb, _ := json.Marshal(seq)
	k := string(kb)
	if _, ok := p.counts[k]; !ok {
		p.order = append(p.order, k)
		p.seqs[k] = append([]string{}, seq...)
	}
	p.counts[k]++
}

// mostCommon returns the sequence with the highest count. Among equal counts
// the first inserted sequence wins.
func (p *progressionCounter) mostCommon() []string {
	best, bestN := "", 0
	for _, k := range p.order {
		if n := p.counts[k]; n > bestN {
			best, bestN = k, n
		}
	}
	if bestN == 0 {
		return []string{}
	}
	return append([]string{}, p.seqs[best]...)
}
