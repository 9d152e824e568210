// Package mapreduce tallies listing attributes and ranks the most frequent values.
package mapreduce

import (
	"sort"
	"strings"
)

// NoValue is the key used for listings that leave an attribute empty.
const NoValue = "(none)"

// Count is one ranked key.
type Count struct {
	Key   string `yaml:"key"`
	Value int    `yaml:"count"`
}

// Tally counts occurrences of normalized keys. The zero value is not usable; use NewTally.
type Tally struct {
	counts map[string]int
}

func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Add counts one occurrence of key. Blank keys are counted under NoValue.
func (t *Tally) Add(key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = NoValue
	}
	t.counts[key]++
}

// TopN returns the n most frequent keys, highest first. Ties sort by key so output is stable.
func (t *Tally) TopN(n int) []Count {
	ss := make([]Count, 0, len(t.counts))
	for k, v := range t.counts {
		ss = append(ss, Count{Key: k, Value: v})
	}

	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Value != ss[j].Value {
			return ss[i].Value > ss[j].Value
		}
		return ss[i].Key < ss[j].Key
	})

	if n < 0 {
		n = 0
	}
	if len(ss) > n {
		ss = ss[:n]
	}
	return ss
}
