package poem

// RhymeGroups is the run-scoped map from rhyme label to the rhyme key fixed
// by the first line of that label to succeed. It is owned by a single run
// and needs no locking.
type RhymeGroups struct {
	keys     map[string]string
	endWords map[string][]string
}

func NewRhymeGroups() *RhymeGroups {
	return &RhymeGroups{
		keys:     make(map[string]string),
		endWords: make(map[string][]string),
	}
}

// ObserveOrFetch returns the fixed key for label. fixed is false while no
// line of the group has succeeded, in which case the caller may land on any
// key.
func (g *RhymeGroups) ObserveOrFetch(label string) (key string, fixed bool) {
	key, fixed = g.keys[label]
	return key, fixed
}

// Commit records a successful line of the group. The first commit fixes the
// key; later commits only remember the end word.
func (g *RhymeGroups) Commit(label, key, endWord string) {
	if _, ok := g.keys[label]; !ok {
		g.keys[label] = key
	}
	if endWord != "" {
		g.endWords[label] = append(g.endWords[label], endWord)
	}
}

// EndWords lists the words that already end lines of the group.
func (g *RhymeGroups) EndWords(label string) []string {
	return g.endWords[label]
}

// Labels returns the number of groups with a fixed key.
func (g *RhymeGroups) Labels() int {
	return len(g.keys)
}
