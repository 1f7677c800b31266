package search

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

const dotGraphName = "search"

// WriteDOT dumps the current candidate statistics as a Graphviz document,
// best-visited candidates fanning out of the root. Used for post-game logs.
func (t *Tree) WriteDOT(w io.Writer) error {
	g := gographviz.NewGraph()
	if err := g.SetName(dotGraphName); err != nil {
		return errors.Wrap(err, "dot export")
	}
	if err := g.SetDir(true); err != nil {
		return errors.Wrap(err, "dot export")
	}
	if err := g.AddNode(dotGraphName, "root", map[string]string{"label": `"root"`}); err != nil {
		return errors.Wrap(err, "dot export")
	}

	type entry struct {
		idx    int
		visits int64
	}
	var entries []entry
	for i := range t.cands {
		if v := atomic.LoadInt64(&t.cands[i].visits); v > 0 {
			entries = append(entries, entry{i, v})
		}
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].visits > entries[b].visits })
	if len(entries) > 16 {
		entries = entries[:16]
	}

	for n, e := range entries {
		id := fmt.Sprintf("n%d", n)
		label := fmt.Sprintf("\"%s visits=%d winrate=%.3f\"", moveName(e.idx), e.visits, t.candWinRate(e.idx))
		if err := g.AddNode(dotGraphName, id, map[string]string{"label": label}); err != nil {
			return errors.Wrap(err, "dot export")
		}
		if err := g.AddEdge("root", id, true, nil); err != nil {
			return errors.Wrap(err, "dot export")
		}
	}

	_, err := io.WriteString(w, g.String())
	return errors.Wrap(err, "dot export")
}
