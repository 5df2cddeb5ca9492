package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/bin3/toyml/util"
)

// rankedList is one titled block of a topic report: the topn entries
// with the highest score, rendered through label.
type rankedList struct {
	title string
	score func(topic int) []float64
	label func(id int) string
}

// writeTopics writes, for every topic, "Topic #z:" followed by each
// list's top entries as "\tlabel\tscore". An untitled single list is
// written without a section header.
func writeTopics(w io.Writer, ntopics, topn int, lists ...rankedList) error {
	out := bufio.NewWriter(w)
	for z := 0; z < ntopics; z += 1 {
		fmt.Fprintf(out, "Topic #%d:\n", z)
		for _, list := range lists {
			scores := list.score(z)
			top := util.TopK(scores, topn)
			if list.title != "" {
				fmt.Fprintf(out, "  Top %d %s:\n", len(top), list.title)
			}
			for _, id := range top {
				out.WriteByte('\t')
				out.WriteString(list.label(id))
				out.WriteByte('\t')
				out.WriteString(strconv.FormatFloat(scores[id], 'g', -1, 64))
				out.WriteByte('\n')
			}
		}
	}
	return out.Flush()
}

func saveTopics(fn string, ntopics, topn int, lists ...rankedList) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := writeTopics(f, ntopics, topn, lists...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
