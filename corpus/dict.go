package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"

	log "github.com/golang/glog"

	"github.com/bin3/toyml/sstable"
	"github.com/bin3/toyml/util"
)

// WriteDict writes the vocabulary size followed by word<TAB>id lines in
// insertion order.
func (c *Corpus) WriteDict(w io.Writer) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "%d\n", c.VocabSize())
	for id := 0; id < c.VocabSize(); id++ {
		fmt.Fprintf(out, "%s\t%d\n", c.Word(id), id)
	}
	return out.Flush()
}

// WriteDetailedDict is WriteDict with corpus frequency and probability
// appended to every line.
func (c *Corpus) WriteDetailedDict(w io.Writer) error {
	items := make([]sstable.RankedItem, c.VocabSize())
	for id := range items {
		items[id] = c.rankedItem(id)
	}
	return writeCounted(w, items)
}

// WriteTopFreqWords writes the n most frequent words, most frequent
// first, ties broken by id.
func (c *Corpus) WriteTopFreqWords(w io.Writer, n int) error {
	freqs := make([]float64, c.VocabSize())
	for id := range freqs {
		freqs[id] = float64(c.freqs[id])
	}
	top := util.TopK(freqs, n)

	items := make([]sstable.RankedItem, len(top))
	for i, id := range top {
		items[i] = c.rankedItem(id)
	}
	return writeCounted(w, items)
}

func (c *Corpus) rankedItem(id int) sstable.RankedItem {
	return sstable.RankedItem{
		Word: c.Word(id),
		Id:   id,
		Freq: c.freqs[id],
		Prob: c.probs[id],
	}
}

func writeCounted(w io.Writer, items []sstable.RankedItem) error {
	if _, err := fmt.Fprintf(w, "%d\n", len(items)); err != nil {
		return err
	}
	return sstable.WriteRanked(w, items)
}

func (c *Corpus) SaveDict(fn string) error {
	return saveTo(fn, c.WriteDict)
}

func (c *Corpus) SaveDetailedDict(fn string) error {
	return saveTo(fn, c.WriteDetailedDict)
}

// SaveDictionary writes the detailed dictionary when detailed is set and
// the plain word<TAB>id form otherwise.
func (c *Corpus) SaveDictionary(fn string, detailed bool) error {
	if detailed {
		return c.SaveDetailedDict(fn)
	}
	return c.SaveDict(fn)
}

func (c *Corpus) SaveTopFreqWords(fn string, n int) error {
	return saveTo(fn, func(w io.Writer) error {
		return c.WriteTopFreqWords(w, n)
	})
}

func saveTo(fn string, write func(io.Writer) error) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		log.Errorf("failed to open %s: %v", fn, err)
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
