// Package corpus holds the immutable bag-of-words view of a document
// collection that every trainer reads from.
package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"github.com/huichen/murmur"
)

// maxLineSize bounds a single document line. Follow lists of heavy users
// easily exceed bufio's 64KB default.
const maxLineSize = 64 * 1024 * 1024

type WordCount struct {
	WordId int
	Count  int
}

type DocCount struct {
	DocId int
	Count int
}

// Document is the (word, frequency) list of one line of input, sorted by
// word id with unique ids.
type Document []WordCount

// PostingList is the inverse of Document: the (document, frequency)
// pairs of one word, sorted by document id.
type PostingList []DocCount

// Len returns the number of raw tokens in the document.
func (d Document) Len() int {
	n := 0
	for _, wc := range d {
		n += wc.Count
	}
	return n
}

// ExpandWords unrolls a document into its raw token sequence, repeating
// each word id Count times in document order.
func ExpandWords(wcs Document) []int {
	words := make([]int, 0, wcs.Len())
	for _, wc := range wcs {
		for i := 0; i < wc.Count; i += 1 {
			words = append(words, wc.WordId)
		}
	}
	return words
}

// Reader is the read-only view the trainers depend on.
type Reader interface {
	DocNum() int
	VocabSize() int
	TotalWords() int
	Doc(d int) Document
	Post(w int) PostingList
	Word(id int) string
	WordFreq(id int) int
	// WordProb returns the corpus unigram distribution freq(w)/total.
	WordProb() []float64
}

// Corpus is built once by Load and never mutated afterwards.
type Corpus struct {
	vocab *Vocabulary
	docs  []Document
	posts []PostingList
	freqs []int
	probs []float64
	total int
}

var _ Reader = (*Corpus)(nil)

// Load reads one document per line from r. Tokens are separated by
// whitespace; empty lines become empty documents so that line numbers
// stay aligned across parallel corpora.
func Load(r io.Reader) (*Corpus, error) {
	c := &Corpus{vocab: NewVocabulary()}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		word2freq := make(map[int]int)
		for _, token := range strings.Fields(scanner.Text()) {
			word2freq[c.vocab.Index(token)] += 1
		}
		doc := make(Document, 0, len(word2freq))
		for w, n := range word2freq {
			doc = append(doc, WordCount{WordId: w, Count: n})
		}
		sort.Slice(doc, func(i, j int) bool { return doc[i].WordId < doc[j].WordId })
		c.docs = append(c.docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: read documents: %w", err)
	}

	c.finalize()
	return c, nil
}

// LoadFile opens fn and loads it with Load.
func LoadFile(fn string) (*Corpus, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, err
	}

	log.Infof("loaded %s: %s", fn, c.StatString())
	return c, nil
}

// finalize builds every derived structure eagerly: posting lists, word
// frequencies and the unigram distribution.
func (c *Corpus) finalize() {
	nw := c.vocab.Size()
	c.posts = make([]PostingList, nw)
	c.freqs = make([]int, nw)
	c.total = 0
	for d, doc := range c.docs {
		for _, wc := range doc {
			c.posts[wc.WordId] = append(c.posts[wc.WordId], DocCount{DocId: d, Count: wc.Count})
			c.freqs[wc.WordId] += wc.Count
			c.total += wc.Count
		}
	}

	c.probs = make([]float64, nw)
	if c.total > 0 {
		for w, n := range c.freqs {
			c.probs[w] = float64(n) / float64(c.total)
		}
	}
}

func (c *Corpus) DocNum() int {
	return len(c.docs)
}

func (c *Corpus) VocabSize() int {
	return c.vocab.Size()
}

func (c *Corpus) TotalWords() int {
	return c.total
}

func (c *Corpus) Doc(d int) Document {
	return c.docs[d]
}

func (c *Corpus) Post(w int) PostingList {
	return c.posts[w]
}

func (c *Corpus) Word(id int) string {
	return c.vocab.Word(id)
}

func (c *Corpus) WordFreq(id int) int {
	return c.freqs[id]
}

func (c *Corpus) WordProb() []float64 {
	probs := make([]float64, len(c.probs))
	copy(probs, c.probs)
	return probs
}

// Vocabulary returns the word-id mapping of the corpus.
func (c *Corpus) Vocabulary() *Vocabulary {
	return c.vocab
}

func (c *Corpus) StatString() string {
	return fmt.Sprintf("DocSize=%d, DictSize=%d, WordOccurs=%d",
		c.DocNum(), c.VocabSize(), c.TotalWords())
}

// Fingerprint hashes the vocabulary and every document so that training
// runs over the same input can be matched up in the journal.
func (c *Corpus) Fingerprint() uint32 {
	var buf bytes.Buffer
	for _, doc := range c.docs {
		for _, wc := range doc {
			buf.WriteString(c.vocab.Word(wc.WordId))
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(wc.Count))
			buf.WriteByte(' ')
		}
		buf.WriteByte('\n')
	}
	return murmur.Murmur3(buf.Bytes())
}
