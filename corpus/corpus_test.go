package corpus

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CorpusTestSuite struct {
	suite.Suite
	c *Corpus
}

func (s *CorpusTestSuite) SetupTest() {
	c, err := Load(strings.NewReader("a a b\nb c c\n\na c\n"))
	s.Require().NoError(err)
	s.c = c
}

func (s *CorpusTestSuite) TestSizes() {
	s.Equal(4, s.c.DocNum())
	s.Equal(3, s.c.VocabSize())
	s.Equal(8, s.c.TotalWords())
	s.Equal("a", s.c.Word(0))
	s.Equal("b", s.c.Word(1))
	s.Equal("c", s.c.Word(2))
}

func (s *CorpusTestSuite) TestDocuments() {
	s.Equal(Document{{WordId: 0, Count: 2}, {WordId: 1, Count: 1}}, s.c.Doc(0))
	s.Equal(Document{{WordId: 1, Count: 1}, {WordId: 2, Count: 2}}, s.c.Doc(1))
	s.Empty(s.c.Doc(2))
	s.Equal(Document{{WordId: 0, Count: 1}, {WordId: 2, Count: 1}}, s.c.Doc(3))
	s.Equal(3, s.c.Doc(0).Len())
}

func (s *CorpusTestSuite) TestPostingListsInvertDocuments() {
	seen := 0
	for d := 0; d < s.c.DocNum(); d++ {
		for _, wc := range s.c.Doc(d) {
			matches := 0
			for _, dc := range s.c.Post(wc.WordId) {
				if dc.DocId == d {
					s.Equal(wc.Count, dc.Count)
					matches++
				}
			}
			s.Equal(1, matches)
			seen++
		}
	}
	total := 0
	for w := 0; w < s.c.VocabSize(); w++ {
		total += len(s.c.Post(w))
	}
	s.Equal(seen, total)
	s.Equal(PostingList{{DocId: 0, Count: 2}, {DocId: 3, Count: 1}}, s.c.Post(0))
}

func (s *CorpusTestSuite) TestWordProb() {
	probs := s.c.WordProb()
	s.InDeltaSlice([]float64{3.0 / 8, 2.0 / 8, 3.0 / 8}, probs, 1e-12)
	s.Equal(3, s.c.WordFreq(2))

	probs[0] = 42
	s.InDelta(3.0/8, s.c.WordProb()[0], 1e-12)
}

func (s *CorpusTestSuite) TestFingerprint() {
	same, err := Load(strings.NewReader("a a b\nb c c\n\na c\n"))
	s.Require().NoError(err)
	other, err := Load(strings.NewReader("a b\nb c c\n\na c\n"))
	s.Require().NoError(err)

	s.Equal(s.c.Fingerprint(), same.Fingerprint())
	s.NotEqual(s.c.Fingerprint(), other.Fingerprint())
}

func (s *CorpusTestSuite) TestWriteDict() {
	var buf bytes.Buffer
	s.Require().NoError(s.c.WriteDict(&buf))
	s.Equal("3\na\t0\nb\t1\nc\t2\n", buf.String())
}

func (s *CorpusTestSuite) TestWriteDetailedDict() {
	var buf bytes.Buffer
	s.Require().NoError(s.c.WriteDetailedDict(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	s.Require().Len(lines, 4)
	s.Equal("3", lines[0])
	s.Equal("b\t1\t2\t0.25", lines[2])
}

func (s *CorpusTestSuite) TestWriteTopFreqWords() {
	var buf bytes.Buffer
	s.Require().NoError(s.c.WriteTopFreqWords(&buf, 2))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	s.Require().Len(lines, 3)
	s.Equal("2", lines[0])
	s.True(strings.HasPrefix(lines[1], "a\t0\t3\t"))
	s.True(strings.HasPrefix(lines[2], "c\t2\t3\t"))
}

func (s *CorpusTestSuite) TestSaveDictionary() {
	dir := s.T().TempDir()
	plain := filepath.Join(dir, "dict.dat")
	detailed := filepath.Join(dir, "dict-detailed.dat")
	s.Require().NoError(s.c.SaveDictionary(plain, false))
	s.Require().NoError(s.c.SaveDictionary(detailed, true))

	content, err := os.ReadFile(plain)
	s.Require().NoError(err)
	s.Equal("3\na\t0\nb\t1\nc\t2\n", string(content))

	content, err = os.ReadFile(detailed)
	s.Require().NoError(err)
	s.Contains(string(content), "b\t1\t2\t0.25\n")
}

func TestCorpusTestSuite(t *testing.T) {
	suite.Run(t, new(CorpusTestSuite))
}

func TestLoadFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "docs.dat")
	require.NoError(t, os.WriteFile(fn, []byte("x  y\tx\n"), 0o644))

	c, err := LoadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, 1, c.DocNum())
	assert.Equal(t, Document{{WordId: 0, Count: 2}, {WordId: 1, Count: 1}}, c.Doc(0))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.dat"))
	assert.Error(t, err)
}

func TestSaveDictUnwritable(t *testing.T) {
	c, err := Load(strings.NewReader("a\n"))
	require.NoError(t, err)
	assert.Error(t, c.SaveDict(filepath.Join(t.TempDir(), "no", "dict.dat")))
}

func TestExpandWords(t *testing.T) {
	doc := Document{{WordId: 4, Count: 2}, {WordId: 7, Count: 1}}
	assert.Equal(t, []int{4, 4, 7}, ExpandWords(doc))
}

func TestVocabulary(t *testing.T) {
	v := NewVocabulary()
	assert.Equal(t, 0, v.Index("x"))
	assert.Equal(t, 1, v.Index("y"))
	assert.Equal(t, 0, v.Index("x"))
	id, ok := v.Id("y")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	_, ok = v.Id("z")
	assert.False(t, ok)
	assert.Equal(t, 2, v.Size())
}
