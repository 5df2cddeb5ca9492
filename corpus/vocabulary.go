package corpus

// Vocabulary maps words to dense ids in first seen order. It only grows.
type Vocabulary struct {
	word2id map[string]int
	words   []string
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{word2id: make(map[string]int)}
}

// Index returns the id of word, assigning the next id if it is new.
func (v *Vocabulary) Index(word string) int {
	if id, ok := v.word2id[word]; ok {
		return id
	}
	id := len(v.words)
	v.word2id[word] = id
	v.words = append(v.words, word)
	return id
}

// Id looks up word without growing the vocabulary.
func (v *Vocabulary) Id(word string) (int, bool) {
	id, ok := v.word2id[word]
	return id, ok
}

func (v *Vocabulary) Word(id int) string {
	return v.words[id]
}

func (v *Vocabulary) Size() int {
	return len(v.words)
}
