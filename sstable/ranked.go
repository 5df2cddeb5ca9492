package sstable

import (
	"bufio"
	"io"
	"strconv"
)

// RankedItem is one line of a dictionary or top-N listing.
type RankedItem struct {
	Word string
	Id   int
	Freq int
	Prob float64
}

// WriteRanked writes items as word<TAB>id<TAB>frequency<TAB>probability.
func WriteRanked(w io.Writer, items []RankedItem) error {
	out := bufio.NewWriter(w)
	for _, item := range items {
		out.WriteString(item.Word)
		out.WriteByte('\t')
		out.WriteString(strconv.Itoa(item.Id))
		out.WriteByte('\t')
		out.WriteString(strconv.Itoa(item.Freq))
		out.WriteByte('\t')
		out.WriteString(strconv.FormatFloat(item.Prob, 'g', -1, 64))
		out.WriteByte('\n')
	}
	return out.Flush()
}
