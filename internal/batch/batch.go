// Package batch holds the padded matrix representation of variable-length
// token sequences shared by the scorer and the training loop.
package batch

import (
	"github.com/siyutao/adversarial-nli/internal/vocab"
)

// Batch is a rectangular matrix of token ids, right-padded with PAD, plus
// the true length of every row. Lengths never count padding.
type Batch struct {
	IDs     [][]int
	Lengths []int
}

// Pad builds a Batch from ragged sequences, right-padding every row with
// PAD up to the longest row.
func Pad(seqs [][]int) Batch {
	maxLen := 0
	for _, s := range seqs {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	ids := make([][]int, len(seqs))
	lengths := make([]int, len(seqs))
	for i, s := range seqs {
		row := make([]int, maxLen)
		copy(row, s)
		for j := len(s); j < maxLen; j++ {
			row[j] = vocab.PadID
		}
		ids[i] = row
		lengths[i] = len(s)
	}
	return Batch{IDs: ids, Lengths: lengths}
}

// New wraps an already rectangular matrix. The rows and lengths vectors must
// agree in size and every length must fit its row.
func New(ids [][]int, lengths []int) (Batch, error) {
	if len(ids) != len(lengths) {
		return Batch{}, &InvalidParameterError{Param: "lengths", Value: len(lengths)}
	}
	width := 0
	if len(ids) > 0 {
		width = len(ids[0])
	}
	for i, row := range ids {
		if len(row) != width {
			return Batch{}, &InvalidParameterError{Param: "ids", Value: i}
		}
		if lengths[i] < 0 || lengths[i] > width {
			return Batch{}, &InvalidParameterError{Param: "lengths", Value: lengths[i]}
		}
	}
	return Batch{IDs: ids, Lengths: lengths}, nil
}

// Size returns the number of rows.
func (b Batch) Size() int { return len(b.IDs) }

// MaxLen returns the padded width of the matrix.
func (b Batch) MaxLen() int {
	if len(b.IDs) == 0 {
		return 0
	}
	return len(b.IDs[0])
}

// Column gathers the ids at time index j across all rows.
func (b Batch) Column(j int) []int {
	col := make([]int, len(b.IDs))
	for i, row := range b.IDs {
		col[i] = row[j]
	}
	return col
}
