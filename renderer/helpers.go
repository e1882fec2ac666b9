package renderer

import (
	"bytes"
	"io"

	optionpl "github.com/etnz/optionpl"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// contract scales a per share amount to a contract amount.
func contract(m optionpl.Money) optionpl.Money { return m.Scale(optionpl.ContractMultiplier) }
