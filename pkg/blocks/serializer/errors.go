package serializer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stateful/blocky/pkg/blocks"
)

// NodeError reports a block that rendered empty because of err. Path holds
// the child indexes leading from the root sequence to the block.
type NodeError struct {
	Path []int
	Kind blocks.Kind
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s at %s: %v", e.Kind, formatPath(e.Path), e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func formatPath(p []int) string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "/" + strings.Join(parts, "/")
}
