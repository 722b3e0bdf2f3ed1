package orchestrator

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownToolError is returned for names outside the tool table.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q; available tools: %s", e.Name, strings.Join(toolOrder, ", "))
}

// ValidationError lists every problem found in a call's arguments.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	problems := append([]string(nil), e.Problems...)
	sort.Strings(problems)
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(problems, "; "))
}
