package exec

import (
	"fmt"
	"strings"
)

// NotFoundError reports a query target that matched no stored node.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no node found matching %q", e.Name)
}

// AmbiguousError reports a bare name that matched more than one node.
// Candidates lists the matching ids so the caller can requery with one.
type AmbiguousError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("name %q is ambiguous, candidates: %s",
		e.Name, strings.Join(e.Candidates, ", "))
}

// resolve turns a query target into a node id. Full ids pass through
// when they exist; otherwise the name is matched exactly against name
// and qualified_name. A single match wins; several are reported back as
// ambiguity rather than picking one silently.
func (x *Executor) resolve(target string) (string, error) {
	n, err := x.store.Node(target)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", target, err)
	}
	if n != nil {
		return n.ID, nil
	}

	matches, err := x.store.NodesByName(target)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", target, err)
	}
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: target}
	case 1:
		return matches[0].ID, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return "", &AmbiguousError{Name: target, Candidates: ids}
}
