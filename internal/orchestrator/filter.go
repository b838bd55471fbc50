package orchestrator

import (
	"context"
	"strings"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/graph"
)

// Filter dims cards that do not match. The zero Filter matches everything.
type Filter struct {
	Query string
	Tag   string
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool {
	return f.Query != "" || f.Tag != ""
}

// Matches reports whether c passes the filter. Tag is compared exactly; the
// query is a case-insensitive substring of the text, a tag or the file name.
func (f Filter) Matches(c *graph.Card) bool {
	if f.Tag != "" && !c.HasTag(f.Tag) {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	if strings.Contains(strings.ToLower(c.Text()), q) || strings.Contains(strings.ToLower(c.FileRef()), q) {
		return true
	}
	for _, t := range c.Tags() {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) setFilter(_ context.Context, cmd commands.SetFilter) error {
	o.filter = Filter{Query: strings.TrimSpace(cmd.Query), Tag: strings.TrimSpace(cmd.Tag)}
	return nil
}

func (o *Orchestrator) clearFilter(_ context.Context, _ commands.ClearFilter) error {
	o.filter = Filter{}
	return nil
}

// Filter returns the filter in effect.
func (o *Orchestrator) Filter() Filter {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filter
}
