// Package graph owns the canvas records: cards, groups and the edges between
// them, plus the adjacency index that keeps edge rerouting proportional to a
// node's degree.
package graph

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
)

// Kind tags the node variant.
type Kind string

const (
	KindCard  Kind = "card"
	KindGroup Kind = "group"
)

// ContentKind describes what a card shows.
type ContentKind string

const (
	ContentText ContentKind = "text"
	ContentFile ContentKind = "file"
	ContentLink ContentKind = "link"
)

// Node is the geometry contract shared by cards and groups. The interface is
// sealed: only this package can provide implementations, so a type switch on
// *Card / *Group is exhaustive.
type Node interface {
	ID() shared.NodeID
	Kind() Kind
	Bounds() geometry.Rect
	Hidden() bool
	Color() string
	Title() string
	ExcludeFromExport() bool

	setBounds(geometry.Rect)
	setHidden(bool)
	snapshot() NodeSnapshot
}

// base carries the fields every node has.
type base struct {
	id                shared.NodeID
	bounds            geometry.Rect
	color             string
	hidden            bool
	excludeFromExport bool
}

func (b *base) ID() shared.NodeID { return b.id }
func (b *base) Bounds() geometry.Rect { return b.bounds }
func (b *base) Hidden() bool { return b.hidden }
func (b *base) Color() string { return b.color }
func (b *base) ExcludeFromExport() bool { return b.excludeFromExport }
func (b *base) setBounds(r geometry.Rect) { b.bounds = r }
func (b *base) setHidden(hidden bool) { b.hidden = hidden }

// Card is a text, file or link card.
type Card struct {
	base
	content ContentKind
	text    string
	tags    []string
	fileRef string
	url     string
}

// CardSpec holds the attributes used to create a card.
type CardSpec struct {
	ID                shared.NodeID
	Bounds            geometry.Rect
	Content           ContentKind
	Text              string
	Tags              []string
	Color             string
	FileRef           string
	URL               string
	ExcludeFromExport bool
}

// NewCard creates a card after validating its geometry. A blank id is minted.
func NewCard(spec CardSpec) (*Card, error) {
	if err := validateBounds(spec.Bounds); err != nil {
		return nil, err
	}
	id := spec.ID
	if id.IsZero() {
		id = shared.NewNodeID()
	}
	content := spec.Content
	if content == "" {
		content = ContentText
	}
	return &Card{
		base: base{
			id:                id,
			bounds:            spec.Bounds,
			color:             spec.Color,
			excludeFromExport: spec.ExcludeFromExport,
		},
		content: content,
		text:    spec.Text,
		tags:    NormalizeTags(spec.Tags),
		fileRef: spec.FileRef,
		url:     spec.URL,
	}, nil
}

func (c *Card) Kind() Kind { return KindCard }
func (c *Card) Content() ContentKind { return c.content }
func (c *Card) Text() string { return c.text }
func (c *Card) FileRef() string { return c.fileRef }
func (c *Card) URL() string { return c.url }

// Tags returns a copy of the card's tags in sorted order.
func (c *Card) Tags() []string {
	return append([]string(nil), c.tags...)
}

// HasTag reports whether the card carries tag exactly (case-sensitive).
func (c *Card) HasTag(tag string) bool {
	i := sort.SearchStrings(c.tags, tag)
	return i < len(c.tags) && c.tags[i] == tag
}

var headingPrefix = regexp.MustCompile(`^#+\s*`)

// Title is the first line of the card text with markdown heading markers
// removed, bounded to MaxTitleLength runes.
func (c *Card) Title() string {
	switch c.content {
	case ContentFile:
		if c.fileRef == "" {
			return "File"
		}
		return c.fileRef
	case ContentLink:
		if c.url == "" {
			return "Link"
		}
		return c.url
	}
	text := strings.TrimSpace(c.text)
	if text == "" {
		return "Untitled"
	}
	line := strings.SplitN(text, "\n", 2)[0]
	line = headingPrefix.ReplaceAllString(line, "")
	if utf8.RuneCountInString(line) > shared.MaxTitleLength {
		line = string([]rune(line)[:shared.MaxTitleLength])
	}
	return line
}

// Content is the editable part of a card.
type Content struct {
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
	Color string   `json:"color"`
}

// CurrentContent returns the card's editable content.
func (c *Card) CurrentContent() Content {
	return Content{Text: c.text, Tags: c.Tags(), Color: c.color}
}

func (c *Card) applyContent(content Content) {
	c.text = content.Text
	c.tags = NormalizeTags(content.Tags)
	c.color = content.Color
}

// Group is a container whose members are derived from geometry and cached.
type Group struct {
	base
	label     string
	collapsed bool
	members   map[shared.NodeID]struct{}
}

// GroupSpec holds the attributes used to create a group.
type GroupSpec struct {
	ID                shared.NodeID
	Bounds            geometry.Rect
	Label             string
	Color             string
	Collapsed         bool
	ExcludeFromExport bool
}

// NewGroup creates an empty group after validating its geometry.
func NewGroup(spec GroupSpec) (*Group, error) {
	if err := validateBounds(spec.Bounds); err != nil {
		return nil, err
	}
	id := spec.ID
	if id.IsZero() {
		id = shared.NewNodeID()
	}
	return &Group{
		base: base{
			id:                id,
			bounds:            spec.Bounds,
			color:             spec.Color,
			excludeFromExport: spec.ExcludeFromExport,
		},
		label:     spec.Label,
		collapsed: spec.Collapsed,
		members:   make(map[shared.NodeID]struct{}),
	}, nil
}

func (g *Group) Kind() Kind { return KindGroup }
func (g *Group) Label() string { return g.label }
func (g *Group) Collapsed() bool { return g.collapsed }

// Title returns the label, or a placeholder for unlabeled groups.
func (g *Group) Title() string {
	if g.label == "" {
		return "Untitled Group"
	}
	return g.label
}

// HasMember reports whether id is a direct member.
func (g *Group) HasMember(id shared.NodeID) bool {
	_, ok := g.members[id]
	return ok
}

// MemberIDs returns the direct members in sorted order.
func (g *Group) MemberIDs() []shared.NodeID {
	ids := make([]shared.NodeID, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MemberCount returns the number of direct members.
func (g *Group) MemberCount() int {
	return len(g.members)
}

// NormalizeTags turns a tag list into a sorted set without blanks.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateBounds(r geometry.Rect) error {
	if !r.IsFinite() || r.Width <= 0 || r.Height <= 0 {
		return shared.ErrInvalidGeometry.WithDetails("bounds %s", r)
	}
	return nil
}
