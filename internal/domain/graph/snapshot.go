package graph

import (
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
)

// NodeSnapshot is an immutable value copy of a node, including the group it
// belonged to when captured. Snapshots never reference live records.
type NodeSnapshot struct {
	ID                shared.NodeID `json:"id"`
	Kind              Kind          `json:"kind"`
	Bounds            geometry.Rect `json:"bounds"`
	Color             string        `json:"color,omitempty"`
	Hidden            bool          `json:"hidden,omitempty"`
	ExcludeFromExport bool          `json:"excludeFromExport,omitempty"`
	ParentID          shared.NodeID `json:"parentId,omitempty"`

	// Card fields
	Content ContentKind `json:"contentKind,omitempty"`
	Text    string      `json:"text,omitempty"`
	Tags    []string    `json:"tags,omitempty"`
	FileRef string      `json:"file,omitempty"`
	URL     string      `json:"url,omitempty"`

	// Group fields
	Label     string          `json:"label,omitempty"`
	Collapsed bool            `json:"collapsed,omitempty"`
	MemberIDs []shared.NodeID `json:"memberIds,omitempty"`
}

// Clone returns a deep copy.
func (s NodeSnapshot) Clone() NodeSnapshot {
	s.Tags = append([]string(nil), s.Tags...)
	s.MemberIDs = append([]shared.NodeID(nil), s.MemberIDs...)
	return s
}

// EdgeSnapshot is an immutable value copy of an edge.
type EdgeSnapshot struct {
	ID       shared.EdgeID `json:"id"`
	From     shared.NodeID `json:"fromNode"`
	To       shared.NodeID `json:"toNode"`
	FromSide geometry.Side `json:"fromSide"`
	ToSide   geometry.Side `json:"toSide"`
	Label    string        `json:"label,omitempty"`
	Color    string        `json:"color,omitempty"`
}

// Spec converts the snapshot back into creation attributes.
func (s EdgeSnapshot) Spec() EdgeSpec {
	return EdgeSpec{
		ID:       s.ID,
		From:     s.From,
		To:       s.To,
		FromSide: s.FromSide,
		ToSide:   s.ToSide,
		Label:    s.Label,
		Color:    s.Color,
	}
}

func (c *Card) snapshot() NodeSnapshot {
	return NodeSnapshot{
		ID:                c.id,
		Kind:              KindCard,
		Bounds:            c.bounds,
		Color:             c.color,
		Hidden:            c.hidden,
		ExcludeFromExport: c.excludeFromExport,
		Content:           c.content,
		Text:              c.text,
		Tags:              c.Tags(),
		FileRef:           c.fileRef,
		URL:               c.url,
	}
}

func (g *Group) snapshot() NodeSnapshot {
	return NodeSnapshot{
		ID:                g.id,
		Kind:              KindGroup,
		Bounds:            g.bounds,
		Color:             g.color,
		Hidden:            g.hidden,
		ExcludeFromExport: g.excludeFromExport,
		Label:             g.label,
		Collapsed:         g.collapsed,
		MemberIDs:         g.MemberIDs(),
	}
}

func (e *Edge) snapshot() EdgeSnapshot {
	return EdgeSnapshot{
		ID:       e.id,
		From:     e.from,
		To:       e.to,
		FromSide: e.fromSide,
		ToSide:   e.toSide,
		Label:    e.label,
		Color:    e.color,
	}
}

// nodeFromSnapshot rebuilds a detached node. Membership is restored by the
// store once every node of a batch exists.
func nodeFromSnapshot(s NodeSnapshot) (Node, error) {
	switch s.Kind {
	case KindGroup:
		g, err := NewGroup(GroupSpec{
			ID:                s.ID,
			Bounds:            s.Bounds,
			Label:             s.Label,
			Color:             s.Color,
			Collapsed:         s.Collapsed,
			ExcludeFromExport: s.ExcludeFromExport,
		})
		if err != nil {
			return nil, err
		}
		g.hidden = s.Hidden
		return g, nil
	default:
		c, err := NewCard(CardSpec{
			ID:                s.ID,
			Bounds:            s.Bounds,
			Content:           s.Content,
			Text:              s.Text,
			Tags:              s.Tags,
			Color:             s.Color,
			FileRef:           s.FileRef,
			URL:               s.URL,
			ExcludeFromExport: s.ExcludeFromExport,
		})
		if err != nil {
			return nil, err
		}
		c.hidden = s.Hidden
		return c, nil
	}
}
