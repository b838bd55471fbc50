// Package jsoncanvas reads and writes boards in the JSON Canvas 1.0 format,
// extended with the tags, collapsed, parent_id and exclude_from_export
// fields the editor keeps.
package jsoncanvas

import (
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"brain2-canvas/internal/domain/containment"
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
)

// Node types.
const (
	TypeText  = "text"
	TypeFile  = "file"
	TypeLink  = "link"
	TypeGroup = "group"
)

// Document is a whole board.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one JSON Canvas node.
type Node struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"`
	X                 float64  `json:"x"`
	Y                 float64  `json:"y"`
	Width             float64  `json:"width"`
	Height            float64  `json:"height"`
	Text              string   `json:"text,omitempty"`
	File              string   `json:"file,omitempty"`
	URL               string   `json:"url,omitempty"`
	Label             string   `json:"label,omitempty"`
	Color             string   `json:"color,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Collapsed         bool     `json:"collapsed,omitempty"`
	ParentID          string   `json:"parent_id,omitempty"`
	ExcludeFromExport bool     `json:"exclude_from_export,omitempty"`
}

// Edge is one JSON Canvas edge.
type Edge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	FromSide string `json:"fromSide,omitempty"`
	ToNode   string `json:"toNode"`
	ToSide   string `json:"toSide,omitempty"`
	Label    string `json:"label,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Decode reads a document.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, codecError("failed to decode canvas", err)
	}
	return doc, nil
}

// Encode writes a document, indented.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return codecError("failed to encode canvas", err)
	}
	return nil
}

func codecError(msg string, cause error) error {
	return errors.Validation(errors.CodeCodecFailed.String(), msg).
		WithResource("canvas").
		WithCause(cause).
		Build()
}

// ExportOptions controls Export.
type ExportOptions struct {
	// IncludeExcluded keeps nodes flagged exclude_from_export.
	IncludeExcluded bool
}

// Export converts the store to a document in paint order. Excluded nodes,
// and edges touching them, are left out unless opts says otherwise.
func Export(store *graph.Store, opts ExportOptions) Document {
	doc := Document{Nodes: []Node{}, Edges: []Edge{}}
	kept := make(map[shared.NodeID]struct{})

	for _, n := range store.Nodes() {
		if n.ExcludeFromExport() && !opts.IncludeExcluded {
			continue
		}
		kept[n.ID()] = struct{}{}
		snap, err := store.Snapshot(n.ID())
		if err != nil {
			continue
		}
		doc.Nodes = append(doc.Nodes, NodeRecord(snap))
	}

	for _, e := range store.Edges() {
		_, fromKept := kept[e.From()]
		_, toKept := kept[e.To()]
		if !fromKept || !toKept {
			continue
		}
		snap, err := store.SnapshotEdge(e.ID())
		if err != nil {
			continue
		}
		doc.Edges = append(doc.Edges, EdgeRecord(snap))
	}
	return doc
}

// EdgeRecord converts an edge snapshot to its wire record.
func EdgeRecord(s graph.EdgeSnapshot) Edge {
	return Edge{
		ID:       s.ID.String(),
		FromNode: s.From.String(),
		FromSide: string(s.FromSide),
		ToNode:   s.To.String(),
		ToSide:   string(s.ToSide),
		Label:    s.Label,
		Color:    s.Color,
	}
}

// NodeRecord converts a node snapshot to its wire record.
func NodeRecord(s graph.NodeSnapshot) Node {
	n := Node{
		ID:                s.ID.String(),
		X:                 s.Bounds.X,
		Y:                 s.Bounds.Y,
		Width:             s.Bounds.Width,
		Height:            s.Bounds.Height,
		Color:             s.Color,
		ParentID:          s.ParentID.String(),
		ExcludeFromExport: s.ExcludeFromExport,
	}
	if s.Kind == graph.KindGroup {
		n.Type = TypeGroup
		n.Label = s.Label
		n.Collapsed = s.Collapsed
		return n
	}
	n.Tags = append([]string(nil), s.Tags...)
	switch s.Content {
	case graph.ContentFile:
		n.Type = TypeFile
		n.File = s.FileRef
		n.Text = s.Text
	case graph.ContentLink:
		n.Type = TypeLink
		n.URL = s.URL
		n.Text = s.Text
	default:
		n.Type = TypeText
		n.Text = s.Text
	}
	return n
}

// ToSubgraph converts a document to snapshots. Groups written with their
// title in text instead of label are accepted.
func ToSubgraph(doc Document) (graph.Subgraph, error) {
	sub := graph.Subgraph{
		Nodes: make([]graph.NodeSnapshot, 0, len(doc.Nodes)),
		Edges: make([]graph.EdgeSnapshot, 0, len(doc.Edges)),
	}
	for i, n := range doc.Nodes {
		if n.ID == "" {
			return graph.Subgraph{}, errors.Validation(errors.CodeInvalidInput.String(), "node without id").
				WithDetails(nodeIndex(i)).
				Build()
		}
		snap := graph.NodeSnapshot{
			ID:                shared.NodeID(n.ID),
			Bounds:            geometry.R(n.X, n.Y, n.Width, n.Height),
			Color:             n.Color,
			ExcludeFromExport: n.ExcludeFromExport,
			ParentID:          shared.NodeID(n.ParentID),
		}
		switch n.Type {
		case TypeGroup:
			snap.Kind = graph.KindGroup
			snap.Label = n.Label
			if snap.Label == "" {
				snap.Label = n.Text
			}
			snap.Collapsed = n.Collapsed
		case TypeText, TypeFile, TypeLink, "":
			snap.Kind = graph.KindCard
			snap.Text = n.Text
			snap.Tags = n.Tags
			snap.FileRef = n.File
			snap.URL = n.URL
			snap.Content = graph.ContentText
			if n.Type == TypeFile {
				snap.Content = graph.ContentFile
			} else if n.Type == TypeLink {
				snap.Content = graph.ContentLink
			}
		default:
			return graph.Subgraph{}, errors.Validation(errors.CodeInvalidInput.String(), "unknown node type").
				WithDetails(n.Type).
				Build()
		}
		sub.Nodes = append(sub.Nodes, snap)
	}
	for _, e := range doc.Edges {
		id := shared.EdgeID(e.ID)
		if id.IsZero() {
			id = shared.NewEdgeID()
		}
		sub.Edges = append(sub.Edges, graph.EdgeSnapshot{
			ID:       id,
			From:     shared.NodeID(e.FromNode),
			To:       shared.NodeID(e.ToNode),
			FromSide: geometry.Side(e.FromSide),
			ToSide:   geometry.Side(e.ToSide),
			Label:    e.Label,
			Color:    e.Color,
		})
	}
	return sub, nil
}

func nodeIndex(i int) string {
	return "nodes[" + strconv.Itoa(i) + "]"
}

// Load builds a new store from a document. When no node names a parent,
// membership is derived from geometry. A membership cycle rejects the
// document.
func Load(doc Document, logger *zap.Logger, opts ...graph.Option) (*graph.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sub, err := ToSubgraph(doc)
	if err != nil {
		return nil, err
	}

	store := graph.NewStore(append([]graph.Option{graph.WithLogger(logger)}, opts...)...)
	if err := store.Restore(sub); err != nil {
		return nil, err
	}

	if cycles := containment.BuildMembershipGraph(store).Cycles(); len(cycles) > 0 {
		return nil, shared.ErrMembershipCycle.WithDetails("%v", cycles[0])
	}

	if !hasParents(doc) {
		changes, err := containment.NewEngine(store, logger).Reconcile()
		if err != nil {
			return nil, err
		}
		logger.Debug("Derived membership from geometry", zap.Int("changes", len(changes)))
	}

	for _, g := range store.Groups() {
		if g.Collapsed() {
			if _, err := store.SetCollapsed(g.ID(), true); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("Loaded canvas",
		zap.Int("nodes", store.NodeCount()),
		zap.Int("edges", store.EdgeCount()),
	)
	return store, nil
}

func hasParents(doc Document) bool {
	for _, n := range doc.Nodes {
		if n.ParentID != "" {
			return true
		}
	}
	return false
}
