package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventName identifies an outbound notification on the collaborator bridge.
type EventName string

// Outbound event names. The wire names are shared with the backend and UI
// collaborators, so they are snake_case rather than Go style.
const (
	EventCardMoved           EventName = "card_moved"
	EventCardResized         EventName = "card_resized"
	EventGroupMoved          EventName = "group_moved"
	EventGroupResized        EventName = "group_resized"
	EventEdgeCreate          EventName = "edge_create"
	EventCardGrouped         EventName = "card_grouped"
	EventCardUngrouped       EventName = "card_ungrouped"
	EventToggleGroupCollapse EventName = "toggle_group_collapse"
	EventDeleteNodes         EventName = "delete_nodes"
	EventDeleteEdges         EventName = "delete_edges"
	EventViewportChanged     EventName = "viewport_changed"
	EventCreateGroupWith     EventName = "create_group_with_cards"
	EventCardContentSaved    EventName = "card_content_saved"
	EventRestoreNode         EventName = "restore_node"
	EventRestoreEdge         EventName = "restore_edge"
	EventPasteNodes          EventName = "paste_nodes"
	EventNotice              EventName = "notice"
)

// Event is a fire-and-forget notification emitted by the orchestrator.
type Event struct {
	ID         string      `json:"id"`
	Name       EventName   `json:"event"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// NewEvent stamps a payload with an id and the current time.
func NewEvent(name EventName, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Payload records. Field names follow the collaborator wire format.

type CardMoved struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type CardResized struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type EdgeCreate struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
	FromSide string `json:"fromSide"`
	ToSide   string `json:"toSide"`
	Color    string `json:"color"`
	Label    string `json:"label,omitempty"`
}

type CardGrouped struct {
	CardID  string `json:"cardId"`
	GroupID string `json:"groupId"`
}

type CardUngrouped struct {
	CardID string `json:"cardId"`
}

type ToggleGroupCollapse struct {
	GroupID   string `json:"groupId"`
	Collapsed bool   `json:"collapsed"`
}

type DeleteNodes struct {
	NodeIDs []string `json:"nodeIds"`
}

type DeleteEdges struct {
	EdgeIDs []string `json:"edgeIds"`
}

type ViewportChanged struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

type CreateGroupWithCards struct {
	GroupID string   `json:"groupId"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	CardIDs []string `json:"cardIds"`
}

type CardContentSaved struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Color   string   `json:"color"`
}

// RestoreNode carries a full node record back to the backend after undo/redo.
type RestoreNode struct {
	NodeData interface{} `json:"nodeData"`
}

// RestoreEdge carries a full edge record back to the backend after undo/redo.
type RestoreEdge struct {
	EdgeData interface{} `json:"edgeData"`
}

type PasteNodes struct {
	Nodes []interface{} `json:"nodes"`
	Edges []interface{} `json:"edges"`
}

// NoticeLevel grades a user-visible notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
	NoticeSuccess NoticeLevel = "success"
)

// Notice is a transient message for the UI toast collaborator.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
