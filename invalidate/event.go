package invalidate

import "time"

// Action is the kind of content mutation that triggered an event.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event describes one content mutation. Events are immutable: the engine
// consumes and discards them.
//
// The well-known fields cover the common placeholders; Data is an open
// extension bag for rule-specific fields (e.g. "category"), keeping
// placeholder substitution usable without loosening the event shape.
type Event struct {
	// Type is the mutation kind the event reports.
	Type Action

	// Resource names the mutated resource, e.g. "posts". Required.
	Resource string

	// ID identifies the mutated item. Optional.
	ID string

	// SiteID scopes the event to one configured site.
	SiteID string

	// Timestamp is when the mutation happened. The engine fills it with
	// the current time when zero.
	Timestamp time.Time

	// Data carries extra placeholder fields.
	Data map[string]string
}

// vars builds the placeholder substitution set for the event. The
// well-known fields win over same-named Data entries.
func (e Event) vars() map[string]string {
	vars := make(map[string]string, len(e.Data)+2)
	for k, v := range e.Data {
		vars[k] = v
	}
	if e.ID != "" {
		vars["id"] = e.ID
	}
	if e.SiteID != "" {
		vars["site"] = e.SiteID
	}
	return vars
}
