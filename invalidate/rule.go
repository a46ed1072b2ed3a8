package invalidate

// Rule declares which cache patterns a content mutation invalidates.
// Rules are registered per resource name; a resource may carry any number
// of rules across the three triggers.
type Rule struct {
	// Trigger selects which mutation kind the rule reacts to.
	Trigger Action

	// Patterns are the cache patterns to invalidate, in order. They may
	// contain {field} placeholders resolved from the event and wildcard
	// or regex syntax understood by the boundary. An empty list is a
	// legal no-op.
	Patterns []string

	// Immediate marks the rule for application the moment its event is
	// drained. Deferred application is a configuration hook reserved for
	// hosts; the engine currently drains every rule the same way.
	Immediate bool

	// Cascade additionally invalidates CascadePatterns, the explicitly
	// declared patterns of resources that depend on this one. Nothing is
	// inferred: cascade scope is exactly what the rule lists.
	Cascade bool

	// CascadePatterns are the dependent-resource patterns applied when
	// Cascade is set.
	CascadePatterns []string
}

// DefaultRules returns the rule set installed at engine construction, so
// common content mutations invalidate correctly out of the box. Hosts may
// register additional or overriding rules per resource.
//
// Patterns are shaped for keys built by the cache keyer
// ("site:endpoint" or "site:endpoint:hash").
func DefaultRules() map[string][]Rule {
	return map[string][]Rule{
		"posts": {
			{
				Trigger:         ActionCreate,
				Patterns:        []string{"{site}:posts*"},
				Immediate:       true,
				Cascade:         true,
				CascadePatterns: []string{"{site}:categories*", "{site}:tags*"},
			},
			{
				Trigger:         ActionUpdate,
				Patterns:        []string{"{site}:posts*"},
				Immediate:       true,
				Cascade:         true,
				CascadePatterns: []string{"{site}:categories*", "{site}:tags*"},
			},
			{
				Trigger:   ActionDelete,
				Patterns:  []string{"{site}:posts*"},
				Immediate: true,
			},
		},
		"users": {
			{
				Trigger:   ActionUpdate,
				Patterns:  []string{"{site}:users/{id}*"},
				Immediate: true,
			},
		},
		"comments": {
			{
				Trigger:   ActionCreate,
				Patterns:  []string{"{site}:comments*"},
				Immediate: true,
			},
		},
		"media": {
			{
				Trigger:   ActionDelete,
				Patterns:  []string{"{site}:media*"},
				Immediate: true,
			},
		},
	}
}
