package hooks

import "fmt"

// Type names a built-in Hook implementation selectable from declarative
// config, per spec §4.F ("hook config is declarative: a list of
// {name, type, priority?, script?, config?}").
type Type string

const (
	TypeAudit     Type = "audit"     // mirrors every phase for logging/compliance
	TypeApproval  Type = "approval"  // backs the Policy Gate's Ask flow
	TypeScript    Type = "script"    // runs an external script as a tool hook
	TypeTelemetry Type = "telemetry" // forwards TelemetryCollect events
)

// Declaration is one entry in the hooks configuration block.
type Declaration struct {
	Name     string         `toml:"name" json:"name"`
	Type     Type           `toml:"type" json:"type"`
	Phases   []Phase        `toml:"phases" json:"phases"`
	Priority int            `toml:"priority" json:"priority"`
	Script   string         `toml:"script" json:"script,omitempty"`
	Config   map[string]any `toml:"config" json:"config,omitempty"`
}

// knownTypes is the allow-list validated against; unknown types are
// rejected at config load time rather than at first dispatch.
var knownTypes = map[Type]bool{
	TypeAudit:     true,
	TypeApproval:  true,
	TypeScript:    true,
	TypeTelemetry: true,
}

// Validate rejects unknown hook types and declarations missing a body:
// a Script-typed hook needs Script, and every declaration needs at least
// one Phase.
func (d Declaration) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("hook declaration missing name")
	}
	if !knownTypes[d.Type] {
		return fmt.Errorf("hook %q: unknown type %q", d.Name, d.Type)
	}
	if len(d.Phases) == 0 {
		return fmt.Errorf("hook %q: no phases declared", d.Name)
	}
	if d.Type == TypeScript && d.Script == "" {
		return fmt.Errorf("hook %q: script type requires a script path", d.Name)
	}
	return nil
}

// ValidateAll validates every declaration, returning the first failure.
func ValidateAll(decls []Declaration) error {
	seen := make(map[string]bool, len(decls))
	for _, d := range decls {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate hook name %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}
