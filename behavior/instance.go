package behavior

// Instance is a host-facing view over a definition. Reads fall through to
// the definition's shared behavior map, so overrides applied after the
// instance was created are still visible. Instance-local values shadow the
// shared map without ever writing to it.
type Instance struct {
	def    *Definition
	locals Map
}

// NewInstance constructs an instance bound to the definition's shared map.
func (d *Definition) NewInstance() *Instance {
	return &Instance{def: d}
}

// Definition returns the definition this instance delegates to.
func (i *Instance) Definition() *Definition {
	if i == nil {
		return nil
	}
	return i.def
}

// Behavior resolves a capability: instance-local values first, then the
// shared behavior map.
func (i *Instance) Behavior(key string) (any, bool) {
	if i == nil {
		return nil, false
	}
	if value, ok := i.locals[key]; ok {
		return value, true
	}
	return i.def.Lookup(key)
}

// Value returns the resolved capability or nil when absent.
func (i *Instance) Value(key string) any {
	value, _ := i.Behavior(key)
	return value
}

// SetLocal shadows a capability for this instance only. The shared map is
// untouched.
func (i *Instance) SetLocal(key string, value any) {
	if i == nil {
		return
	}
	if i.locals == nil {
		i.locals = Map{}
	}
	i.locals[key] = value
}
