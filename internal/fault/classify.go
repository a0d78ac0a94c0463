package fault

// Classification is the triple the envelope builder needs from a
// resolved terminal variant. Nothing besides the declaration (kind,
// explicit overrides) influences it; in particular the message template
// and the cause chain do not.
type Classification struct {
	Status     int
	Identifier string
	Kind       Kind
}

// Classify computes (status, identifier, kind) for a resolved terminal
// error value. Forward variants must be resolved first; classifying one
// directly reports its target's declaration.
func Classify(e *Error) Classification {
	d := e.def
	for d.IsForward() {
		d = d.ForwardTarget()
	}
	return classifyDefinition(d)
}

func classifyDefinition(d *Definition) Classification {
	status := d.status
	if status == 0 {
		status = d.kind.DefaultStatus()
	}
	return Classification{
		Status:     status,
		Identifier: d.Identifier(),
		Kind:       d.kind,
	}
}
