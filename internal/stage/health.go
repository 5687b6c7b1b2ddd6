package stage

// Health reports whether a pipeline stage can run with its current wiring.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks the named stage ready.
func Healthy(name string) Health { return Health{Name: name, Ready: true} }

// Unhealthy marks the named stage not ready, with an operator-facing reason.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}
