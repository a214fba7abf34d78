package sim

// A Middleware implements one slice of a component's per-cycle behavior.
type Middleware interface {
	// Tick processes a tick event. It returns true if progress is made.
	Tick() bool
}

// MiddlewareHolder maintains an ordered list of middleware.
type MiddlewareHolder struct {
	middlewares []Middleware
}

// AddMiddleware appends a middleware to the holder.
func (h *MiddlewareHolder) AddMiddleware(m Middleware) {
	h.middlewares = append(h.middlewares, m)
}

// Middlewares returns the list of middleware.
func (h *MiddlewareHolder) Middlewares() []Middleware {
	return h.middlewares
}

// Tick ticks every middleware in order. It returns true if any middleware
// made progress.
func (h *MiddlewareHolder) Tick() bool {
	progress := false

	for _, m := range h.middlewares {
		if m.Tick() {
			progress = true
		}
	}

	return progress
}
