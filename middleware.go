package webkit

// Middleware wraps a downstream Handler to produce an upstream Handler. A
// chain built with Compose applies middlewares right-to-left, so the first
// middleware in the declared list is outermost: its pre-phase runs first
// and its post-phase runs last (onion ordering).
type Middleware func(next Handler) Handler

// Compose builds a single Handler out of base wrapped by mws in the order
// declared: mws[0] is outermost, mws[len(mws)-1] is innermost, immediately
// wrapping base. Composition is associative; each middleware is applied
// exactly once.
func Compose(base Handler, mws ...Middleware) Handler {
	h := base
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
