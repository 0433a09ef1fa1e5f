package preflight

// Confirmer answers yes/no questions raised during pre-flight, such as whether
// existing outputs may be overwritten.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// AutoApprove answers yes to every question. Used for --yes runs and tests.
type AutoApprove struct{}

// Confirm always approves.
func (AutoApprove) Confirm(string) (bool, error) { return true, nil }

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(question string) (bool, error)

// Confirm calls the wrapped function.
func (f ConfirmFunc) Confirm(question string) (bool, error) { return f(question) }
