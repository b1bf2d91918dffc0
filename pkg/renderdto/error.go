package renderdto

import "errors"

// Error codes returned by the render service.
const (
	CodeInvalidOptions = "invalid_options"
	CodeNoGame         = "no_game"
	CodeTooLarge       = "too_large"
	CodeRenderFailed   = "render_failed"
	CodeUnavailable    = "unavailable"
)

type DomainError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "render service error"
}

func (e DomainError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of a DomainError anywhere in err's chain.
func CodeOf(err error) (string, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}
