package checkersdto

// DomainError carries a catalogue code to the presenter. Retryable marks conditions the user
// can fix by simply sending the same command again.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "checkers service error"
}
