package viewapi

import "fmt"

// FetchError is returned when the request fails or the backend answers
// with a non-2xx status. Body holds the response text.
type FetchError struct {
	View       string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fetch view %s: %v", e.View, e.Err)
	}
	return fmt.Sprintf("fetch view %s: status %d: %s", e.View, e.StatusCode, e.Body)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the request may succeed.
func (e *FetchError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// ParseError is returned when a successful response is not valid JSON.
type ParseError struct {
	View string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse view %s response: %v", e.View, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
