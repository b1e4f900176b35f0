package agentclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when the service answers 404.
var ErrNotFound = errors.New("not found")

// StatusError carries a non-2xx response from the agent service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("agent service: status %d: %s", e.Status, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
