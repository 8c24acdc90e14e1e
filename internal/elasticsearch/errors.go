package elasticsearch

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ResponseError is a non 2xx answer from the cluster.
type ResponseError struct {
	Operation  string
	StatusCode int
	// Type and Reason are taken from the `error` object of the body, e.g.
	// index_not_found_exception.
	Type   string
	Reason string
	// Index is set by errors that name the offending index.
	Index string
	Body  string
}

func newResponseError(operation string, status int, body []byte) *ResponseError {
	re := &ResponseError{
		Operation:  operation,
		StatusCode: status,
		Body:       string(body),
	}

	errBody := gjson.GetBytes(body, "error")
	switch {
	case errBody.IsObject():
		re.Type = errBody.Get("type").String()
		re.Reason = errBody.Get("reason").String()
		re.Index = errBody.Get("index").String()
	case errBody.Type == gjson.String:
		re.Reason = errBody.String()
	}
	return re
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: response status %d: %s", e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: response status %d: %s: %s", e.Operation, e.StatusCode, e.Type, e.Reason)
}

// AsResponseError finds a *ResponseError in err's chain.
func AsResponseError(err error) (*ResponseError, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// HasErrorType reports whether err is a response error of the given type.
func HasErrorType(err error, errorType string) bool {
	re, ok := AsResponseError(err)
	return ok && re.Type == errorType
}
