package userfetch

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// User is a single user record. Its schema belongs to the remote service.
type User map[string]any

// Response is a successful reply from the users endpoint. The body is fully
// read when the Response is built, so it can be decoded any number of times.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is a success status (below 400).
func (r *Response) OK() bool {
	return r != nil && r.StatusCode < http.StatusBadRequest
}

// A nil *Response is the absent value. Every accessor accepts it: OK is false,
// the header accessors are empty and the decoders return ErrNilResponse.

// Headers flattens the header to one value per canonical key, keeping the
// first value.
func (r *Response) Headers() map[string]string {
	if r == nil {
		return map[string]string{}
	}
	flat := make(map[string]string, len(r.Header))
	for key, values := range r.Header {
		if len(values) > 0 {
			flat[http.CanonicalHeaderKey(key)] = values[0]
		}
	}
	return flat
}

// ContentType returns the Content-Type header value.
func (r *Response) ContentType() string {
	if r == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if r == nil {
		return ErrNilResponse
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// List decodes the body as a JSON array of arbitrary values.
func (r *Response) List() ([]any, error) {
	var list []any
	if err := r.JSON(&list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []any{}
	}
	return list, nil
}

// Users decodes the body as a JSON array of user records.
func (r *Response) Users() ([]User, error) {
	var users []User
	if err := r.JSON(&users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}
