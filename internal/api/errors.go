package api

import "errors"

var ErrInvalidRequest = errors.New("invalid_request")

// invalidRequestError reports a client mistake; param names the offending
// request field when there is one.
type invalidRequestError struct {
	param string
	msg   string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(param, msg string) error {
	return invalidRequestError{param: param, msg: msg}
}

func errorParam(err error) string {
	var ire invalidRequestError
	if errors.As(err, &ire) {
		return ire.param
	}
	return ""
}
