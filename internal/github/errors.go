package github

import (
	"errors"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// ErrorMessage extracts the human-readable message from an API error.
// Validation errors are joined after the top-level message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return "API rate limit exceeded, resets at " + rateErr.Rate.Reset.Format("15:04")
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) {
		msg := respErr.Message
		var details []string
		for _, e := range respErr.Errors {
			switch {
			case e.Message != "":
				details = append(details, e.Message)
			case e.Field != "":
				details = append(details, e.Field+" "+e.Code)
			}
		}
		if len(details) > 0 {
			msg += ": " + strings.Join(details, "; ")
		}
		if msg == "" && respErr.Response != nil {
			msg = http.StatusText(respErr.Response.StatusCode)
		}
		return msg
	}
	return err.Error()
}

// isNotFound reports whether err is a 404 from the API.
func isNotFound(err error) bool {
	var respErr *gh.ErrorResponse
	return errors.As(err, &respErr) &&
		respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusNotFound
}
