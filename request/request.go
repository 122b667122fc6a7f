package request

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ErrStatus wraps every error returned by Error.
var ErrStatus = errors.New("unexpected http status")

// maxBodyInError bounds how much of a response body ends up in an error
// message.
const maxBodyInError = 512

// Error checks the given http response for an error code, and, if one is
// present, returns a friendly error describing the already-read body.
//
// Proxies and load balancers in front of APIs like to answer with whole HTML
// pages, so for html bodies we report the page title rather than the markup.
func Error(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("%w: http status code %d: %s", ErrStatus, resp.StatusCode, Summarize(resp.Header.Get("Content-Type"), body))
}

// Summarize renders a response body for inclusion in a log line or error.
func Summarize(contentType string, body []byte) string {
	if strings.HasPrefix(contentType, "text/html") {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return title
			}
			if text := strings.Join(strings.Fields(doc.Find("body").Text()), " "); text != "" {
				return truncate(text)
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) <= maxBodyInError {
		return s
	}
	end := maxBodyInError
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end] + "... (truncated)"
}
