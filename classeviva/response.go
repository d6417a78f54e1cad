// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package classeviva

import (
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind tags the shape of a Response.
type Kind int

const (
	KindObject Kind = iota // decoded JSON document
	KindText               // raw text, eg. HTML error pages
	KindBinary             // attachment bytes
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	}

	return "unknown"
}

// Object is a decoded JSON document.
type Object map[string]any

// ErrorMessage returns the remote error message, or an empty string if there is none.
func (o Object) ErrorMessage() string {
	if msg, ok := o["error"].(string); ok {
		return msg
	}

	return ""
}

// Response is a tagged remote response: exactly one of Object, Text or Bytes is meaningful, depending on Kind.
type Response struct {
	Kind        Kind
	Object      Object
	Text        string
	Bytes       []byte
	ContentType string
	body        []byte
}

// Decode unmarshals an object response into v.
func (r *Response) Decode(v any) error {
	if r == nil || r.Kind != KindObject {
		return ErrNotObject
	}

	body := r.body
	if body == nil {
		b, err := json.Marshal(r.Object)
		if err != nil {
			return err
		}

		body = b
	}

	return json.Unmarshal(body, v)
}

// RemoteError returns the remote error message carried by an object response.
func (r *Response) RemoteError() string {
	if r == nil || r.Kind != KindObject {
		return ""
	}

	return r.Object.ErrorMessage()
}

// Summary returns a short single-line description of a text response, extracting the visible text of HTML pages.
func (r *Response) Summary() string {
	if r == nil {
		return ""
	}

	switch r.Kind {
	case KindObject:
		if msg := r.RemoteError(); msg != "" {
			return msg
		}

		return "JSON object"
	case KindBinary:
		return "binary content"
	case KindText:
	}

	text := r.Text

	if mediaType(r.ContentType) == "text/html" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(r.Text)); err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				text = title
			} else {
				text = doc.Find("body").Text()
			}
		}
	}

	return trimAllSpace(text)
}

// tokenExpired reports whether the remote rejected the token as expired.
func (r *Response) tokenExpired() bool {
	return strings.Contains(r.RemoteError(), errTokenExpired.Error())
}

// newResponse resolves a remote response: JSON, plain text and untyped bodies decode into an object when they hold a
// JSON document, anything else (or a body that fails to decode) is kept as text.
func newResponse(res *resty.Response) *Response {
	return resolveResponse(res.Header().Get("Content-Type"), res.Body())
}

func resolveResponse(ct string, body []byte) *Response {
	if mayBeJSON(ct) {
		var obj Object
		if err := json.Unmarshal(body, &obj); err == nil {
			return &Response{
				Kind:        KindObject,
				Object:      obj,
				ContentType: ct,
				body:        body,
			}
		}
	}

	return &Response{
		Kind:        KindText,
		Text:        string(body),
		ContentType: ct,
		body:        body,
	}
}

// mediaType returns the lowercase media type of a Content-Type header value.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	return mt
}

// mayBeJSON checks if a body with the given Content-Type header value should be tried as a JSON document.
func mayBeJSON(contentType string) bool {
	switch mediaType(contentType) {
	case "", "text/plain":
		return true
	}

	return isJSON(contentType)
}

// isJSON checks if a Content-Type header value denotes JSON content.
func isJSON(contentType string) bool {
	mt := mediaType(contentType)

	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// trimAllSpace removes all leading, trailing, and repeated spaces from the input string.
func trimAllSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
