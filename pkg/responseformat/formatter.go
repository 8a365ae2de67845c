// Package responseformat encodes HTTP bodies as JSON or MessagePack.
package responseformat

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/x-msgpack"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WantsMsgPack reports whether the client asked for MessagePack via format=msgpack
func WantsMsgPack(req *http.Request) bool {
	return req.URL.Query().Get("format") == "msgpack"
}

// IsMsgPack reports whether a Content-Type names MessagePack
func IsMsgPack(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == ContentTypeMsgPack || mediaType == "application/msgpack" || mediaType == "application/vnd.msgpack"
}

// WriteResponse writes the response in the appropriate format based on the query parameter
// JSON is the default format. MessagePack is used when format=msgpack is specified
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any) error {
	// Always set CORS header
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if WantsMsgPack(req) {
		return f.writeMsgPack(w, status, data)
	}
	return f.writeJSON(w, status, data)
}

// WriteError writes {"error": message} with the given status
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, message string) error {
	return f.WriteResponse(w, req, status, ErrorResponse{Error: message})
}

// DecodeRequest decodes a request body into v according to its Content-Type. Bodies
// without a MessagePack content type are read as JSON.
func (f *Formatter) DecodeRequest(req *http.Request, v any) error {
	if IsMsgPack(req.Header.Get("Content-Type")) {
		return DecodeMsgPack(req.Body, v)
	}

	decoder := json.NewDecoder(req.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// DecodeMsgPack decodes one MessagePack value from r using json field names
func DecodeMsgPack(r io.Reader, v any) error {
	decoder := msgpack.NewDecoder(r)
	decoder.SetCustomStructTag("json")
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid MessagePack body: %w", err)
	}
	return nil
}

// EncodeMsgPack encodes v to w using json field names
func EncodeMsgPack(w io.Writer, v any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(v)
}

func (f *Formatter) writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", ContentTypeMsgPack)
	w.WriteHeader(status)
	return EncodeMsgPack(w, data)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}
