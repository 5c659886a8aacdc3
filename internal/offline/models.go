package offline

import (
	"net/http"
	"time"
)

// Response is a cached or fetched HTTP response with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status <= 299
}

// Clone returns a deep copy so a response can be stored and returned.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	return &Response{
		Status: r.Status,
		Header: r.Header.Clone(),
		Body:   append([]byte(nil), r.Body...),
	}
}

// Entry describes one cached response in a store.
type Entry struct {
	Store    string
	Key      string
	Status   int
	Size     int64
	Digest   uint64
	StoredAt time.Time
}

// StoreStats summarizes one cache store.
type StoreStats struct {
	Name      string
	Entries   int
	Bytes     int64
	CreatedAt time.Time
}

func textResponse(status int, body string) *Response {
	h := http.Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{Status: status, Header: h, Body: []byte(body)}
}
