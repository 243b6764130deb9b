// Package oracletest provides a scripted oracle.Client for tests.
package oracletest

import (
	"context"
	"sync"

	"github.com/fpang/brushline/internal/oracle"
)

// Reply is a canned oracle answer.
type Reply struct {
	Text string
	Err  error
}

// Stub answers Complete from Replies keyed by Request.Operation, falling back
// to Default. Every request is recorded.
type Stub struct {
	Replies map[string]Reply
	Default Reply
	KeyErr  error

	mu       sync.Mutex
	requests []oracle.Request
}

// Text returns a Stub that answers every call with text.
func Text(text string) *Stub {
	return &Stub{Default: Reply{Text: text}}
}

// Failing returns a Stub that fails every call with err.
func Failing(err error) *Stub {
	return &Stub{Default: Reply{Err: err}, KeyErr: err}
}

func (s *Stub) Complete(_ context.Context, req oracle.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if r, ok := s.Replies[req.Operation]; ok {
		return r.Text, r.Err
	}
	return s.Default.Text, s.Default.Err
}

func (s *Stub) ValidateKey(_ context.Context, apiKey string) error {
	if apiKey == "" {
		return oracle.ErrNoKey
	}
	return s.KeyErr
}

// Requests returns a copy of the recorded requests.
func (s *Stub) Requests() []oracle.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]oracle.Request(nil), s.requests...)
}

// Last returns the most recent request, or the zero Request.
func (s *Stub) Last() oracle.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return oracle.Request{}
	}
	return s.requests[len(s.requests)-1]
}
