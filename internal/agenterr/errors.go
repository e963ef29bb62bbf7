// Copyright 2026 The Neuract Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package agenterr carries the engine's error taxonomy (spec §7) as a
// single typed error so that callers can branch on Code without this
// package knowing anything about HTTP or the catalog.
package agenterr

import "fmt"

// Code classifies an Error for the caller.
type Code string

const (
	TransportError Code = "TRANSPORT_ERROR"
	DecodeError    Code = "DECODE_ERROR"
	StorageError   Code = "STORAGE_ERROR"
	ConfigError    Code = "CONFIG_ERROR"
	NotFound       Code = "NOT_FOUND"
	Conflict       Code = "CONFLICT"
)

// Error is the engine's single error type. Cause may be nil.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, agenterr.TransportError) work by comparing codes
// when the target is itself an *Error carrying only a Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Cause == nil {
		return e.Code == t.Code
	}
	return e.Code == t.Code && e.Message == t.Message
}
