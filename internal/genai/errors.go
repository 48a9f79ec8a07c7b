/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package genai

import (
	"errors"
	"fmt"
)

// ErrModelCall represents a failed call to the generative model.
type ErrModelCall struct {
	Msg string
	Err error
}

// ErrInvalidInput represents errors related to invalid input parameters.
type ErrInvalidInput struct {
	Msg string
	Err error
}

// ErrCancelled represents errors when an operation is cancelled.
type ErrCancelled struct {
	Msg string
	Err error
}

func (e *ErrModelCall) Error() string {
	return fmt.Sprintf("model call error: %s: %v", e.Msg, e.Err)
}

func (e *ErrModelCall) Unwrap() error {
	return errors.Unwrap(e.Err)
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid input error: %s: %v", e.Msg, e.Err)
}

func (e *ErrInvalidInput) Unwrap() error {
	return errors.Unwrap(e.Err)
}

func (e *ErrCancelled) Error() string {
	return fmt.Sprintf("operation cancelled: %s: %v", e.Msg, e.Err)
}

func (e *ErrCancelled) Unwrap() error {
	return errors.Unwrap(e.Err)
}
