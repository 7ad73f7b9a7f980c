/*
Copyright © 2025-2026 SUSE LLC
SPDX-License-Identifier: Apache-2.0

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cleanstack provides a scoped acquisition ledger. Every OS resource
// acquired during a build (attached loop devices, mount points, temporary
// directories) is pushed onto the stack and released in strict reverse order
// by Cleanup, regardless of whether the surrounding operation succeeded.
package cleanstack

import (
	"errors"
	"fmt"
)

type task struct {
	tag       string
	call      func() error
	errorOnly bool
}

// CleanStack tracks pending release operations. It is not safe for
// concurrent use, builds are strictly sequential.
type CleanStack struct {
	tasks []*task
}

func NewCleanStack() *CleanStack {
	return &CleanStack{}
}

// Push records a release operation for a newly acquired resource. The tag is
// a human readable description used to report leaked state when the release
// itself fails.
func (cs *CleanStack) Push(tag string, call func() error) {
	cs.tasks = append(cs.tasks, &task{tag: tag, call: call})
}

// PushErrorOnly records a release operation that only runs when the stack is
// unwound due to a failure, e.g. rolling back a half written artifact that a
// successful run would keep.
func (cs *CleanStack) PushErrorOnly(tag string, call func() error) {
	cs.tasks = append(cs.tasks, &task{tag: tag, call: call, errorOnly: true})
}

// Len returns the number of pending release operations.
func (cs *CleanStack) Len() int {
	return len(cs.tasks)
}

// Cleanup releases all pending resources in reverse acquisition order. A
// failing release does not stop the unwind, the error is collected and the
// remaining resources are still released. Release failures are joined to the
// given error so the caller reports the original failure alongside any
// leaked state. Cleanup drains the stack, calling it again is a no-op.
func (cs *CleanStack) Cleanup(err error) error {
	for i := len(cs.tasks) - 1; i >= 0; i-- {
		t := cs.tasks[i]
		if t.errorOnly && err == nil {
			continue
		}
		if e := t.call(); e != nil {
			err = errors.Join(err, fmt.Errorf("releasing %s: %w", t.tag, e))
		}
	}
	cs.tasks = nil
	return err
}
