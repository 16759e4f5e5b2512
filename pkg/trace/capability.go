// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trace

// Describable is the capability consumed by Dump: a type that can
// render itself as text for the trace stream.
type Describable interface {
	Describe() string
}

// DescribeFunc adapts a function to the Describable interface.
type DescribeFunc func() string

// Describe calls f.
func (f DescribeFunc) Describe() string { return f() }

// Validatable is the capability consumed by Validate: a type that can
// check its own internal consistency.
type Validatable interface {
	Validate() error
}

// ValidateFunc adapts a function to the Validatable interface.
type ValidateFunc func() error

// Validate calls f.
func (f ValidateFunc) Validate() error { return f() }
