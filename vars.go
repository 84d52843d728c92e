// Copyright 2021 Josh Deprez
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

package dialogue

// VariableStorage stores the values PUSH_VARIABLE and STORE_VARIABLE read
// and write. Persistence is explicitly out of scope (spec.md §6); the host
// may serialize a VariableStorage implementation in any round-trippable
// format it likes.
type VariableStorage interface {
	Clear()
	GetValue(name string) (value Value, ok bool)
	SetValue(name string, value Value)
}

// MapVariableStorage implements VariableStorage in memory with a plain map.
type MapVariableStorage map[string]Value

// Clear empties the storage of all values.
func (m MapVariableStorage) Clear() {
	for name := range m {
		delete(m, name)
	}
}

// GetValue fetches a value from the map, returning (nil, false) if not present.
func (m MapVariableStorage) GetValue(name string) (value Value, found bool) {
	value, found = m[name]
	return value, found
}

// SetValue sets a value in the map.
func (m MapVariableStorage) SetValue(name string, value Value) {
	m[name] = value
}
