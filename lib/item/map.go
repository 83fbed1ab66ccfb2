/*
Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.

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

package item

// Number is the set of value types an item Map can accumulate.
type Number interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64 | ~float64
}

// Map is a dense table keyed by item handle.
type Map[T Number] struct {
	values  []T
	present []bool
	size    int
}

func NewMap[T Number]() *Map[T] {
	return &Map[T]{}
}

func (m *Map[T]) grow(it Item) {
	if int(it) < len(m.values) {
		return
	}
	n := int(it) + 1
	if c := 2 * len(m.values); c > n {
		n = c
	}
	values := make([]T, n)
	present := make([]bool, n)
	copy(values, m.values)
	copy(present, m.present)
	m.values, m.present = values, present
}

func (m *Map[T]) Contains(it Item) bool {
	return m != nil && int(it) < len(m.present) && m.present[it]
}

// Get returns the value of it, or zero when absent.
func (m *Map[T]) Get(it Item) T {
	v, _ := m.Lookup(it)
	return v
}

func (m *Map[T]) Lookup(it Item) (T, bool) {
	if !m.Contains(it) {
		var zero T
		return zero, false
	}
	return m.values[it], true
}

func (m *Map[T]) Set(it Item, v T) {
	m.grow(it)
	if !m.present[it] {
		m.present[it] = true
		m.size++
	}
	m.values[it] = v
}

// Increment adds delta to the value of it, inserting it if absent.
func (m *Map[T]) Increment(it Item, delta T) T {
	v := m.Get(it) + delta
	m.Set(it, v)
	return v
}

// Decrement subtracts delta from the value of it. The entry is kept at zero.
func (m *Map[T]) Decrement(it Item, delta T) T {
	v := m.Get(it) - delta
	m.Set(it, v)
	return v
}

func (m *Map[T]) Erase(it Item) {
	if !m.Contains(it) {
		return
	}
	var zero T
	m.present[it] = false
	m.values[it] = zero
	m.size--
}

func (m *Map[T]) Len() int {
	if m == nil {
		return 0
	}
	return m.size
}

func (m *Map[T]) IsEmpty() bool {
	return m.Len() == 0
}

func (m *Map[T]) Clear() {
	m.values = m.values[:0]
	m.present = m.present[:0]
	m.size = 0
}

func (m *Map[T]) Clone() *Map[T] {
	cp := &Map[T]{size: m.size}
	cp.values = append([]T(nil), m.values...)
	cp.present = append([]bool(nil), m.present...)
	return cp
}

// Range visits entries in ascending handle order until f returns false.
func (m *Map[T]) Range(f func(it Item, v T) bool) {
	if m == nil {
		return
	}
	for i, ok := range m.present {
		if ok && !f(Item(i), m.values[i]) {
			return
		}
	}
}

// Keys returns the present handles in ascending order.
func (m *Map[T]) Keys() []Item {
	keys := make([]Item, 0, m.Len())
	m.Range(func(it Item, _ T) bool {
		keys = append(keys, it)
		return true
	})
	return keys
}

func (m *Map[T]) Equal(o *Map[T]) bool {
	if m.Len() != o.Len() {
		return false
	}
	equal := true
	m.Range(func(it Item, v T) bool {
		ov, ok := o.Lookup(it)
		equal = ok && ov == v
		return equal
	})
	return equal
}
