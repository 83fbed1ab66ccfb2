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

package list

const nilSlot int32 = -1

// Token addresses one element of a List. A token is invalidated when its
// element is erased; a stale token is rejected even if the slot was reused.
type Token struct {
	slot int32
	gen  uint32
}

func (t Token) Valid() bool {
	return t.gen != 0
}

type element[T any] struct {
	value      T
	prev, next int32
	gen        uint32
	used       bool
}

// List is a doubly linked list stored in a slot arena. Erase is O(1) given
// a Token and keeps live iterators valid.
type List[T any] struct {
	elems []element[T]
	free  []int32
	head  int32
	tail  int32
	size  int
	iters map[*Iterator[T]]struct{}
}

func New[T any]() *List[T] {
	return &List[T]{
		head:  nilSlot,
		tail:  nilSlot,
		iters: make(map[*Iterator[T]]struct{}),
	}
}

func (l *List[T]) Len() int {
	return l.size
}

func (l *List[T]) alloc(v T) int32 {
	var slot int32
	if n := len(l.free); n > 0 {
		slot = l.free[n-1]
		l.free = l.free[:n-1]
	} else {
		slot = int32(len(l.elems))
		l.elems = append(l.elems, element[T]{})
	}
	e := &l.elems[slot]
	e.value = v
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	e.used = true
	e.prev, e.next = nilSlot, nilSlot
	l.size++
	return slot
}

// PushBack appends v. Iterators that already reached the end resume at v.
func (l *List[T]) PushBack(v T) Token {
	slot := l.alloc(v)
	e := &l.elems[slot]
	e.prev = l.tail
	if l.tail != nilSlot {
		l.elems[l.tail].next = slot
	} else {
		l.head = slot
	}
	l.tail = slot

	for it := range l.iters {
		if it.cur == nilSlot {
			it.cur = slot
		}
	}
	return Token{slot: slot, gen: e.gen}
}

// PushFront prepends v. Iterators are not affected.
func (l *List[T]) PushFront(v T) Token {
	slot := l.alloc(v)
	e := &l.elems[slot]
	e.next = l.head
	if l.head != nilSlot {
		l.elems[l.head].prev = slot
	} else {
		l.tail = slot
	}
	l.head = slot
	return Token{slot: slot, gen: e.gen}
}

func (l *List[T]) live(t Token) bool {
	return t.Valid() && int(t.slot) < len(l.elems) &&
		l.elems[t.slot].used && l.elems[t.slot].gen == t.gen
}

func (l *List[T]) Contains(t Token) bool {
	return l.live(t)
}

func (l *List[T]) Get(t Token) (T, bool) {
	if !l.live(t) {
		var zero T
		return zero, false
	}
	return l.elems[t.slot].value, true
}

// Erase unlinks the element of t and reports false for a stale token.
// Iterators positioned on the element move to its successor.
func (l *List[T]) Erase(t Token) bool {
	if !l.live(t) {
		return false
	}
	slot := t.slot
	e := &l.elems[slot]
	if e.prev != nilSlot {
		l.elems[e.prev].next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nilSlot {
		l.elems[e.next].prev = e.prev
	} else {
		l.tail = e.prev
	}

	for it := range l.iters {
		if it.cur == slot {
			it.cur = e.next
		}
	}

	var zero T
	e.value = zero
	e.used = false
	e.prev, e.next = nilSlot, nilSlot
	l.free = append(l.free, slot)
	l.size--
	return true
}

func (l *List[T]) Front() (T, bool) {
	if l.head == nilSlot {
		var zero T
		return zero, false
	}
	return l.elems[l.head].value, true
}

// Values returns the elements from front to back.
func (l *List[T]) Values() []T {
	values := make([]T, 0, l.size)
	for s := l.head; s != nilSlot; s = l.elems[s].next {
		values = append(values, l.elems[s].value)
	}
	return values
}

// Iterator walks a List front to back while the list is being mutated.
// It must be closed to stop receiving notifications.
type Iterator[T any] struct {
	list *List[T]
	cur  int32
}

func (l *List[T]) Iterator() *Iterator[T] {
	it := &Iterator[T]{list: l, cur: l.head}
	l.iters[it] = struct{}{}
	return it
}

func (it *Iterator[T]) HasNext() bool {
	return it.cur != nilSlot
}

// Next returns the current element and advances past it.
func (it *Iterator[T]) Next() (T, bool) {
	if it.cur == nilSlot {
		var zero T
		return zero, false
	}
	e := &it.list.elems[it.cur]
	it.cur = e.next
	return e.value, true
}

func (it *Iterator[T]) Close() {
	delete(it.list.iters, it)
	it.cur = nilSlot
}
