package eviction

import "container/list"

type fifo struct {
	// order holds keys oldest-first.
	order *list.List

	// elems indexes order so Remove doesn't have to scan.
	elems map[string]*list.Element
}

func newFIFO() *fifo {
	return &fifo{
		order: list.New(),
		elems: make(map[string]*list.Element),
	}
}

// OnGet is a no-op: FIFO ignores reads completely.
func (f *fifo) OnGet(string) {}

// OnPut appends k unless it is already tracked. FIFO only cares about the
// first insertion.
func (f *fifo) OnPut(k string) {
	if _, ok := f.elems[k]; ok {
		return
	}
	f.elems[k] = f.order.PushBack(k)
}

func (f *fifo) Evict() string {
	front := f.order.Front()
	if front == nil {
		return ""
	}
	k := f.order.Remove(front).(string)
	delete(f.elems, k)
	return k
}

func (f *fifo) Remove(k string) {
	e, ok := f.elems[k]
	if !ok {
		return
	}
	f.order.Remove(e)
	delete(f.elems, k)
}

func (f *fifo) Keys() []string {
	keys := make([]string, 0, f.order.Len())
	for e := f.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(string))
	}
	return keys
}
