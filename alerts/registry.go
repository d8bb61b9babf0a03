package alerts

import "sync"

// Registry tracks the dispatchers of connected observers so preference changes reach
// streams that are already open
type Registry struct {
	mu     sync.Mutex
	byUser map[uint]map[*Dispatcher]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[uint]map[*Dispatcher]struct{})}
}

// Add registers d for its observer's user. The returned func removes it again.
func (r *Registry) Add(d *Dispatcher) func() {
	userID := d.State().UserID

	r.mu.Lock()
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[*Dispatcher]struct{})
		r.byUser[userID] = set
	}
	set[d] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			current := r.byUser[userID]
			delete(current, d)
			if len(current) == 0 {
				delete(r.byUser, userID)
			}
		})
	}
}

// Each calls fn for every live dispatcher of userID and returns how many it visited
func (r *Registry) Each(userID uint, fn func(*Dispatcher)) int {
	r.mu.Lock()
	live := make([]*Dispatcher, 0, len(r.byUser[userID]))
	for d := range r.byUser[userID] {
		live = append(live, d)
	}
	r.mu.Unlock()

	for _, d := range live {
		fn(d)
	}
	return len(live)
}

// Len returns the number of live dispatchers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, set := range r.byUser {
		n += len(set)
	}
	return n
}
