package trash

import (
	"reflect"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Built-in scope names carried by every Query.
const (
	ScopeSoftDeleting = "soft_deleting"
	ScopeWithTrashed  = "with_trashed"
)

// ScopeFunc transforms one branch of a query before it is rendered.
type ScopeFunc func(db *gorm.DB) *gorm.DB

// GlobalScope is a named transformer applied to every query built for an entity type.
// Lower priorities run first; 100 when unset.
type GlobalScope struct {
	Name     string
	Priority int
	Apply    ScopeFunc
}

var (
	scopeMu sync.RWMutex
	scopes  = map[reflect.Type][]GlobalScope{}
)

// RegisterScope adds a global scope for model's type. Registering a name twice replaces
// the previous scope.
func RegisterScope(model any, s GlobalScope) {
	if s.Priority == 0 {
		s.Priority = 100
	}
	t := modelType(model)

	scopeMu.Lock()
	defer scopeMu.Unlock()
	list := scopes[t][:0:0]
	for _, existing := range scopes[t] {
		if existing.Name != s.Name {
			list = append(list, existing)
		}
	}
	scopes[t] = append(list, s)
}

// UnregisterScope removes a global scope by name.
func UnregisterScope(model any, name string) {
	t := modelType(model)

	scopeMu.Lock()
	defer scopeMu.Unlock()
	list := scopes[t][:0:0]
	for _, existing := range scopes[t] {
		if existing.Name != name {
			list = append(list, existing)
		}
	}
	scopes[t] = list
}

// ScopesFor returns the ordered pipeline registered for model's type.
func ScopesFor(model any) []GlobalScope {
	t := modelType(model)

	scopeMu.RLock()
	list := append([]GlobalScope(nil), scopes[t]...)
	scopeMu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
	return list
}

func modelType(model any) reflect.Type {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
