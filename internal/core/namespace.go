package core

import (
	"fmt"
	"sort"
	"sync"
)

// App is a registered application: its public key names the namespace and
// its secret signs channel auth keys.
type App struct {
	Key    string
	Secret string
}

// Namespace is the isolated scope of one application. Its mutex serializes
// every handler that runs against the namespace.
type Namespace struct {
	appID    string
	secret   string
	mu       sync.Mutex
	presence *PresenceStore
}

func newNamespace(app App) *Namespace {
	return &Namespace{
		appID:    app.Key,
		secret:   app.Secret,
		presence: NewPresenceStore(),
	}
}

// AppID returns the application's public key.
func (n *Namespace) AppID() string {
	return n.appID
}

// Registry resolves application keys to namespaces. It is built once at
// startup and never mutated afterwards.
type Registry struct {
	namespaces map[string]*Namespace
}

// NewRegistry builds a registry from the given applications.
func NewRegistry(apps []App) (*Registry, error) {
	r := &Registry{namespaces: make(map[string]*Namespace, len(apps))}
	for _, app := range apps {
		if app.Key == "" || app.Secret == "" {
			return nil, fmt.Errorf("app %q: key and secret are required", app.Key)
		}
		if _, exists := r.namespaces[app.Key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateApp, app.Key)
		}
		r.namespaces[app.Key] = newNamespace(app)
	}
	return r, nil
}

// Lookup returns the namespace registered under appID.
func (r *Registry) Lookup(appID string) (*Namespace, error) {
	ns, ok := r.namespaces[appID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, appID)
	}
	return ns, nil
}

// Secret returns the signing secret of appID.
func (r *Registry) Secret(appID string) (string, error) {
	ns, err := r.Lookup(appID)
	if err != nil {
		return "", err
	}
	return ns.secret, nil
}

// AppIDs lists registered application keys, sorted.
func (r *Registry) AppIDs() []string {
	ids := make([]string, 0, len(r.namespaces))
	for id := range r.namespaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
