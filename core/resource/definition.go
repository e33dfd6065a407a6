package resource

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultPageSize is used whenever a definition or a caller gives no usable page size.
const DefaultPageSize = 10

var ErrUnknownResource = errors.New("unknown resource")

// IDLocation tells where the identifier travels on update and delete calls.
type IDLocation int

const (
	IDInPath IDLocation = iota // PUT|DELETE /<resource>/<id>
	IDInBody                   // PUT|DELETE /<resource> with the identifier in the JSON body
)

// EndpointConfig maps a resource onto the gateway's routes.
type EndpointConfig struct {
	ListPath   string // GET, e.g. "/books"
	SearchPath string // GET, e.g. "/search/book"
	ItemPath   string // POST, PUT, DELETE, e.g. "/book"
	UpdateID   IDLocation
	DeleteID   IDLocation
}

// Definition parameterizes a Controller for one resource type.
type Definition struct {
	Name          string // singular, lower-case: "book", "live_class"
	Title         string // human label: "Books"
	CollectionKey string // list envelope key: "books"
	IDField       string
	SortField     string
	SearchFields  []string
	PageSize      int
	Toggles       []string // boolean fields that may be flipped optimistically
	Required      []string // fields a create must carry
	Endpoints     EndpointConfig
}

// CanToggle reports whether flag is declared as a toggleable field.
func (def Definition) CanToggle(flag string) bool {
	for _, t := range def.Toggles {
		if t == flag {
			return true
		}
	}
	return false
}

func (def Definition) pageSize() int {
	if def.PageSize > 0 {
		return def.PageSize
	}
	return DefaultPageSize
}

func (def Definition) sortField() string {
	if def.SortField != "" {
		return def.SortField
	}
	return "createdAt"
}

// Registry holds the definitions known to the console, keyed by Name.
type Registry struct {
	defs map[string]Definition
}

func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		r.defs[def.Name] = def
	}
	return r
}

// Lookup finds a definition by singular name, plural form, collection key or title (case-insensitive).
// Dashes and spaces are read as underscores, so "live-classes" finds "live_class".
func (r *Registry) Lookup(name string) (Definition, error) {
	key := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(name)))
	if def, ok := r.defs[key]; ok {
		return def, nil
	}
	for _, def := range r.defs {
		if key == strings.ToLower(def.CollectionKey) ||
			key == strings.ToLower(strings.ReplaceAll(def.Title, " ", "_")) ||
			key == strings.TrimPrefix(def.Endpoints.ListPath, "/") {
			return def, nil
		}
	}
	return Definition{}, errors.Wrapf(ErrUnknownResource, "%q", name)
}

// All returns every definition, sorted by name.
func (r *Registry) All() []Definition {
	defs := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
