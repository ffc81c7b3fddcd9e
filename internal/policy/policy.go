package policy

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"ai-spm/internal/domain"
)

// RoleSet es el conjunto de roles que una vista exige. Vacio = cualquier usuario autenticado.
type RoleSet map[domain.Role]struct{}

func NewRoleSet(roles ...domain.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Allows intersecta el conjunto con el rol del usuario.
func (s RoleSet) Allows(role domain.Role) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[role]
	return ok
}

// View es una vista protegida del dashboard.
type View struct {
	Path  string  `json:"path"`
	Name  string  `json:"name"`
	Roles RoleSet `json:"-"`
	Badge int     `json:"badge,omitempty"`
}

// Policy asocia cada ruta protegida con los roles que la pueden ver.
type Policy struct {
	views []View
	index map[string]int
}

// Default reproduce la navegacion del dashboard.
func Default() *Policy {
	return New([]View{
		{Path: "/", Name: "Security Dashboard"},
		{Path: "/ai-assets", Name: "AI Assets"},
		{Path: "/vulnerabilities", Name: "Vulnerabilities", Badge: 12},
		{Path: "/monitoring", Name: "Real-time Monitoring"},
		{Path: "/compliance", Name: "Compliance", Roles: NewRoleSet(domain.RoleCISO, domain.RoleComplianceOfficer)},
	})
}

func New(views []View) *Policy {
	p := &Policy{index: make(map[string]int, len(views))}
	for _, v := range views {
		p.set(v)
	}
	return p
}

func (p *Policy) set(v View) {
	if i, ok := p.index[v.Path]; ok {
		p.views[i] = v
		return
	}
	p.index[v.Path] = len(p.views)
	p.views = append(p.views, v)
}

// Lookup devuelve la vista registrada para path.
func (p *Policy) Lookup(path string) (View, bool) {
	i, ok := p.index[path]
	if !ok {
		return View{}, false
	}
	return p.views[i], true
}

// Allows indica si role puede ver path. Una ruta no registrada no tiene restriccion de rol.
func (p *Policy) Allows(path string, role domain.Role) bool {
	v, ok := p.Lookup(path)
	if !ok {
		return true
	}
	return v.Roles.Allows(role)
}

// Views devuelve todas las vistas en orden de navegacion.
func (p *Policy) Views() []View {
	out := make([]View, len(p.views))
	copy(out, p.views)
	return out
}

// Visible filtra la navegacion para un rol.
func (p *Policy) Visible(role domain.Role) []View {
	out := make([]View, 0, len(p.views))
	for _, v := range p.views {
		if v.Roles.Allows(role) {
			out = append(out, v)
		}
	}
	return out
}

// RoleNames devuelve los roles exigidos por la vista, ordenados.
func (v View) RoleNames() []string {
	names := make([]string, 0, len(v.Roles))
	for r := range v.Roles {
		names = append(names, r.String())
	}
	sort.Strings(names)
	return names
}

type fileConfig struct {
	Views []fileView `toml:"views"`
}

type fileView struct {
	Path  string    `toml:"path"`
	Name  string    `toml:"name"`
	Roles *[]string `toml:"roles"`
	Badge *int      `toml:"badge"`
}

// LoadFile lee un archivo TOML y lo mezcla sobre la politica por defecto.
// Campos ausentes conservan el valor base.
func LoadFile(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read view policy: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Policy, error) {
	var cfg fileConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse view policy: %w", err)
	}

	p := Default()
	for _, fv := range cfg.Views {
		if fv.Path == "" {
			return nil, fmt.Errorf("view policy: entry without path")
		}
		view, ok := p.Lookup(fv.Path)
		if !ok {
			view = View{Path: fv.Path, Name: fv.Path}
		}
		if fv.Name != "" {
			view.Name = fv.Name
		}
		if fv.Badge != nil {
			view.Badge = *fv.Badge
		}
		if fv.Roles != nil {
			roles := make([]domain.Role, 0, len(*fv.Roles))
			for _, name := range *fv.Roles {
				role, err := domain.ParseRole(name)
				if err != nil {
					return nil, fmt.Errorf("view policy %s: %w: %q", fv.Path, err, name)
				}
				roles = append(roles, role)
			}
			view.Roles = NewRoleSet(roles...)
		}
		p.set(view)
	}
	return p, nil
}
