package resolver

import "github.com/opal-lang/shellexec/builtin"

// Adapter implements builtin.Resolver over a *Table, letting the `which`
// builtin resolve names without this package and the builtin package
// importing each other directly.
type Adapter struct {
	Table *Table
}

var _ builtin.Resolver = (*Adapter)(nil)

func (a *Adapter) Resolve(name, cwd string, env map[string]string) (kind string, path string, err error) {
	target, rerr := Resolve(a.Table, name, cwd, env)
	if rerr != nil {
		return "", "", rerr
	}
	switch target.Kind {
	case KindBuiltin:
		return "builtin", "", nil
	case KindAlias:
		return "alias", target.Alias, nil
	default:
		return "external", target.Path, nil
	}
}

// ResolveAll is Resolve's multi-match counterpart, backing `which -a`: for
// an external command it returns every matching PATH entry instead of only
// the first.
func (a *Adapter) ResolveAll(name, cwd string, env map[string]string) (kind string, paths []string, err error) {
	targets, rerr := ResolveAll(a.Table, name, cwd, env)
	if rerr != nil {
		return "", nil, rerr
	}
	switch targets[0].Kind {
	case KindBuiltin:
		return "builtin", nil, nil
	case KindAlias:
		return "alias", []string{targets[0].Alias}, nil
	default:
		paths = make([]string, len(targets))
		for i, t := range targets {
			paths[i] = t.Path
		}
		return "external", paths, nil
	}
}
