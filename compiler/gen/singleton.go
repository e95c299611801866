package gen

import (
	"github.com/syssam/grace/schema"
)

// SingletonPath is the chain of enum supertypes from a top-level enum
// down to a singleton subtype. Path[0] is the top-level enum and the
// last element the singleton.
type SingletonPath []*schema.Object

// Singleton returns the singleton at the end of the path.
func (p SingletonPath) Singleton() *schema.Object { return p[len(p)-1] }

// SingletonPaths returns the singleton subtypes the ObjectStore interns
// on creation, with the enum chain that reaches each of them. The walk
// starts at every enum that is not the subtype of another enum, skips
// imported subtypes, descends into enum subtypes and stops at anything
// that is neither an enum nor a singleton.
func (g *Graph) SingletonPaths() ([]SingletonPath, error) {
	var paths []SingletonPath
	for _, t := range g.Generated() {
		if !g.IsEnum(t.Object) || g.hasEnumSupertype(t.Object) {
			continue
		}
		ps, err := g.singletonPaths(SingletonPath{t.Object})
		if err != nil {
			return nil, err
		}
		paths = append(paths, ps...)
	}
	return paths, nil
}

func (g *Graph) singletonPaths(prefix SingletonPath) ([]SingletonPath, error) {
	subs, err := g.SubtypeObjectsOf(prefix[len(prefix)-1])
	if err != nil {
		return nil, err
	}
	var paths []SingletonPath
	for _, s := range subs {
		if _, ok := g.Grace.Imported(s.ID); ok {
			continue
		}
		for _, p := range prefix {
			if p.ID == s.ID {
				return nil, NewModelInconsistencyError(s.Name, "subtype", "isa cycle through "+prefix[0].Name)
			}
		}
		path := append(append(SingletonPath{}, prefix...), s)
		switch {
		case g.IsConst(s):
			paths = append(paths, path)
		case g.IsEnum(s):
			ps, err := g.singletonPaths(path)
			if err != nil {
				return nil, err
			}
			paths = append(paths, ps...)
		}
	}
	return paths, nil
}

func (g *Graph) hasEnumSupertype(o *schema.Object) bool {
	for _, s := range g.SupertypeObjectsOf(o) {
		if g.IsEnum(s) {
			return true
		}
	}
	return false
}
