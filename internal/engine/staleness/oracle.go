// Package staleness decides whether a target needs rebuilding.
package staleness

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

// statCacheSize bounds the per-invocation stat cache. Large doc trees stat
// the same prerequisite families from many targets.
const statCacheSize = 4096

type stamp struct {
	mtime  time.Time
	exists bool
}

// Oracle decides staleness from modification timestamps. One Oracle serves
// exactly one scheduler run: timestamps are memoized within the run but
// never persisted, so no stale cache can survive between invocations.
type Oracle struct {
	stater ports.FileStater
	cache  *lru.Cache[string, stamp]
}

// New creates an Oracle for a single run.
func New(stater ports.FileStater) *Oracle {
	cache, _ := lru.New[string, stamp](statCacheSize)
	return &Oracle{stater: stater, cache: cache}
}

// IsStale applies the staleness policy, in priority order:
//
//  1. a phony target is always stale;
//  2. an actionless target is never executed itself (callers treat it as
//     satisfied once its prerequisites are);
//  3. a target whose backing file does not exist is stale;
//  4. a target with any prerequisite file strictly newer than its backing
//     file is stale — prerequisite targets count through their backing files;
//  5. a target with any prerequisite target rebuilt during this invocation
//     is stale, regardless of timestamps.
//
// A prerequisite file that is listed but absent forces a rebuild: the action
// is the only party that can judge whether it can live without it.
func (o *Oracle) IsStale(g *domain.Graph, target *domain.Target, state *domain.BuildState) (bool, error) {
	if target.Phony {
		return true, nil
	}
	if !target.Actionable() {
		return false, nil
	}

	own, err := o.stat(target.BackingFile())
	if err != nil {
		return false, err
	}
	if !own.exists {
		return true, nil
	}

	for _, dep := range g.TargetPrereqs(target.Name) {
		if state.WasRebuilt(dep) {
			return true, nil
		}
	}

	for _, file := range g.FilePrereqs(target.Name) {
		newer, err := o.newerThan(file.String(), own.mtime)
		if err != nil {
			return false, err
		}
		if newer {
			return true, nil
		}
	}

	for _, dep := range g.TargetPrereqs(target.Name) {
		depTarget, err := g.Lookup(dep)
		if err != nil {
			return false, err
		}
		file := depTarget.BackingFile()
		if file == "" {
			continue
		}
		newer, err := o.newerThan(file, own.mtime)
		if err != nil {
			return false, err
		}
		if newer {
			return true, nil
		}
	}

	return false, nil
}

// newerThan reports whether path is strictly newer than base. An absent file
// counts as newer so the rebuild surfaces the problem.
func (o *Oracle) newerThan(path string, base time.Time) (bool, error) {
	st, err := o.stat(path)
	if err != nil {
		return false, err
	}
	if !st.exists {
		return true, nil
	}
	return st.mtime.After(base), nil
}

func (o *Oracle) stat(path string) (stamp, error) {
	if st, ok := o.cache.Get(path); ok {
		return st, nil
	}
	mtime, exists, err := o.stater.ModTime(path)
	if err != nil {
		return stamp{}, err
	}
	st := stamp{mtime: mtime, exists: exists}
	o.cache.Add(path, st)
	return st, nil
}
