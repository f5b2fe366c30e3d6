// Package resolve turns the fuzzy, free-text arguments supplied by a model
// or operator into concrete entity ids and canonical workflow column ids.
package resolve

import (
	"strings"

	"github.com/dkeegan/taskpilot/internal/store"
)

// selfLiterals resolve to the operator's own identity instead of text matching
var selfLiterals = map[string]bool{
	"me":     true,
	"my":     true,
	"myself": true,
}

// matches reports whether name contains fragment, case-insensitively
func matches(name, fragment string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(fragment))
}

// FindTask returns the first task whose title contains the fragment,
// case-insensitively, in collection order. An exact id match wins first.
// Multiple substring matches are not disambiguated: first match wins, which
// is deterministic for an unchanged snapshot.
func FindTask(snap *store.Snapshot, fragment string) *store.Task {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}

	for _, t := range snap.Tasks {
		if t.ID == fragment {
			return t
		}
	}
	for _, t := range snap.Tasks {
		if matches(t.Title, fragment) {
			return t
		}
	}
	return nil
}

// FindUser resolves a user by name fragment. The reserved literals
// "me", "my" and "myself" resolve to the snapshot's current user.
func FindUser(snap *store.Snapshot, fragment string) *store.User {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}

	if selfLiterals[strings.ToLower(fragment)] {
		return snap.Me
	}

	for _, u := range snap.Users {
		if u.ID == fragment {
			return u
		}
	}
	for _, u := range snap.Users {
		if matches(u.Name, fragment) {
			return u
		}
	}
	return nil
}

// FindProject resolves a project by name fragment. The reserved self
// literals are not meaningful for projects and match nothing.
func FindProject(snap *store.Snapshot, fragment string) *store.Project {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}

	for _, p := range snap.Projects {
		if p.ID == fragment {
			return p
		}
	}
	for _, p := range snap.Projects {
		if matches(p.Name, fragment) {
			return p
		}
	}
	return nil
}

// TaskCandidates returns the titles of tasks whose title contains the
// fragment, for "did you mean" suggestions in not-found messages.
func TaskCandidates(snap *store.Snapshot, fragment string, limit int) []string {
	var out []string
	for _, t := range snap.Tasks {
		if matches(t.Title, fragment) {
			out = append(out, t.Title)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
