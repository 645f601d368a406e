package render

import (
	"github.com/yourorg/tacacs-console/pkg/apperr"
)

// refKind classifies what a script key/value pair points at. The key
// field acts as the tag: "member" and "group" select a group reference,
// "profile" selects a profile reference, anything else is a free string.
type refKind int

const (
	refNone refKind = iota
	refGroup
	refProfile
)

func scriptRefKind(key string) refKind {
	switch key {
	case "member", "group":
		return refGroup
	case "profile":
		return refProfile
	default:
		return refNone
	}
}

// checkReferences verifies every cross-entity reference in the snapshot
// resolves, so the renderer never emits config pointing at entities the
// daemon does not know.
func checkReferences(snap *Snapshot) error {
	hosts := make(map[string]struct{}, len(snap.Hosts))
	for _, h := range snap.Hosts {
		hosts[h.Name] = struct{}{}
	}
	groups := make(map[string]struct{}, len(snap.Groups))
	for _, g := range snap.Groups {
		groups[g.GroupName] = struct{}{}
	}
	profiles := make(map[string]struct{}, len(snap.Profiles))
	for _, p := range snap.Profiles {
		profiles[p.Name] = struct{}{}
	}

	for _, h := range snap.Hosts {
		if h.Parent == "" {
			continue
		}
		if _, ok := hosts[h.Parent]; !ok {
			return apperr.Reference("host "+h.Name, "parent", h.Parent)
		}
	}

	for _, u := range snap.Users {
		if u.Member == "" {
			continue
		}
		if _, ok := groups[u.Member]; !ok {
			return apperr.Reference("user "+u.Username, "member", u.Member)
		}
	}

	for _, rs := range snap.Rulesets {
		for _, script := range rs.Scripts {
			if err := checkScriptRef(groups, profiles, "ruleset "+rs.Name, script.Key, script.Value); err != nil {
				return err
			}
			for _, set := range script.Sets {
				if err := checkScriptRef(groups, profiles, "ruleset "+rs.Name, set.Key, set.Value); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func checkScriptRef(groups, profiles map[string]struct{}, entity, key, value string) error {
	switch scriptRefKind(key) {
	case refGroup:
		if _, ok := groups[value]; !ok {
			return apperr.Reference(entity, key, value)
		}
	case refProfile:
		if _, ok := profiles[value]; !ok {
			return apperr.Reference(entity, key, value)
		}
	case refNone:
	}
	return nil
}
