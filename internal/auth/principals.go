// Package auth derives the principals of a connection and decides whether
// those principals may read a serialized annotation.
package auth

import (
	"strings"

	"streamer/pkg/models"
)

const (
	Everyone      = "system.Everyone"
	Authenticated = "system.Authenticated"

	// WorldGroup is the pubid of the public group.
	WorldGroup = "__world__"

	groupPrefix = "group:"
)

// GroupPrincipal returns the principal granted to members of a group.
func GroupPrincipal(pubid string) string {
	return groupPrefix + pubid
}

// EffectivePrincipals lists the principals of a user with the given group
// memberships. An empty userid yields the anonymous principal set.
func EffectivePrincipals(userid string, groups []string) []string {
	if userid == "" {
		return []string{Everyone}
	}

	principals := make([]string, 0, len(groups)+3)
	principals = append(principals, Everyone, Authenticated, userid)
	for _, pubid := range groups {
		principals = append(principals, GroupPrincipal(pubid))
	}
	return principals
}

// TranslateAnnotationPrincipals maps the principals stored on an annotation
// into the principal space of EffectivePrincipals.
func TranslateAnnotationPrincipals(principals []string) []string {
	translated := make([]string, 0, len(principals))
	for _, p := range principals {
		if p == GroupPrincipal(WorldGroup) {
			translated = append(translated, Everyone)
			continue
		}
		translated = append(translated, p)
	}
	return translated
}

// AuthorizedToRead reports whether any of the effective principals appears
// in the document's permissions.read. A document whose permissions cannot
// be read is never readable.
func AuthorizedToRead(effective []string, doc models.Document) bool {
	read, ok := doc.ReadPermissions()
	if !ok {
		return false
	}

	allowed := make(map[string]struct{}, len(effective))
	for _, p := range effective {
		allowed[p] = struct{}{}
	}

	for _, p := range TranslateAnnotationPrincipals(read) {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, ok := allowed[p]; ok {
			return true
		}
	}
	return false
}
