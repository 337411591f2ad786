package annotation

import (
	"net/url"
	"strings"
	"time"

	"streamer/internal/auth"
	"streamer/pkg/models"
)

// LinkContext carries the service URLs that absolute links are built from.
// Each connection holds its own, so documents are serialized per connection.
type LinkContext struct {
	AppURL       string
	IncontextURL string
}

// Serializer renders an annotation for one viewer's link context.
type Serializer interface {
	Serialize(a *Annotation, links LinkContext) models.Document
}

// Presenter produces the JSON document clients receive for an annotation.
type Presenter struct{}

func NewPresenter() *Presenter {
	return &Presenter{}
}

func (p *Presenter) Serialize(a *Annotation, links LinkContext) models.Document {
	doc := models.Document{
		"id":      a.ID,
		"created": a.Created.UTC().Format(time.RFC3339Nano),
		"updated": a.Updated.UTC().Format(time.RFC3339Nano),
		"user":    a.UserID,
		"uri":     a.TargetURI,
		"text":    a.Text,
		"tags":    stringList(a.Tags),
		"group":   a.GroupID,
		"permissions": map[string]interface{}{
			"read":   ReadPrincipals(a),
			"admin":  []string{a.UserID},
			"update": []string{a.UserID},
			"delete": []string{a.UserID},
		},
		"target": []interface{}{p.target(a)},
		"document": map[string]interface{}{
			"title": titleList(a.DocumentTitle),
		},
		"links": p.links(a, links),
	}

	if len(a.References) > 0 {
		doc["references"] = stringList(a.References)
	}

	return doc
}

func (p *Presenter) target(a *Annotation) map[string]interface{} {
	target := map[string]interface{}{"source": a.TargetURI}
	if len(a.Selectors) > 0 {
		selectors := make([]interface{}, 0, len(a.Selectors))
		for _, s := range a.Selectors {
			selectors = append(selectors, map[string]interface{}(s))
		}
		target["selector"] = selectors
	}
	return target
}

func (p *Presenter) links(a *Annotation, links LinkContext) map[string]interface{} {
	out := map[string]interface{}{}
	if html := joinURL(links.AppURL, "a", a.ID); html != "" {
		out["html"] = html
		out["json"] = joinURL(links.AppURL, "api", "annotations", a.ID)
	}
	if incontext := joinURL(links.IncontextURL, a.ID); incontext != "" {
		out["incontext"] = incontext
	}
	return out
}

// ReadPrincipals is the permissions.read list of an annotation: the group
// principal when shared, otherwise only the author.
func ReadPrincipals(a *Annotation) []string {
	if a.Shared {
		return []string{auth.GroupPrincipal(a.GroupID)}
	}
	return []string{a.UserID}
}

func joinURL(base string, elem ...string) string {
	if strings.TrimSpace(base) == "" {
		return ""
	}
	u, err := url.JoinPath(base, elem...)
	if err != nil {
		return ""
	}
	return u
}

func stringList(values []string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func titleList(title string) []interface{} {
	if title == "" {
		return []interface{}{}
	}
	return []interface{}{title}
}
