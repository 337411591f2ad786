package annotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamer/internal/auth"
	"streamer/internal/filter"
)

func sampleAnnotation() *Annotation {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Annotation{
		ID:            "A1",
		UserID:        "acct:alice@example.com",
		GroupID:       "__world__",
		TargetURI:     "https://example.com/page",
		Text:          "hello",
		Tags:          []string{"news"},
		Shared:        true,
		Selectors:     []Selector{{"type": "TextQuoteSelector", "exact": "quote"}},
		DocumentTitle: "Example",
		Created:       ts,
		Updated:       ts,
	}
}

func TestPresenter_Serialize(t *testing.T) {
	links := LinkContext{AppURL: "https://hypothes.is/", IncontextURL: "https://hyp.is"}
	doc := NewPresenter().Serialize(sampleAnnotation(), links)

	assert.Equal(t, "A1", doc["id"])
	assert.Equal(t, "acct:alice@example.com", doc.User())
	assert.Equal(t, "2024-03-01T12:00:00Z", doc["created"])

	read, ok := doc.ReadPermissions()
	require.True(t, ok)
	assert.Equal(t, []string{"group:__world__"}, read)

	l := doc["links"].(map[string]interface{})
	assert.Equal(t, "https://hypothes.is/a/A1", l["html"])
	assert.Equal(t, "https://hypothes.is/api/annotations/A1", l["json"])
	assert.Equal(t, "https://hyp.is/A1", l["incontext"])

	assert.NotContains(t, doc, "references")
}

func TestPresenter_LinksFollowContext(t *testing.T) {
	p := NewPresenter()
	a := sampleAnnotation()

	first := p.Serialize(a, LinkContext{AppURL: "https://one.example"})
	second := p.Serialize(a, LinkContext{AppURL: "https://two.example"})

	assert.Equal(t, "https://one.example/a/A1", first["links"].(map[string]interface{})["html"])
	assert.Equal(t, "https://two.example/a/A1", second["links"].(map[string]interface{})["html"])
	assert.NotContains(t, first["links"], "incontext")
}

func TestPresenter_PrivateAnnotationReadableOnlyByAuthor(t *testing.T) {
	a := sampleAnnotation()
	a.Shared = false
	doc := NewPresenter().Serialize(a, LinkContext{})

	assert.True(t, auth.AuthorizedToRead(auth.EffectivePrincipals("acct:alice@example.com", nil), doc))
	assert.False(t, auth.AuthorizedToRead(auth.EffectivePrincipals("acct:bob@example.com", []string{"__world__"}), doc))
	assert.False(t, auth.AuthorizedToRead(auth.EffectivePrincipals("", nil), doc))
}

func TestPresenter_WorldGroupReadableByEveryone(t *testing.T) {
	doc := NewPresenter().Serialize(sampleAnnotation(), LinkContext{})
	assert.True(t, auth.AuthorizedToRead(auth.EffectivePrincipals("", nil), doc))
}

func TestPresenter_DocumentMatchesFacet(t *testing.T) {
	doc := NewPresenter().Serialize(sampleAnnotation(), LinkContext{})
	f := filter.NewFacet([]string{"https://example.com/page/"}, []string{"__world__"}, nil)
	assert.True(t, f.Match(doc, "create"))
}

func TestReadPrincipals(t *testing.T) {
	a := sampleAnnotation()
	a.GroupID = "private-x"
	assert.Equal(t, []string{"group:private-x"}, ReadPrincipals(a))

	a.Shared = false
	assert.Equal(t, []string{"acct:alice@example.com"}, ReadPrincipals(a))
}
