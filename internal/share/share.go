// Package share turns menus into shareable documents, slugs and links, and
// resolves slugs or stored document ids back into menus.
package share

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/menu"
)

// QueryParam is the query parameter that carries slugs and document ids.
const QueryParam = "encoded"

// NewDocument encodes m into a document titled title.
func NewDocument(c *codec.Codec, title string, m *menu.Menu) (menu.Document, error) {
	if m == nil {
		m = menu.New()
	}
	tok, err := c.Encode(m)
	if err != nil {
		return menu.Document{}, fmt.Errorf("share: encode menu %q: %w", title, err)
	}
	return menu.Document{Title: title, Encoded: tok}, nil
}

// Slug builds the self-contained slug of doc.
func Slug(c *codec.Codec, doc menu.Document) (string, error) {
	titleTok, err := c.Encode(doc.Title)
	if err != nil {
		return "", fmt.Errorf("share: encode title %q: %w", doc.Title, err)
	}
	return codec.JoinSlug(titleTok, doc.Encoded), nil
}

// LinkSet holds the share links of one menu: the filled-in menu and the
// blank template derived from it.
type LinkSet struct {
	Slug         string `json:"slug" yaml:"slug"`
	URL          string `json:"url" yaml:"url"`
	TemplateSlug string `json:"template_slug" yaml:"template_slug"`
	TemplateURL  string `json:"template_url" yaml:"template_url"`
}

// Links builds the menu and template links of m under baseURL.
func Links(c *codec.Codec, baseURL, title string, m *menu.Menu) (LinkSet, error) {
	slug, err := c.EncodeSlug(title, orEmpty(m))
	if err != nil {
		return LinkSet{}, fmt.Errorf("share: menu link: %w", err)
	}
	tmpl, err := c.EncodeSlug(title, orEmpty(m).Template())
	if err != nil {
		return LinkSet{}, fmt.Errorf("share: template link: %w", err)
	}
	return LinkSet{
		Slug:         slug,
		URL:          MenuURL(baseURL, slug),
		TemplateSlug: tmpl,
		TemplateURL:  MenuURL(baseURL, tmpl),
	}, nil
}

// MenuURL returns the editing URL for a slug or document id.
func MenuURL(baseURL, param string) string {
	return pageURL(baseURL, "menu", param)
}

// CompareURL returns the comparison URL for params, each a slug or document
// id. Empty params are dropped.
func CompareURL(baseURL string, params ...string) string {
	return pageURL(baseURL, "compare", params...)
}

func pageURL(baseURL, page string, params ...string) string {
	q := url.Values{}
	for _, p := range params {
		if p != "" {
			q.Add(QueryParam, p)
		}
	}
	u := strings.TrimRight(baseURL, "/") + "/" + page
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func orEmpty(m *menu.Menu) *menu.Menu {
	if m == nil {
		return menu.New()
	}
	return m
}
