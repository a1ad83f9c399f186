package notify

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/pkg/errors"

	"github.com/joestump/curated-links/internal/store"
)

// Message is one email to one recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

const htmlBody = `<p>Hi {{.Name}},</p>
<p>A new link was published in {{.Categories}}:</p>
<p><a href="{{.URL}}">{{.Title}}</a> ({{.Type}} {{.Medium}})</p>
{{- if .ClientURL}}
<p>See more on <a href="{{.ClientURL}}">{{.Site}}</a>.</p>
{{- end}}
`

const textBody = `Hi {{.Name}},

A new link was published in {{.Categories}}:

{{.Title}} ({{.Type}} {{.Medium}})
{{.URL}}
{{- if .ClientURL}}

See more on {{.Site}}: {{.ClientURL}}
{{- end}}
`

type messageData struct {
	Name       string
	Title      string
	URL        string
	Type       string
	Medium     string
	Categories string
	Site       string
	ClientURL  string
}

// Renderer builds per-recipient messages for a published link.
type Renderer struct {
	site      string
	clientURL string
	html      *htmltemplate.Template
	text      *texttemplate.Template
}

func NewRenderer(site, clientURL string) *Renderer {
	if site == "" {
		site = "Curated Links"
	}
	return &Renderer{
		site:      site,
		clientURL: clientURL,
		html:      htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody)),
		text:      texttemplate.Must(texttemplate.New("text").Parse(textBody)),
	}
}

// Render returns the message announcing link to u. categoryNames are the
// display names of the link's categories.
func (r *Renderer) Render(u *store.User, link *store.Link, categoryNames []string) (*Message, error) {
	name := u.Name
	if name == "" {
		name = u.Email
	}
	data := messageData{
		Name:       name,
		Title:      link.Title,
		URL:        link.URL,
		Type:       link.Type,
		Medium:     link.Medium,
		Categories: strings.Join(categoryNames, ", "),
		Site:       r.site,
		ClientURL:  r.clientURL,
	}

	var html, text bytes.Buffer
	if err := r.html.Execute(&html, data); err != nil {
		return nil, errors.Wrap(err, "render html body")
	}
	if err := r.text.Execute(&text, data); err != nil {
		return nil, errors.Wrap(err, "render text body")
	}
	return &Message{
		To:      u.Email,
		Subject: "New link published | " + r.site,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
