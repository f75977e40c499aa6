package richtext

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"vacademy/internal/domain/asset"
)

// markdown renders Text nodes. WithUnsafe is not set, so raw HTML in the
// input never reaches the output.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Render writes the HTML for one node to w.
// PRE: n is a valid node
// POST: all user-supplied strings are escaped
func Render(w io.Writer, n Node) error {
	if err := Validate(n); err != nil {
		return err
	}
	switch v := n.(type) {
	case Math:
		return renderMath(w, v)
	case Drawing:
		return renderDrawing(w, v)
	case Audio:
		_, err := fmt.Fprintf(w, `<figure class="rt-audio"><audio controls preload="none" src="%s"></audio>%s</figure>`,
			attr(v.Src), caption(v.Title))
		return err
	case Video:
		poster := ""
		if v.Poster != "" {
			poster = fmt.Sprintf(` poster="%s"`, attr(v.Poster))
		}
		_, err := fmt.Fprintf(w, `<figure class="rt-video"><video controls preload="metadata" src="%s"%s></video>%s</figure>`,
			attr(v.Src), poster, caption(v.Title))
		return err
	case Attachment:
		return renderAttachment(w, v)
	case Text:
		if err := markdown.Convert([]byte(v.Markdown), w); err != nil {
			return errors.Wrap(err, "render markdown")
		}
		return nil
	}
	return ErrUnknownKind
}

// RenderDocument renders every node in order.
func RenderDocument(w io.Writer, doc Document) error {
	for i, n := range doc {
		if err := Render(w, n); err != nil {
			return errors.Wrapf(err, "node %d", i)
		}
	}
	return nil
}

// RenderString is RenderDocument into a string.
func RenderString(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := RenderDocument(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderMath(w io.Writer, m Math) error {
	tag, open, closing := "span", `\(`, `\)`
	if m.Display {
		tag, open, closing = "div", `\[`, `\]`
	}
	_, err := fmt.Fprintf(w, `<%s class="rt-math" data-latex="%s">%s%s%s</%s>`,
		tag, attr(m.Latex), open, html.EscapeString(m.Latex), closing, tag)
	return err
}

func renderDrawing(w io.Writer, d Drawing) error {
	src := d.PreviewURL
	if src == "" {
		src = asset.PlaceholderDataURI
	}
	_, err := fmt.Fprintf(w, `<figure class="rt-drawing"><img src="%s" alt="Drawing"></figure>`, attr(src))
	return err
}

func renderAttachment(w io.Writer, a Attachment) error {
	name := a.FileName
	if name == "" {
		name = "Attachment"
	}
	size := ""
	if a.Size > 0 {
		size = fmt.Sprintf(` <span class="rt-size">(%s)</span>`, HumanSize(a.Size))
	}
	_, err := fmt.Fprintf(w, `<p class="rt-attachment"><a href="%s" download>%s</a>%s</p>`,
		attr(a.URL), html.EscapeString(name), size)
	return err
}

func caption(title string) string {
	if title == "" {
		return ""
	}
	return "<figcaption>" + html.EscapeString(title) + "</figcaption>"
}

func attr(s string) string {
	return html.EscapeString(s)
}

// HumanSize formats a byte count with binary units.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
