// Package richtext models rich-text content as a closed set of node
// variants. Each variant has its own JSON shape and HTML rendering.
package richtext

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Kind is the JSON type tag of a node.
type Kind string

// Node kinds
const (
	KindMath       Kind = "math"
	KindDrawing    Kind = "drawing"
	KindAudio      Kind = "audio"
	KindVideo      Kind = "video"
	KindAttachment Kind = "attachment"
	KindText       Kind = "text"
)

// Domain errors
var (
	ErrUnknownKind = errors.New("unknown rich-text node type")
	ErrMissingKind = errors.New("rich-text node has no type")
	ErrEmptySource = errors.New("media node has no source url")
)

// Node is one of Math, Drawing, Audio, Video, Attachment or Text.
// The unexported method keeps the set closed.
type Node interface {
	Kind() Kind
	node()
}

// Math is a LaTeX formula.
type Math struct {
	Latex   string `json:"latex"`
	Display bool   `json:"display,omitempty"`
}

// Drawing is a canvas scene with an optional rendered preview.
type Drawing struct {
	Scene      json.RawMessage `json:"scene,omitempty"`
	PreviewURL string          `json:"preview_url,omitempty"`
}

// Audio is an embedded audio clip.
type Audio struct {
	Src   string `json:"src"`
	Title string `json:"title,omitempty"`
}

// Video is an embedded video.
type Video struct {
	Src    string `json:"src"`
	Poster string `json:"poster,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Attachment is a downloadable file.
type Attachment struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Text is a Markdown paragraph.
type Text struct {
	Markdown string `json:"markdown"`
}

func (Math) Kind() Kind       { return KindMath }
func (Drawing) Kind() Kind    { return KindDrawing }
func (Audio) Kind() Kind      { return KindAudio }
func (Video) Kind() Kind      { return KindVideo }
func (Attachment) Kind() Kind { return KindAttachment }
func (Text) Kind() Kind       { return KindText }

func (Math) node()       {}
func (Drawing) node()    {}
func (Audio) node()      {}
func (Video) node()      {}
func (Attachment) node() {}
func (Text) node()       {}

// Validate checks variant-specific requirements.
// PRE: n is non-nil
// POST: Returns nil if n can be rendered
func Validate(n Node) error {
	switch v := n.(type) {
	case Audio:
		if v.Src == "" {
			return errors.Wrap(ErrEmptySource, "audio")
		}
	case Video:
		if v.Src == "" {
			return errors.Wrap(ErrEmptySource, "video")
		}
	case Attachment:
		if v.URL == "" {
			return errors.Wrap(ErrEmptySource, "attachment")
		}
	case Math, Drawing, Text:
	default:
		return ErrUnknownKind
	}
	return nil
}

// MarshalNode encodes n as a flat object carrying a "type" tag.
func MarshalNode(n Node) ([]byte, error) {
	switch v := n.(type) {
	case Math:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Math
		}{KindMath, v})
	case Drawing:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Drawing
		}{KindDrawing, v})
	case Audio:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Audio
		}{KindAudio, v})
	case Video:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Video
		}{KindVideo, v})
	case Attachment:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Attachment
		}{KindAttachment, v})
	case Text:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Text
		}{KindText, v})
	}
	return nil, ErrUnknownKind
}

// UnmarshalNode decodes a tagged node. Unknown or missing tags are errors.
func UnmarshalNode(data []byte) (Node, error) {
	var probe struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(err, "decode rich-text node")
	}
	switch probe.Type {
	case "":
		return nil, ErrMissingKind
	case KindMath:
		return decodeAs[Math](data)
	case KindDrawing:
		return decodeAs[Drawing](data)
	case KindAudio:
		return decodeAs[Audio](data)
	case KindVideo:
		return decodeAs[Video](data)
	case KindAttachment:
		return decodeAs[Attachment](data)
	case KindText:
		return decodeAs[Text](data)
	}
	return nil, errors.Wrapf(ErrUnknownKind, "%q", probe.Type)
}

func decodeAs[T Node](data []byte) (Node, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrapf(err, "decode %s node", v.Kind())
	}
	return v, nil
}

// Document is an ordered list of nodes. It encodes as a JSON array.
type Document []Node

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(d))
	for i, n := range d {
		b, err := MarshalNode(n)
		if err != nil {
			return nil, errors.Wrapf(err, "node %d", i)
		}
		raws = append(raws, b)
	}
	return json.Marshal(raws)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return errors.Wrap(err, "decode rich-text document")
	}
	doc := make(Document, 0, len(raws))
	for i, raw := range raws {
		n, err := UnmarshalNode(raw)
		if err != nil {
			return errors.Wrapf(err, "node %d", i)
		}
		doc = append(doc, n)
	}
	*d = doc
	return nil
}
