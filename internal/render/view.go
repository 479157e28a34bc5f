// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/jeranaias/chatpad-tui/internal/attach"
	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/util"
)

// ImageAlt is the alt text of generated images.
const ImageAlt = "Generated Image"

// View is the render-ready form of one message.
type View struct {
	ID        string
	Role      model.Role
	Kind      model.Kind
	Timestamp time.Time

	Markdown string
	HTML     string
	Plain    string

	// Prompt is set for image requests.
	Prompt string
	// Image is set for image replies whose data decoded.
	Image *ImageRef

	CodeBlocks  []CodeBlock
	Attachments []Chip
}

// IsUser reports whether the view is on the user side.
func (v View) IsUser() bool { return v.Role == model.RoleUser }

// ImageRef is an inline image carried in a data URL.
type ImageRef struct {
	MIME    string
	DataURL string
	Data    []byte
}

// Size is the decoded image size in bytes.
func (r *ImageRef) Size() int { return len(r.Data) }

// Chip describes an attachment sent with a user message.
type Chip struct {
	Name    string
	MIME    string
	Size    int64
	IsImage bool
	Label   string
}

// Render builds the view of msg. Attachments only appear on user messages.
func Render(msg model.Message, atts ...attach.Attachment) View {
	v := View{
		ID:        msg.ID,
		Role:      msg.Role,
		Kind:      msg.EffectiveKind(),
		Timestamp: msg.Timestamp,
		Markdown:  msg.Content,
	}

	switch v.Kind {
	case model.KindImageRequest:
		prompt, ok := model.ParseImageRequest(msg.Content)
		if !ok {
			prompt = msg.Content
		}
		v.Prompt = prompt
		v.HTML = sanitize(toHTML(msg.Content).html)
		v.Plain = msg.Content
	case model.KindImage:
		v.Image = parseImage(msg.Content)
		v.HTML = sanitize(toHTML(msg.Content).html)
		v.Plain = "[" + ImageAlt + "]"
	default:
		doc := toHTML(msg.Content)
		v.HTML = sanitize(doc.html)
		v.Plain = strip(doc.html)
		v.CodeBlocks = doc.code
	}

	if msg.Role == model.RoleUser {
		for _, a := range atts {
			v.Attachments = append(v.Attachments, Chip{
				Name:    a.Name,
				MIME:    a.BaseMIME(),
				Size:    a.Size,
				IsImage: a.IsImage(),
				Label:   a.Label(),
			})
		}
	}
	return v
}

// Replay renders a stored conversation in order.
func Replay(c *model.Conversation) []View {
	if c == nil {
		return nil
	}
	out := make([]View, 0, len(c.Messages))
	for _, m := range c.Messages {
		out = append(out, Render(m))
	}
	return out
}

// PreviewMessage is the one-line preview of msg, n runes at most. Images
// preview as their alt text without decoding.
func PreviewMessage(msg model.Message, n int) string {
	switch msg.EffectiveKind() {
	case model.KindImage:
		return util.Ellipsize("["+ImageAlt+"]", n)
	case model.KindImageRequest:
		if p, ok := model.ParseImageRequest(msg.Content); ok {
			return util.Ellipsize(util.SingleLine(p), n)
		}
	}
	return Preview(msg.Content, n)
}

// parseImage decodes the data URL held by an image reply.
func parseImage(content string) *ImageRef {
	dataURL, ok := model.ParseImageMarkdown(content)
	if !ok {
		return nil
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	return &ImageRef{
		MIME:    strings.TrimSuffix(header, ";base64"),
		DataURL: dataURL,
		Data:    data,
	}
}
