// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatpad-tui/internal/attach"
	"github.com/jeranaias/chatpad-tui/internal/model"
	"github.com/jeranaias/chatpad-tui/internal/ui/styles"
)

func TestRender_Text(t *testing.T) {
	msg := model.NewBotMessage("Here is **bold** text.\n\n```go\nfmt.Println(\"hi\")\n```\n")
	v := Render(msg)

	assert.Equal(t, msg.ID, v.ID)
	assert.Equal(t, model.KindText, v.Kind)
	assert.Contains(t, v.HTML, "<strong>bold</strong>")
	assert.Contains(t, v.Plain, "Here is bold text.")
	require.Len(t, v.CodeBlocks, 1)
	assert.Equal(t, "go", v.CodeBlocks[0].Language)
	assert.Equal(t, `fmt.Println("hi")`, v.CodeBlocks[0].Code)
	assert.False(t, v.CodeBlocks[0].Detected)
	assert.Nil(t, v.Image)
}

func TestRender_SanitizesHTML(t *testing.T) {
	v := Render(model.NewBotMessage("hello <script>alert(1)</script> [x](javascript:alert(1))"))
	assert.NotContains(t, v.HTML, "<script")
	assert.NotContains(t, v.HTML, "javascript:")
	assert.NotContains(t, v.Plain, "<")
}

func TestRender_ImageExchange(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	b64 := base64.StdEncoding.EncodeToString(png)

	req := Render(model.NewImageRequest("a red cube"))
	assert.Equal(t, model.KindImageRequest, req.Kind)
	assert.Equal(t, "a red cube", req.Prompt)
	assert.Equal(t, `Generate image: "a red cube"`, req.Plain)

	reply := Render(model.NewImageReply(b64))
	assert.Equal(t, model.KindImage, reply.Kind)
	require.NotNil(t, reply.Image)
	assert.Equal(t, "image/png", reply.Image.MIME)
	assert.Equal(t, png, reply.Image.Data)
	assert.Equal(t, len(png), reply.Image.Size())
	assert.Contains(t, reply.HTML, "data:image/png;base64,")
	assert.Equal(t, "[Generated Image]", reply.Plain)
}

func TestToHTML_DataURIImages(t *testing.T) {
	h := ToHTML("![pic](data:image/png;base64,QUJD)")
	assert.Contains(t, h, `src="data:image/png;base64,QUJD"`)

	h = ToHTML("![pic](data:text/html;base64,PHNjcmlwdD4=)")
	assert.NotContains(t, h, "data:text/html")
}

func TestRender_LegacyKindSniffing(t *testing.T) {
	user := model.Message{Role: model.RoleUser, Content: `Generate image: "cat"`}
	bot := model.Message{Role: model.RoleBot, Content: "![Generated Image](data:image/png;base64,QUJD)"}
	plain := model.Message{Role: model.RoleBot, Content: "just text"}

	assert.Equal(t, model.KindImageRequest, Render(user).Kind)
	assert.Equal(t, "cat", Render(user).Prompt)
	assert.Equal(t, model.KindImage, Render(bot).Kind)
	assert.Equal(t, []byte("ABC"), Render(bot).Image.Data)
	assert.Equal(t, model.KindText, Render(plain).Kind)
}

func TestRender_BrokenImageData(t *testing.T) {
	v := Render(model.Message{Role: model.RoleBot, Kind: model.KindImage, Content: "![Generated Image](data:image/png;base64,!!!)"})
	assert.Nil(t, v.Image)
}

func TestRender_AttachmentChipsOnlyForUser(t *testing.T) {
	att := attach.FromBytes("notes.txt", []byte("hello"))

	user := Render(model.NewUserMessage("see file"), att)
	require.Len(t, user.Attachments, 1)
	assert.Equal(t, "notes.txt", user.Attachments[0].Name)
	assert.Equal(t, "text/plain", user.Attachments[0].MIME)
	assert.Contains(t, user.Attachments[0].Label, "notes.txt")

	bot := Render(model.NewBotMessage("ok"), att)
	assert.Empty(t, bot.Attachments)
}

func TestReplay_PreservesOrder(t *testing.T) {
	conv := &model.Conversation{Messages: []model.Message{
		model.NewUserMessage("one"),
		model.NewBotMessage("two"),
		model.NewUserMessage("three"),
	}}
	views := Replay(conv)
	require.Len(t, views, 3)
	for i, v := range views {
		assert.Equal(t, conv.Messages[i].ID, v.ID)
		assert.Equal(t, conv.Messages[i].Content, v.Markdown)
	}
	assert.Nil(t, Replay(nil))
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"markup stripped", "**bold** and `code`", 50, "bold and code"},
		{"entities unescaped", "a & b < c", 50, "a & b < c"},
		{"multi-paragraph collapsed", "first\n\nsecond", 50, "first second"},
		{"truncated", strings.Repeat("x", 60), 50, strings.Repeat("x", 50) + "..."},
		{"exactly n", strings.Repeat("y", 50), 50, strings.Repeat("y", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.in, tt.n))
		})
	}
}

func TestPreviewMessage(t *testing.T) {
	assert.Equal(t, "[Generated Image]", PreviewMessage(model.NewImageReply("QUJD"), 50))
	assert.Equal(t, "a red cube", PreviewMessage(model.NewImageRequest("a red cube"), 50))
	assert.Equal(t, "Hi there", PreviewMessage(model.NewBotMessage("*Hi* there"), 50))
}

func TestTerminal_Render(t *testing.T) {
	term := NewTerminal(styles.New(true), 80)

	out := term.Render(Render(model.NewUserMessage("Hello")))
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "Hello")

	out = term.Render(Render(model.NewImageRequest("a red cube")))
	assert.Contains(t, out, "a red cube")

	out = term.Render(Render(model.NewImageReply(base64.StdEncoding.EncodeToString([]byte("abc")))))
	assert.Contains(t, out, "Generated Image")
	assert.Contains(t, out, "3 B")

	out = term.Render(Render(model.NewErrorMessage("HTTP error! status: 500")))
	assert.Contains(t, out, "Sorry, I encountered an error")

	term.SetWidth(10)
	term.SetTheme(styles.New(false))
	assert.NotEmpty(t, term.Transcript([]View{Render(model.NewBotMessage("Bye"))}))
}

func TestHighlightCode_FallsBackToInput(t *testing.T) {
	out := HighlightCode("x := 1", "go", "monokai")
	assert.Contains(t, out, "x")
	assert.NotEmpty(t, CodeBox(CodeBlock{Language: "go", Code: "x := 1"}, styles.New(true), 60))
}
