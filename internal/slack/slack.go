package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"truthguard/internal/config"
)

// DefaultEndpoint is Slack's message posting API.
const DefaultEndpoint = "https://slack.com/api/chat.postMessage"

var ErrNotConfigured = errors.New("slack bot_token and channel_id must be set in config.ini")

// Element is a rich_text leaf: text, link, or emoji.
type Element struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	Name  string `json:"name,omitempty"`
	Style *Style `json:"style,omitempty"`
}

type Style struct {
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`
	Code   bool `json:"code,omitempty"`
}

// Block is a rich_text_section, rich_text_list, rich_text_quote or
// rich_text_preformatted. Lists hold sections in Items.
type Block struct {
	Type     string    `json:"type"`
	Style    string    `json:"style,omitempty"`
	Indent   int       `json:"indent,omitempty"`
	Elements []Element `json:"-"`
	Items    []*Block  `json:"-"`
}

func (b *Block) MarshalJSON() ([]byte, error) {
	type alias struct {
		Type     string `json:"type"`
		Style    string `json:"style,omitempty"`
		Indent   int    `json:"indent,omitempty"`
		Elements any    `json:"elements"`
	}
	a := alias{Type: b.Type, Style: b.Style, Indent: b.Indent}
	if b.Type == "rich_text_list" {
		items := b.Items
		if items == nil {
			items = []*Block{}
		}
		a.Elements = items
	} else {
		elems := b.Elements
		if elems == nil {
			elems = []Element{}
		}
		a.Elements = elems
	}
	return json.Marshal(a)
}

// Client posts reports to a Slack channel.
type Client struct {
	cfg        config.SlackConfig
	endpoint   string
	httpClient *http.Client
}

func NewClient(cfg config.SlackConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, endpoint: DefaultEndpoint, httpClient: httpClient}
}

// WithEndpoint points the client at another API root, e.g. a test server.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// SendMarkdown converts markdown to rich_text and posts it.
func (c *Client) SendMarkdown(ctx context.Context, markdown string) error {
	if strings.TrimSpace(c.cfg.BotToken) == "" || strings.TrimSpace(c.cfg.ChannelID) == "" {
		return ErrNotConfigured
	}

	message := map[string]any{
		"channel": c.cfg.ChannelID,
		"text":    firstLine(markdown),
		"blocks": []any{
			map[string]any{
				"type":     "rich_text",
				"elements": ConvertToBlocks(markdown),
			},
		},
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.cfg.BotToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return fmt.Errorf("decode slack response (status %d): %w", resp.StatusCode, err)
	}
	if !slackResp.OK {
		return fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return nil
}

// ConvertToBlocks turns markdown into Slack rich_text elements.
func ConvertToBlocks(markdown string) []*Block {
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	c := &converter{source: src}
	c.walkBlocks(doc, 0)
	if c.blocks == nil {
		return []*Block{}
	}
	return c.blocks
}

type converter struct {
	source  []byte
	blocks  []*Block
	style   Style
	link    string
	pending strings.Builder
}

// walkBlocks handles block-level children of n.
func (c *converter) walkBlocks(n ast.Node, depth int) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch b := child.(type) {
		case *ast.Heading:
			sec := c.newBlock("rich_text_section")
			c.style.Bold = true
			c.inline(sec, b)
			c.style.Bold = false
			sec.Elements = append(sec.Elements, Element{Type: "text", Text: "\n"})
		case *ast.Paragraph, *ast.TextBlock:
			sec := c.newBlock("rich_text_section")
			c.inline(sec, b)
			sec.Elements = append(sec.Elements, Element{Type: "text", Text: "\n"})
		case *ast.Blockquote:
			quote := c.newBlock("rich_text_quote")
			for p := b.FirstChild(); p != nil; p = p.NextSibling() {
				c.inline(quote, p)
			}
		case *ast.List:
			c.list(b, depth)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			var code strings.Builder
			lines := child.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				code.Write(seg.Value(c.source))
			}
			pre := c.newBlock("rich_text_preformatted")
			pre.Elements = append(pre.Elements, Element{Type: "text", Text: code.String()})
		case *ast.ThematicBreak:
		default:
			c.walkBlocks(child, depth)
		}
	}
}

func (c *converter) list(l *ast.List, depth int) {
	style := "bullet"
	if l.IsOrdered() {
		style = "ordered"
	}
	var current *Block
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		if current == nil {
			current = c.newBlock("rich_text_list")
			current.Style = style
			current.Indent = depth
		}
		sec := &Block{Type: "rich_text_section"}
		var nested []*ast.List
		for p := item.FirstChild(); p != nil; p = p.NextSibling() {
			if sub, ok := p.(*ast.List); ok {
				nested = append(nested, sub)
				continue
			}
			if len(sec.Elements) > 0 {
				sec.Elements = append(sec.Elements, Element{Type: "text", Text: "\n"})
			}
			c.inline(sec, p)
		}
		current.Items = append(current.Items, sec)
		for _, sub := range nested {
			c.list(sub, depth+1)
			current = nil
		}
	}
}

var emojiPattern = regexp.MustCompile(`:([a-z0-9_+-]+):`)

// inline appends the inline content of n to sec. Adjacent text nodes are
// merged before emoji detection since goldmark splits text at delimiters.
func (c *converter) inline(sec *Block, n ast.Node) {
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		switch t := node.(type) {
		case *ast.Emphasis:
			c.flush(sec)
			if t.Level == 2 {
				c.style.Bold = entering
			} else {
				c.style.Italic = entering
			}
		case *ast.CodeSpan:
			c.flush(sec)
			c.style.Code = entering
		case *ast.Link:
			c.flush(sec)
			if entering {
				c.link = string(t.Destination)
			} else {
				c.link = ""
			}
		case *ast.AutoLink:
			if entering {
				c.flush(sec)
				url := string(t.URL(c.source))
				sec.Elements = append(sec.Elements, Element{Type: "link", URL: url, Text: url})
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				c.pending.Write(t.Segment.Value(c.source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					c.pending.WriteString("\n")
				}
			}
		case *ast.String:
			if entering {
				c.pending.Write(t.Value)
			}
		}
		return ast.WalkContinue, nil
	})
	c.flush(sec)
}

func (c *converter) flush(sec *Block) {
	s := c.pending.String()
	c.pending.Reset()
	last := 0
	for _, m := range emojiPattern.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			sec.Elements = append(sec.Elements, c.element(s[last:m[0]]))
		}
		sec.Elements = append(sec.Elements, Element{Type: "emoji", Name: s[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(s) {
		sec.Elements = append(sec.Elements, c.element(s[last:]))
	}
}

func (c *converter) element(s string) Element {
	el := Element{Type: "text", Text: s}
	if c.style != (Style{}) {
		st := c.style
		el.Style = &st
	}
	if c.link != "" {
		el.Type = "link"
		el.URL = c.link
	}
	return el
}

func (c *converter) newBlock(kind string) *Block {
	b := &Block{Type: kind}
	c.blocks = append(c.blocks, b)
	return b
}

func firstLine(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#>"))
		if line != "" {
			return line
		}
	}
	return "Analysis report"
}
