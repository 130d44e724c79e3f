// Package goldmark renders the agent's final Markdown answer as ANSI-styled
// terminal text. Parsing uses goldmark; styling uses lipgloss.
package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/shipit"
	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

const defaultWidth = 80

// Renderer turns Markdown into styled terminal output. It is safe for
// concurrent use.
type Renderer struct {
	parser parser.Parser

	bold      lipgloss.Style
	italic    lipgloss.Style
	heading   lipgloss.Style
	code      lipgloss.Style
	muted     lipgloss.Style
	link      lipgloss.Style
	strike    lipgloss.Style
	checked   lipgloss.Style
	unchecked lipgloss.Style
}

// New returns a Renderer using the colors of theme.
func New(theme shipit.Theme) *Renderer {
	md := goldmark.New(goldmark.WithExtensions(
		extension.Strikethrough,
		extension.TaskList,
		extension.Linkify,
	))
	return &Renderer{
		parser:    md.Parser(),
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		heading:   lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
		code:      lipgloss.NewStyle().Foreground(color(theme.Warning)).Background(color(theme.CodeBg)),
		muted:     lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
		link:      lipgloss.NewStyle().Underline(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		checked:   lipgloss.NewStyle().Foreground(color(theme.Success)),
		unchecked: lipgloss.NewStyle().Foreground(color(theme.Muted)),
	}
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// Render formats source for a terminal width columns wide. Paragraphs and
// list items wrap; code blocks keep their lines.
func (r *Renderer) Render(source string, width int) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	src := []byte(source)
	doc := r.parser.Parse(text.NewReader(src))
	var buf bytes.Buffer
	r.blocks(doc, src, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (r *Renderer) blocks(parent ast.Node, src []byte, width int, buf *bytes.Buffer) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(n, src, width, buf)
		if n.NextSibling() != nil {
			buf.WriteByte('\n')
		}
	}
}

func (r *Renderer) block(node ast.Node, src []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		writeWrapped(buf, "", "", r.inlines(n, src), width)
	case *ast.Heading:
		marker := strings.Repeat("#", n.Level) + " "
		writeWrapped(buf, "", "", r.heading.Render(marker+r.inlines(n, src)), width)
	case *ast.FencedCodeBlock:
		if lang := string(n.Language(src)); lang != "" {
			buf.WriteString(r.muted.Render(lang) + "\n")
		}
		r.codeLines(n, src, buf)
	case *ast.CodeBlock:
		r.codeLines(n, src, buf)
	case *ast.Blockquote:
		var inner bytes.Buffer
		r.blocks(n, src, width-2, &inner)
		bar := r.muted.Render("▌") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(bar + line + "\n")
		}
	case *ast.List:
		r.list(n, src, width, 0, buf)
	case *ast.ThematicBreak:
		buf.WriteString(r.muted.Render(strings.Repeat("─", min(width, defaultWidth))) + "\n")
	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	default:
		r.blocks(n, src, width, buf)
	}
}

func (r *Renderer) codeLines(n ast.Node, src []byte, buf *bytes.Buffer) {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.WriteString(gutter + strings.TrimRight(string(seg.Value(src)), "\n") + "\n")
	}
}

func (r *Renderer) list(n *ast.List, src []byte, width, depth int, buf *bytes.Buffer) {
	indent := strings.Repeat("  ", depth)
	num := n.Start
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.List:
				r.list(in, src, width, depth+1, buf)
			case *ast.Paragraph, *ast.TextBlock:
				writeWrapped(buf, indent+marker, indent+strings.Repeat(" ", runewidth.StringWidth(marker)), r.inlines(in, src), width)
			default:
				var inner bytes.Buffer
				r.block(in, src, width-len(indent)-2, &inner)
				for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
					buf.WriteString(indent + "  " + line + "\n")
				}
			}
			marker = strings.Repeat(" ", runewidth.StringWidth(marker))
		}
	}
}

// writeWrapped wraps content to width, prefixing the first line with first
// and every following line with rest.
func writeWrapped(buf *bytes.Buffer, first, rest, content string, width int) {
	w := max(width-runewidth.StringWidth(first), 10)
	wrapped := lipgloss.NewStyle().Width(w).Render(content)
	for i, line := range strings.Split(wrapped, "\n") {
		prefix := rest
		if i == 0 {
			prefix = first
		}
		buf.WriteString(strings.TrimRight(prefix+line, " ") + "\n")
	}
}

func (r *Renderer) inlines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(c, src, &buf)
	}
	return buf.String()
}

func (r *Renderer) inline(node ast.Node, src []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(src))
		switch {
		case n.HardLineBreak():
			buf.WriteByte('\n')
		case n.SoftLineBreak():
			buf.WriteByte(' ')
		}
	case *ast.String:
		buf.Write(n.Value)
	case *ast.Emphasis:
		inner := r.inlines(n, src)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}
	case *ast.CodeSpan:
		buf.WriteString(r.code.Render(r.inlines(n, src)))
	case *ast.Link:
		buf.WriteString(r.link.Render(r.inlines(n, src)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		buf.WriteString(r.link.Render(string(n.URL(src))))
	case *ast.Image:
		buf.WriteString(r.link.Render(r.inlines(n, src)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(src))
		}
	case *east.Strikethrough:
		buf.WriteString(r.strike.Render(r.inlines(n, src)))
	case *east.TaskCheckBox:
		if n.IsChecked {
			buf.WriteString(r.checked.Render("[x]") + " ")
		} else {
			buf.WriteString(r.unchecked.Render("[ ]") + " ")
		}
	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.inline(c, src, buf)
		}
	}
}
