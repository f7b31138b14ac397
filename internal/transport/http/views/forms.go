package views

import (
	"net/url"
	"sort"
	"strconv"

	. "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

type choice struct {
	Value string
	Label string
}

func field(label string, input Node) Node {
	return html.P(html.Label(Text(label), html.Br(), input))
}

func textInput(name, value string, required bool) Node {
	return html.Input(html.Type("text"), html.Name(name), html.Value(value), If(required, html.Required()))
}

func typedInput(kind, name, value string, required bool) Node {
	return html.Input(html.Type(kind), html.Name(name), html.Value(value), If(required, html.Required()))
}

func numberInput(name string, value float64, step string) Node {
	return html.Input(html.Type("number"), html.Name(name), html.Value(strconv.FormatFloat(value, 'f', -1, 64)), html.Step(step), html.Required())
}

func hidden(name, value string) Node {
	return html.Input(html.Type("hidden"), html.Name(name), html.Value(value))
}

func selectInput(name, selected string, choices []choice, allowEmpty string) Node {
	options := make([]Node, 0, len(choices)+1)
	if allowEmpty != "" {
		options = append(options, html.Option(html.Value(""), Text(allowEmpty)))
	}
	for _, c := range choices {
		options = append(options, html.Option(html.Value(c.Value), If(c.Value == selected, html.Selected()), Text(c.Label)))
	}
	return html.Select(html.Name(name), Group(options))
}

func plainChoices(values []string) []choice {
	out := make([]choice, 0, len(values))
	for _, v := range values {
		out = append(out, choice{Value: v, Label: v})
	}
	return out
}

// postButton is a one button form for row actions.
func postButton(action, label string, fields ...Node) Node {
	return html.Form(html.Method("post"), html.Action(action), html.StyleAttr("display:inline"),
		Group(fields),
		html.Button(html.Type("submit"), Text(label)),
	)
}

func submit(label string) Node {
	return html.P(html.Button(html.Type("submit"), Text(label)))
}

func table(headers []string, rows []Node) Node {
	head := make([]Node, 0, len(headers))
	for _, h := range headers {
		head = append(head, html.Th(Text(h)))
	}
	if len(rows) == 0 {
		return html.P(html.Em(Text("No data.")))
	}
	return html.Table(html.THead(html.Tr(Group(head))), html.TBody(Group(rows)))
}

func cells(values ...string) Node {
	out := make([]Node, 0, len(values))
	for _, v := range values {
		out = append(out, html.Td(Text(v)))
	}
	return Group(out)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// withQuery appends the non-empty key/value pairs to path.
func withQuery(path string, pairs ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			q.Set(pairs[i], pairs[i+1])
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
