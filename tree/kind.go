package tree

// Kind is the type of a node. The set of kinds is closed; a node's kind
// never changes after creation.
type Kind string

// Container kinds.
const (
	Section   Kind = "section"
	Container Kind = "container"
	Columns   Kind = "columns"
	Column    Kind = "column"
	Grid      Kind = "grid"
	Form      Kind = "form"
)

// Leaf kinds.
const (
	Heading  Kind = "heading"
	Text     Kind = "text"
	RichText Kind = "richtext"
	Image    Kind = "image"
	Video    Kind = "video"
	Button   Kind = "button"
	Link     Kind = "link"
	Icon     Kind = "icon"
	Divider  Kind = "divider"
	Spacer   Kind = "spacer"
	Embed    Kind = "embed"
	Input    Kind = "input"
)

type kindInfo struct {
	prefix    string
	container bool
}

var kinds = map[Kind]kindInfo{
	Section:   {"sec", true},
	Container: {"ctr", true},
	Columns:   {"cols", true},
	Column:    {"col", true},
	Grid:      {"grid", true},
	Form:      {"form", true},
	Heading:   {"hdg", false},
	Text:      {"txt", false},
	RichText:  {"rtx", false},
	Image:     {"img", false},
	Video:     {"vid", false},
	Button:    {"btn", false},
	Link:      {"lnk", false},
	Icon:      {"ico", false},
	Divider:   {"div", false},
	Spacer:    {"spc", false},
	Embed:     {"emb", false},
	Input:     {"inp", false},
}

// Kinds returns all known kinds, containers first.
func Kinds() []Kind {
	return []Kind{
		Section, Container, Columns, Column, Grid, Form,
		Heading, Text, RichText, Image, Video, Button, Link, Icon, Divider, Spacer, Embed, Input,
	}
}

func (k Kind) String() string {
	return string(k)
}

// IsKnown is a predicate wether k is part of the vocabulary.
func (k Kind) IsKnown() bool {
	_, ok := kinds[k]
	return ok
}

// IsContainer is a predicate wether nodes of kind k may hold children.
func (k Kind) IsContainer() bool {
	return kinds[k].container
}

// Prefix returns the short identifier prefix for nodes of kind k.
// Unknown kinds use "n".
func (k Kind) Prefix() string {
	if info, ok := kinds[k]; ok {
		return info.prefix
	}
	return "n"
}
