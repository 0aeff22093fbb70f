/*
Package docdbg implements helpers to debug a document forest.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>


*/
package docdbg

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"text/template"

	"github.com/npillmayer/pagedoc/style"
	"github.com/npillmayer/pagedoc/tree"
)

// Parameters for GraphViz drawing.
type graphParamsType struct {
	Fontname       string
	StyleGroups    []string
	NodeTmpl       *template.Template
	EdgeTmpl       *template.Template
	StylegroupTmpl *template.Template
	PgedgeTmpl     *template.Template
	PgpgTmpl       *template.Template
}

var defaultGroups = []string{
	style.PGMargins,
	style.PGPadding,
	style.PGBorder,
	style.PGDimension,
	style.PGDisplay,
	style.PGColor,
	style.PGBackground,
	style.PGText,
}

// ToGraphViz outputs a diagram for a forest. The diagram is in
// GraphViz (DOT) format. Clients have to provide the forest, a Writer,
// the class map of the compiled forest (may be nil) and an optional list
// of style property groups. The diagram will include all style
// declarations of a node belonging to one of the property groups.
//
// If the client does not provide a list of style groups, all groups but
// effects will be drawn.
//
func ToGraphViz(f tree.Forest, w io.Writer, classMap map[string]string, styleGroups []string) error {
	tmpl, err := template.New("forest").Parse(graphHeadTmpl)
	if err != nil {
		return err
	}
	gparams := graphParamsType{Fontname: "Helvetica"}
	gparams.NodeTmpl = template.Must(template.New("docnode").Funcs(
		template.FuncMap{
			"shortstring": shortText,
		}).Parse(docNodeTmpl))
	gparams.EdgeTmpl = template.Must(template.New("docedge").Parse(docEdgeTmpl))
	gparams.StylegroupTmpl = template.Must(template.New("stylegroup").Parse(styleGroupTmpl))
	gparams.PgedgeTmpl = template.Must(template.New("pgedge").Parse(pgEdgeTmpl))
	gparams.PgpgTmpl = template.Must(template.New("pgpgedge").Parse(pgpgEdgeTmpl))
	gparams.StyleGroups = styleGroups
	if styleGroups == nil {
		gparams.StyleGroups = defaultGroups
	}
	if err = tmpl.Execute(w, gparams); err != nil {
		return err
	}
	dict := make(map[*tree.Node]string, f.Count())
	err = f.Walk(func(n, parent *tree.Node, position int) error {
		if err := docNode(n, w, dict, classMap, &gparams); err != nil {
			return err
		}
		if parent != nil {
			return gparams.EdgeTmpl.Execute(w, edge{dict[parent], dict[n], position})
		}
		return nil
	})
	if err != nil {
		return err
	}
	_, err = w.Write([]byte("}\n"))
	return err
}

// Dotty is a helper for testing. Given a forest and a testing.T, it will
// create a Graphiviz image of the forest and write it to a file in the
// current folder, choosing a unique file name.
// The image is in SVG format.
//
// If an error occurs, t.Error(…) will be set, causing the test to fail.
//
func Dotty(f tree.Forest, classMap map[string]string, t *testing.T) {
	tmpfile, err := os.CreateTemp(".", "forest.*.dot")
	if err != nil {
		t.Error(err)
		return
	}
	defer func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name()) // clean up
	}()
	t.Logf("writing forest digraph to %s\n", tmpfile.Name())
	if err := ToGraphViz(f, tmpfile, classMap, nil); err != nil {
		t.Error(err)
		return
	}
	outOption := fmt.Sprintf("-o%s.svg", tmpfile.Name())
	cmd := exec.Command("dot", "-Tsvg", outOption, tmpfile.Name())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	t.Logf("writing forest image to %s.svg\n", tmpfile.Name())
	if err := cmd.Run(); err != nil {
		t.Error(err.Error())
	}
}

type node struct {
	N     *tree.Node
	Name  string
	Class string
}

func docNode(n *tree.Node, w io.Writer, dict map[*tree.Node]string, classMap map[string]string,
	gparams *graphParamsType) error {
	//
	name := fmt.Sprintf("node%05d", len(dict)+1)
	dict[n] = name
	if err := gparams.NodeTmpl.Execute(w, &node{n, name, classMap[n.ID]}); err != nil {
		return err
	}
	return docStyles(n, name, w, gparams)
}

type propertyGroup struct {
	ID         string
	Name       string
	Properties []style.KeyValue
}

func groups(n *tree.Node, name string) map[string]*propertyGroup {
	pgs := make(map[string]*propertyGroup)
	for _, kv := range style.Declarations(n.Props, style.DefaultUnit) {
		g := style.GroupNameFromPropertyKey(kv.Key)
		pg, ok := pgs[g]
		if !ok {
			pg = &propertyGroup{ID: "pg_" + name + "_" + strings.ToLower(g), Name: g}
			pgs[g] = pg
		}
		pg.Properties = append(pg.Properties, kv)
	}
	return pgs
}

func docStyles(n *tree.Node, name string, w io.Writer, gparams *graphParamsType) error {
	pgs := groups(n, name)
	var prev *propertyGroup
	for _, s := range gparams.StyleGroups {
		pg := pgs[s]
		if pg == nil {
			continue
		}
		if err := gparams.StylegroupTmpl.Execute(w, pg); err != nil {
			return err
		}
		var err error
		if prev == nil {
			err = gparams.PgedgeTmpl.Execute(w, pgedge{name, pg})
		} else {
			err = gparams.PgpgTmpl.Execute(w, []*propertyGroup{prev, pg})
		}
		if err != nil {
			return err
		}
		prev = pg
	}
	return nil
}

type edge struct {
	N1, N2   string
	Position int
}

type pgedge struct {
	Name      string
	PropGroup *propertyGroup
}

func shortText(n *tree.Node) string {
	text, _ := n.Props["content"].(string)
	if text == "" {
		text, _ = n.Props["label"].(string)
	}
	s := "\\\""
	if len(text) > 10 {
		s += text[:10] + "...\\\""
	} else {
		s += text + "\\\""
	}
	s = strings.Replace(s, "\n", `\\n`, -1)
	s = strings.Replace(s, "\t", `\\t`, -1)
	s = strings.Replace(s, " ", "␣", -1)
	return s
}

// --- Templates --------------------------------------------------------

const graphHeadTmpl = `digraph g {
  graph [labelloc="t" label="" splines=true overlap=false rankdir = "LR"];
  graph [fontname = "{{ .Fontname }}" fontsize=14] ;
   node [fontname = "{{ .Fontname }}" fontsize=14] ;
   edge [fontname = "{{ .Fontname }}" fontsize=14] ;
`

const docNodeTmpl = `{{ if .N.IsLeaf }}
{{ .Name }}	[ label="{{ .N.Type }} {{ .N.ID }}\n{{ shortstring .N }}{{ with .Class }}\n.{{ . }}{{ end }}" shape=box style=filled fillcolor=grey95 fontsize=11.0 ] ;
{{ else }}
{{ .Name }}	[ label="{{ .N.Type }} {{ .N.ID }}{{ with .Class }}\n.{{ . }}{{ end }}" shape=ellipse style=filled fillcolor=lightblue3 ] ;
{{ end }}
`

const styleGroupTmpl = `{{ .ID }} [ style="filled" penwidth=1 fillcolor="ivory3" shape="Mrecord" fontsize=12
    label=<<table border="0" cellborder="0" cellpadding="2" cellspacing="0" bgcolor="ivory3">
      <tr><td bgcolor="azure4" align="center" colspan="2"><font color="white">{{ .Name }}</font></td></tr>
      {{ range .Properties }}
      <tr><td align="right">{{ .Key }}:</td><td>{{ .Value }}</td></tr>
      {{ else }}
      <tr><td colspan="2">no styles</td></tr>
      {{ end }}
    </table>> ] ;
`

const docEdgeTmpl = `{{ .N1 }} -> {{ .N2 }} [weight=1 label="{{ .Position }}"] ;
`

const pgEdgeTmpl = `{{ .Name }} -> {{ .PropGroup.ID }} [dir=none weight=1 style="dashed"] ;
`

const pgpgEdgeTmpl = `{{ (index . 0).ID }} -> {{ (index . 1).ID }} [dir=none weight=1 style="dashed"] ;
`
