package docdbg

import (
	"bytes"
	"os/exec"
	"strings"
	"testing"

	"github.com/npillmayer/pagedoc/style"
	"github.com/npillmayer/pagedoc/tree"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func forest() tree.Forest {
	return tree.Forest{
		{ID: "sec_1", Type: tree.Section, Props: tree.Props{"backgroundColor": "#eee", "paddingTop": 12}, Children: []*tree.Node{
			{ID: "txt_1", Type: tree.Text, Props: tree.Props{"content": "Hello World", "fontSize": 18}},
		}},
	}
}

func TestToGraphViz(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.docdbg")
	defer teardown()
	//
	var buf bytes.Buffer
	classes := map[string]string{"sec_1": "p-sec_1", "txt_1": "p-txt_1"}
	if err := ToGraphViz(forest(), &buf, classes, nil); err != nil {
		t.Fatal(err)
	}
	dot := buf.String()
	for _, expected := range []string{
		"digraph g {",
		`node00001	[ label="section sec_1\n.p-sec_1"`,
		`node00002	[ label="text txt_1\n\"Hello␣Worl...\"\n.p-txt_1"`,
		`node00001 -> node00002 [weight=1 label="0"]`,
		"node00001 -> pg_node00001_padding",
		"pg_node00001_padding -> pg_node00001_background",
		"<td>12px</td>",
		"pg_node00002_text",
	} {
		if !strings.Contains(dot, expected) {
			t.Errorf("expected DOT output to contain %q", expected)
		}
	}
	if !strings.HasSuffix(dot, "}\n") {
		t.Errorf("expected DOT output to be closed")
	}
}

func TestToGraphVizStyleGroups(t *testing.T) {
	var buf bytes.Buffer
	if err := ToGraphViz(forest(), &buf, nil, []string{style.PGText}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "pg_node00001_") {
		t.Errorf("expected section to have no drawn style groups")
	}
}

func TestDotty(t *testing.T) {
	if _, err := exec.LookPath("dot"); err != nil {
		t.Skip("GraphViz not installed")
	}
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.docdbg")
	defer teardown()
	//
	Dotty(forest(), nil, t)
}
