package douceuradapter

import (
	"strings"
	"testing"

	"github.com/npillmayer/pagedoc/style"
	"github.com/npillmayer/pagedoc/style/cssom"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestBuildAndPrint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.style")
	defer teardown()
	//
	sheet := New()
	assert.True(t, sheet.Empty())
	sheet.AddRule(".p-a", []style.KeyValue{{Key: "background-color", Value: "#fff"}})
	sheet.AddMedia("(max-width: 640px)", NewRule(".p-a", []style.KeyValue{{Key: "width", Value: "100%"}}))
	expected := ".p-a {\n  background-color: #fff;\n}\n" +
		"@media (max-width: 640px) {\n  .p-a {\n    width: 100%;\n  }\n}"
	assert.Equal(t, expected, sheet.String())
	rules := sheet.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "", rules[0].Media())
	assert.Equal(t, "(max-width: 640px)", rules[1].Media())
	r, ok := cssom.Find(sheet, ".p-a", "(max-width: 640px)")
	require.True(t, ok)
	assert.Equal(t, style.Property("100%"), r.Value("width"))
}

func TestAddMediaReusesBlock(t *testing.T) {
	sheet := New()
	sheet.AddMedia("(max-width: 1024px)", NewRule(".p-a", []style.KeyValue{{Key: "width", Value: "1px"}}))
	sheet.AddMedia("(max-width: 1024px)", NewRule(".p-b", []style.KeyValue{{Key: "width", Value: "2px"}}))
	assert.Len(t, sheet.Stylesheet().Rules, 1)
	assert.Len(t, sheet.Rules(), 2)
}

func TestParseDeclarations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.style")
	defer teardown()
	//
	kv, err := ParseDeclarations("Color: red; margin: 0 auto !important")
	require.NoError(t, err)
	assert.Equal(t, []style.KeyValue{
		{Key: "color", Value: "red"},
		{Key: "margin", Value: "0 auto !important"},
	}, kv)
	kv, err = ParseDeclarations("   ")
	assert.NoError(t, err)
	assert.Nil(t, kv)
	_, err = ParseDeclarations("color: red } body { color: blue")
	assert.Error(t, err)
}

func TestImportantSurvivesRoundTrip(t *testing.T) {
	sheet := New()
	sheet.AddRule(".x", []style.KeyValue{{Key: "margin", Value: "0 !important"}})
	reparsed, err := Parse(sheet.String())
	require.NoError(t, err)
	r, ok := cssom.Find(reparsed, ".x", "")
	require.True(t, ok)
	assert.True(t, r.IsImportant("margin"))
	assert.Equal(t, style.Property("0"), r.Value("margin"))
	assert.Equal(t, []string{"margin"}, r.Properties())
}

func TestAppendRules(t *testing.T) {
	a, b := New(), New()
	a.AddRule(".a", []style.KeyValue{{Key: "color", Value: "red"}})
	b.AddRule(".b", []style.KeyValue{{Key: "color", Value: "blue"}})
	a.AppendRules(b)
	assert.Len(t, a.Rules(), 2)
}

func TestExtractStyleElements(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "pagedoc.style")
	defer teardown()
	//
	doc := `<html><head><style>.p-a { color: red; }</style></head><body><p class="p-a">x</p></body></html>`
	h, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	sheets := ExtractStyleElements(h)
	require.Len(t, sheets, 1)
	r, ok := cssom.Find(sheets[0], ".p-a", "")
	require.True(t, ok)
	assert.Equal(t, style.Property("red"), r.Value("color"))
}
