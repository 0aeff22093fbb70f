package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/npillmayer/pagedoc/tree"
)

// FormatVersion is the version written to exported envelopes. Imports
// accept every version with major version 1.
const FormatVersion = "1.0"

// Envelope types.
const (
	TypeDocument = "document"
	TypeFragment = "node-fragment"
)

// Envelope is the exchange format for documents and single subtrees.
type Envelope struct {
	Version    string       `json:"version" validate:"required,version1"`
	Type       string       `json:"type" validate:"required,oneof=document node-fragment"`
	Forest     *tree.Forest `json:"forest,omitempty" validate:"required_if=Type document"`
	Node       *tree.Node   `json:"node,omitempty" validate:"required_if=Type node-fragment"`
	ExportedAt time.Time    `json:"exportedAt"`
}

// ImportError is returned for data which cannot be imported. The document
// is left untouched.
type ImportError struct {
	Msg string
	Err error
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return "import: " + e.Msg
	}
	return fmt.Sprintf("import: %s: %v", e.Msg, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

var envelopeValidator = newEnvelopeValidator()

func newEnvelopeValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("version1", func(fl validator.FieldLevel) bool {
		major, _, _ := strings.Cut(fl.Field().String(), ".")
		return major == "1"
	})
	assertThat(err == nil, "cannot register envelope validation: %v", err)
	return v
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("pagedoc.document: "+msg, msgargs...)
		panic(msg)
	}
}

// Export returns the document as a JSON envelope of type "document".
func (s *Store) Export() ([]byte, error) {
	forest := s.forest.Clone()
	if forest == nil {
		forest = tree.Forest{}
	}
	env := Envelope{
		Version:    FormatVersion,
		Type:       TypeDocument,
		Forest:     &forest,
		ExportedAt: s.clock().UTC(),
	}
	return json.MarshalIndent(env, "", "  ")
}

// ExportNode returns the subtree rooted at the node with the given id as a
// JSON envelope of type "node-fragment".
func (s *Store) ExportNode(id string) ([]byte, error) {
	n, ok := tree.Find(s.forest, id)
	if !ok {
		return nil, fmt.Errorf("export %q: %w", id, tree.ErrNotFound)
	}
	env := Envelope{
		Version:    FormatVersion,
		Type:       TypeFragment,
		Node:       n.Clone(),
		ExportedAt: s.clock().UTC(),
	}
	return json.MarshalIndent(env, "", "  ")
}

// DecodeEnvelope decodes and checks an envelope, including its payload.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, &ImportError{Msg: "malformed JSON", Err: err}
	}
	if err := envelopeValidator.Struct(env); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return Envelope{}, &ImportError{
				Msg: fmt.Sprintf("invalid envelope field %q (%s)", e.Field(), e.Tag()),
				Err: err,
			}
		}
		return Envelope{}, &ImportError{Msg: "invalid envelope", Err: err}
	}
	var payload tree.Forest
	if env.Type == TypeDocument {
		payload = *env.Forest
	} else {
		payload = tree.Forest{env.Node}
	}
	if err := tree.Validate(payload); err != nil {
		return Envelope{}, &ImportError{Msg: "invalid " + env.Type, Err: err}
	}
	return env, nil
}

// Import reads a JSON envelope. A document replaces the whole forest; a
// node fragment gets fresh ids and is inserted after the selected node, or
// at the end of the root level if nothing is selected. Either way the
// import is a single undoable action.
func (s *Store) Import(data []byte) error {
	env, err := DecodeEnvelope(data)
	if err != nil {
		tracer().Errorf("document %s: %v", s.id, err)
		return err
	}
	if env.Type == TypeDocument {
		s.apply(tree.Normalize(*env.Forest), "import document")
		tracer().Infof("document %s: imported %d node(s)", s.id, s.forest.Count())
		return nil
	}
	fragment := tree.Regenerate(tree.Normalize(tree.Forest{env.Node})[0], s.forest, s.mint)
	parentID, index := tree.Root, len(s.forest)
	if sel, ok := s.Selected(); ok {
		if loc, found := tree.Locate(s.forest, sel); found {
			parentID, index = loc.ParentID(), loc.Index+1
		}
	}
	g, err := tree.InsertAt(s.forest, parentID, index, fragment)
	if err != nil {
		return &ImportError{Msg: "cannot insert fragment", Err: err}
	}
	s.apply(g, "import "+fragment.Type.String())
	s.selected = fragment.ID
	tracer().Infof("document %s: imported fragment %s", s.id, fragment.ID)
	return nil
}
