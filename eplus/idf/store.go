// Package idf holds model objects as tagged records: each record has an
// object type (e.g. "Zone") and an ordered list of named fields. Typed
// accessors fail with *eplus.FieldError instead of returning zero values
// for missing or malformed fields.
package idf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eplus-sim/eplus-sim/eplus"
)

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value string
}

// Record is a single model object.
type Record struct {
	Type   string
	Fields []Field
}

// NewRecord builds a record from alternating name, value pairs.
func NewRecord(objType string, nameValues ...string) *Record {
	r := &Record{Type: objType}
	for i := 0; i+1 < len(nameValues); i += 2 {
		r.Fields = append(r.Fields, Field{Name: nameValues[i], Value: nameValues[i+1]})
	}
	return r
}

// fieldKey makes "Zone Name", "Zone_Name" and "zone_name" equivalent.
func fieldKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// Get returns the raw value of field and whether it is present.
func (r *Record) Get(field string) (string, bool) {
	k := fieldKey(field)
	for _, f := range r.Fields {
		if fieldKey(f.Name) == k {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value of field, appending it when absent.
func (r *Record) Set(field, value string) {
	k := fieldKey(field)
	for i, f := range r.Fields {
		if fieldKey(f.Name) == k {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: field, Value: value})
}

// Name returns the record's Name field, or "" when it has none.
func (r *Record) Name() string {
	v, _ := r.Get("Name")
	return v
}

func (r *Record) fieldError(field, reason string) *eplus.FieldError {
	return &eplus.FieldError{ObjectType: r.Type, ObjectName: r.Name(), Field: field, Reason: reason}
}

// String returns a required, non-blank field.
func (r *Record) String(field string) (string, error) {
	v, ok := r.Get(field)
	if !ok {
		return "", r.fieldError(field, "is missing")
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", r.fieldError(field, "is blank")
	}
	return v, nil
}

// Float returns a required numeric field.
func (r *Record) Float(field string) (float64, error) {
	s, err := r.String(field)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, r.fieldError(field, fmt.Sprintf("is not a number: %q", s))
	}
	return f, nil
}

// FloatOr returns a numeric field, or def when it is missing or blank.
// A present but unparsable value is still an error.
func (r *Record) FloatOr(field string, def float64) (float64, error) {
	v, ok := r.Get(field)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	return r.Float(field)
}

// Store is an ordered collection of records grouped by object type. Type
// lookups are case-insensitive.
type Store struct {
	order  []string
	byType map[string][]*Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byType: make(map[string][]*Record)}
}

// Add appends records to the store.
func (s *Store) Add(recs ...*Record) {
	for _, r := range recs {
		k := strings.ToUpper(r.Type)
		if _, ok := s.byType[k]; !ok {
			s.order = append(s.order, k)
		}
		s.byType[k] = append(s.byType[k], r)
	}
}

// Objects returns the records of objType in insertion order.
func (s *Store) Objects(objType string) []*Record {
	return s.byType[strings.ToUpper(objType)]
}

// Find returns the record of objType whose Name matches name
// case-insensitively.
func (s *Store) Find(objType, name string) (*Record, bool) {
	for _, r := range s.Objects(objType) {
		if strings.EqualFold(r.Name(), name) {
			return r, true
		}
	}
	return nil, false
}

// Types returns the object types present, in first-seen order (upper case).
func (s *Store) Types() []string {
	return append([]string(nil), s.order...)
}

// Len returns the total number of records.
func (s *Store) Len() int {
	n := 0
	for _, recs := range s.byType {
		n += len(recs)
	}
	return n
}

// LoadStore reads a YAML model document. The document is a mapping from
// object type to a list of field mappings:
//
//	Zone:
//	  - Name: Core
//	    Multiplier: 2
//	BuildingSurface:Detailed:
//	  - Name: Core_Wall_N
//	    Surface_Type: Wall
//	    Outside_Boundary_Condition: Outdoors
//	    Zone_Name: Core
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model %s: %w", path, err)
	}
	s, err := ParseStore(data)
	if err != nil {
		return nil, fmt.Errorf("parsing model %s: %w", path, err)
	}
	return s, nil
}

// ParseStore decodes a YAML model document, keeping object and field order.
func ParseStore(data []byte) (*Store, error) {
	var doc yaml.Node
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	s := NewStore()
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return s, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of object type to objects", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		typeNode, listNode := root.Content[i], root.Content[i+1]
		if listNode.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: %s must be a list of objects", listNode.Line, typeNode.Value)
		}
		for _, objNode := range listNode.Content {
			if objNode.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: %s entries must be field mappings", objNode.Line, typeNode.Value)
			}
			rec := &Record{Type: typeNode.Value}
			for j := 0; j+1 < len(objNode.Content); j += 2 {
				k, v := objNode.Content[j], objNode.Content[j+1]
				if v.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("line %d: %s field %q must be a scalar", v.Line, typeNode.Value, k.Value)
				}
				rec.Fields = append(rec.Fields, Field{Name: k.Value, Value: v.Value})
			}
			s.Add(rec)
		}
	}
	return s, nil
}
