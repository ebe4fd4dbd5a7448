// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Author is one entry of an entity's AA attribute.
type Author struct {
	ID   int64  `json:"AuId"`
	Name string `json:"DAuN"`
}

// FieldOfStudy is one entry of an entity's F attribute.
type FieldOfStudy struct {
	ID   int64  `json:"FId"`
	Name string `json:"FN"`
}

// Journal is the polymorphic J attribute: a single object, a list of
// objects, or an already-scalar value.
type Journal struct {
	names  []string
	scalar any
	isList bool
}

// UnmarshalJSON accepts all three shapes the API returns for J.
func (j *Journal) UnmarshalJSON(data []byte) error {
	trim := bytes.TrimSpace(data)
	if len(trim) == 0 || bytes.Equal(trim, []byte("null")) {
		return nil
	}

	type journalObject struct {
		Name string `json:"JN"`
	}

	switch trim[0] {
	case '{':
		var obj journalObject
		if err := json.Unmarshal(trim, &obj); err != nil {
			return fmt.Errorf("decoding journal object: %w", err)
		}
		j.names = []string{obj.Name}
	case '[':
		var list []journalObject
		if err := json.Unmarshal(trim, &list); err != nil {
			return fmt.Errorf("decoding journal list: %w", err)
		}
		j.isList = true
		for _, obj := range list {
			j.names = append(j.names, obj.Name)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(trim))
		dec.UseNumber()
		if err := dec.Decode(&j.scalar); err != nil {
			return fmt.Errorf("decoding journal scalar: %w", err)
		}
	}
	return nil
}

// flatten returns the scalar journal value: the object's name, the
// semicolon-joined list names, or the original scalar unchanged.
func (j *Journal) flatten() any {
	if j.scalar != nil {
		return j.scalar
	}
	if j.isList {
		return strings.Join(j.names, ";")
	}
	if len(j.names) == 1 {
		return j.names[0]
	}
	return strings.Join(j.names, ";")
}

// Record is one entity returned by the evaluate endpoint. The nested
// attributes the flattener understands (IA, AA, F, J) are decoded into
// typed fields; everything else lands in the open attribute map. The
// top-level attribute order is preserved so the tabular projection keeps
// the column order the API produced.
type Record struct {
	Abstract      *InvertedAbstract
	Authors       []Author
	FieldsOfStudy []FieldOfStudy
	Journal       *Journal

	keys  []string
	attrs map[string]any
}

// Attr returns the value of a scalar attribute, or nil when absent.
func (r *Record) Attr(code string) any {
	return r.attrs[code]
}

// UnmarshalJSON walks the entity's attributes in order, decoding the four
// nested ones into their typed fields and keeping the rest as-is. Numbers
// decode as json.Number so ids and years survive untruncated.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.attrs = make(map[string]any)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("entity is not a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		r.keys = append(r.keys, key)

		switch key {
		case "IA":
			r.Abstract = &InvertedAbstract{}
			err = dec.Decode(r.Abstract)
		case "AA":
			err = dec.Decode(&r.Authors)
		case "F":
			err = dec.Decode(&r.FieldsOfStudy)
		case "J":
			r.Journal = &Journal{}
			err = dec.Decode(r.Journal)
		default:
			var v any
			err = dec.Decode(&v)
			r.attrs[key] = v
		}
		if err != nil {
			return fmt.Errorf("decoding attribute %q: %w", key, err)
		}
	}

	_, err = dec.Token() // closing '}'
	return err
}

// Row is one flattened entity: scalar values keyed by attribute code, with
// the column order retained.
type Row struct {
	Columns []string
	Values  map[string]any
}

// Flatten reduces the entity's nested attributes to scalars, in the
// entity's own attribute order:
//
//	IA → RA   restored abstract text
//	AA → DAuN, AuId   semicolon-joined names and ids
//	F  → FN   semicolon-joined field-of-study names
//	J  → JN   journal name(s), or the scalar passed through
//
// Attributes outside these four are copied unchanged. The receiver is not
// modified; the raw entity stays available for the JSON export channel.
func (r *Record) Flatten() Row {
	row := Row{Values: make(map[string]any, len(r.keys)+2)}
	add := func(col string, v any) {
		if _, ok := row.Values[col]; !ok {
			row.Columns = append(row.Columns, col)
		}
		row.Values[col] = v
	}

	for _, key := range r.keys {
		switch key {
		case "IA":
			if r.Abstract != nil {
				add("RA", r.Abstract.Restore())
			}
		case "AA":
			names := make([]string, len(r.Authors))
			ids := make([]string, len(r.Authors))
			for i, a := range r.Authors {
				names[i] = a.Name
				ids[i] = strconv.FormatInt(a.ID, 10)
			}
			add("DAuN", strings.Join(names, ";"))
			add("AuId", strings.Join(ids, ";"))
		case "F":
			names := make([]string, len(r.FieldsOfStudy))
			for i, f := range r.FieldsOfStudy {
				names[i] = f.Name
			}
			add("FN", strings.Join(names, ";"))
		case "J":
			if r.Journal != nil {
				add("JN", r.Journal.flatten())
			}
		default:
			add(key, r.attrs[key])
		}
	}
	return row
}
