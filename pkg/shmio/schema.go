package shmio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema is a channel shape declared in YAML, the file-driven twin of a
// CreateOrAttach call:
//
//	name: frame
//	elements: 100
//	dtype: float32
//	keywords:
//	  - {name: EXPT, type: float, value: 0.5, comment: exposure time}
//	  - {name: GAIN, type: int, value: 1, comment: sensor gain}
//	  - {name: MODE, type: string, value: fast, comment: readout mode}
type Schema struct {
	Name     string          `yaml:"name"`
	Elements int             `yaml:"elements"`
	DataType string          `yaml:"dtype"`
	Keywords []SchemaKeyword `yaml:"keywords"`
}

// SchemaKeyword is one keyword entry in a schema file. Type is "int",
// "float" or "string" and Value must decode accordingly; integral YAML
// values are accepted for "float".
type SchemaKeyword struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Value   any    `yaml:"value"`
	Comment string `yaml:"comment"`
}

// ParseSchema decodes and validates a YAML schema document.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("shmio: parse schema: %w", err)
	}
	if err := validateName(s.Name); err != nil {
		return nil, err
	}
	if s.Elements < 0 {
		return nil, fmt.Errorf("shmio: negative element count %d", s.Elements)
	}
	if _, err := s.ElementType(); err != nil {
		return nil, err
	}
	if _, err := s.KeywordTable(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchema reads and parses a YAML schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shmio: load schema: %w", err)
	}
	return ParseSchema(data)
}

// ElementType resolves the declared dtype.
func (s *Schema) ElementType() (DataType, error) {
	return ParseDataType(s.DataType)
}

// KeywordTable resolves the declared keywords into a table for
// CreateOrAttach.
func (s *Schema) KeywordTable() ([]Keyword, error) {
	kws := make([]Keyword, 0, len(s.Keywords))
	for i, sk := range s.Keywords {
		kw, err := sk.resolve()
		if err != nil {
			return nil, fmt.Errorf("shmio: schema keyword %d (%s): %w", i, sk.Name, err)
		}
		kws = append(kws, kw)
	}
	return kws, nil
}

// CreateOrAttach opens the channel the schema describes.
func (s *Schema) CreateOrAttach(opts *Options) (*Channel, error) {
	dt, err := s.ElementType()
	if err != nil {
		return nil, err
	}
	kws, err := s.KeywordTable()
	if err != nil {
		return nil, err
	}
	return CreateOrAttach(s.Name, s.Elements, dt, kws, opts)
}

func (sk SchemaKeyword) resolve() (Keyword, error) {
	switch sk.Type {
	case "int":
		switch v := sk.Value.(type) {
		case int:
			return IntKeyword(sk.Name, int64(v), sk.Comment), nil
		case int64:
			return IntKeyword(sk.Name, v, sk.Comment), nil
		}
		return Keyword{}, fmt.Errorf("value %v is not an integer", sk.Value)
	case "float":
		switch v := sk.Value.(type) {
		case float64:
			return FloatKeyword(sk.Name, v, sk.Comment), nil
		case int:
			return FloatKeyword(sk.Name, float64(v), sk.Comment), nil
		}
		return Keyword{}, fmt.Errorf("value %v is not a number", sk.Value)
	case "string":
		if v, ok := sk.Value.(string); ok {
			return StringKeyword(sk.Name, v, sk.Comment), nil
		}
		return Keyword{}, fmt.Errorf("value %v is not a string", sk.Value)
	}
	return Keyword{}, fmt.Errorf("unknown keyword type %q", sk.Type)
}
