package model

import (
	"fmt"
	"strings"
)

// ColumnKind describes how a column is represented in the encoded row.
type ColumnKind string

const (
	ColumnNumeric     ColumnKind = "numeric"
	ColumnBinary      ColumnKind = "binary"
	ColumnCategorical ColumnKind = "categorical"
)

// BinaryEncoding selects how boolean features are written into the row.
type BinaryEncoding string

const (
	EncodingInt  BinaryEncoding = "int"  // 0 / 1
	EncodingBool BinaryEncoding = "bool" // false / true
)

// Column is one input feature the classifier expects.
type Column struct {
	Name       string
	Kind       ColumnKind
	Encoding   BinaryEncoding
	Categories []string
}

// Row is a single encoded input row keyed by column name. Values are float64
// for numeric columns, int or bool for binary columns and string for
// categorical columns.
type Row map[string]any

// FeatureSchema is the ordered column layout a classifier was trained on.
type FeatureSchema struct {
	columns []Column
}

// NewFeatureSchema validates the column definitions.
func NewFeatureSchema(columns ...Column) (FeatureSchema, error) {
	if len(columns) == 0 {
		return FeatureSchema{}, fmt.Errorf("feature schema needs at least one column")
	}

	seen := make(map[string]struct{}, len(columns))
	out := make([]Column, 0, len(columns))
	for _, c := range columns {
		if c.Name == "" {
			return FeatureSchema{}, fmt.Errorf("feature schema column name is required")
		}
		if _, dup := seen[c.Name]; dup {
			return FeatureSchema{}, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}

		switch c.Kind {
		case ColumnNumeric:
		case ColumnBinary:
			switch c.Encoding {
			case "":
				c.Encoding = EncodingInt
			case EncodingInt, EncodingBool:
			default:
				return FeatureSchema{}, fmt.Errorf("column %q: unknown binary encoding %q", c.Name, c.Encoding)
			}
		case ColumnCategorical:
			if len(c.Categories) == 0 {
				return FeatureSchema{}, fmt.Errorf("column %q: categorical column needs categories", c.Name)
			}
			c.Categories = append([]string(nil), c.Categories...)
		default:
			return FeatureSchema{}, fmt.Errorf("column %q: unknown kind %q", c.Name, c.Kind)
		}
		out = append(out, c)
	}

	return FeatureSchema{columns: out}, nil
}

// DefaultFeatureSchema is the seven-column layout of the patient form with
// binary features encoded as 0/1.
func DefaultFeatureSchema() FeatureSchema {
	genders := make([]string, 0, len(Genders))
	for _, g := range Genders {
		genders = append(genders, string(g))
	}
	statuses := make([]string, 0, len(SmokingStatuses))
	for _, s := range SmokingStatuses {
		statuses = append(statuses, string(s))
	}

	schema, err := NewFeatureSchema(
		Column{Name: FeatureAge, Kind: ColumnNumeric},
		Column{Name: FeatureHypertension, Kind: ColumnBinary, Encoding: EncodingInt},
		Column{Name: FeatureHeartDisease, Kind: ColumnBinary, Encoding: EncodingInt},
		Column{Name: FeatureAvgGlucoseLevel, Kind: ColumnNumeric},
		Column{Name: FeatureBMI, Kind: ColumnNumeric},
		Column{Name: FeatureGender, Kind: ColumnCategorical, Categories: genders},
		Column{Name: FeatureSmokingStatus, Kind: ColumnCategorical, Categories: statuses},
	)
	if err != nil {
		panic(err)
	}
	return schema
}

// Columns returns a copy of the column definitions in order.
func (s FeatureSchema) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

// IsZero returns true if the schema has no columns.
func (s FeatureSchema) IsZero() bool {
	return len(s.columns) == 0
}

// Encode builds the classifier input row for r. It returns an
// *InputMismatchError when a column names an unknown feature, the feature's
// kind differs from the column's, or a category was not seen at training time.
func (s FeatureSchema) Encode(r FeatureRecord) (Row, error) {
	if s.IsZero() {
		return nil, &InputMismatchError{Reason: "model declares no input columns"}
	}

	row := make(Row, len(s.columns))
	for _, c := range s.columns {
		kind, ok := featureKinds[c.Name]
		if !ok {
			return nil, &InputMismatchError{Column: c.Name, Reason: "no such feature in the patient record"}
		}
		if kind != c.Kind {
			return nil, &InputMismatchError{
				Column: c.Name,
				Reason: fmt.Sprintf("model expects a %s column, the feature is %s", c.Kind, kind),
			}
		}

		switch c.Kind {
		case ColumnNumeric:
			row[c.Name] = r.numeric(c.Name)
		case ColumnBinary:
			v := r.binary(c.Name)
			if c.Encoding == EncodingBool {
				row[c.Name] = v
			} else {
				row[c.Name] = boolToInt(v)
			}
		case ColumnCategorical:
			v := r.categorical(c.Name)
			if !contains(c.Categories, v) {
				return nil, &InputMismatchError{
					Column: c.Name,
					Reason: fmt.Sprintf("category %q was not seen at training time (known: %s)", v, strings.Join(c.Categories, ", ")),
				}
			}
			row[c.Name] = v
		}
	}

	return row, nil
}

var featureKinds = map[string]ColumnKind{
	FeatureAge:             ColumnNumeric,
	FeatureHypertension:    ColumnBinary,
	FeatureHeartDisease:    ColumnBinary,
	FeatureAvgGlucoseLevel: ColumnNumeric,
	FeatureBMI:             ColumnNumeric,
	FeatureGender:          ColumnCategorical,
	FeatureSmokingStatus:   ColumnCategorical,
}

func (r FeatureRecord) numeric(name string) float64 {
	switch name {
	case FeatureAge:
		return float64(r.age)
	case FeatureAvgGlucoseLevel:
		return r.avgGlucoseLevel
	default:
		return r.bmi
	}
}

func (r FeatureRecord) binary(name string) bool {
	if name == FeatureHypertension {
		return r.hypertension
	}
	return r.heartDisease
}

func (r FeatureRecord) categorical(name string) string {
	if name == FeatureGender {
		return string(r.gender)
	}
	return string(r.smokingStatus)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
