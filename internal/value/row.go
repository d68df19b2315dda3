package value

// ColumnType is the declared type tag for a schema column, or Dynamic when
// the column's type is not pinned at declaration time.
type ColumnType string

const (
	TypeBool     ColumnType = "bool"
	TypeInt      ColumnType = "int"
	TypeLong     ColumnType = "long" // spec's Open Question: unified with TypeInt at the value level
	TypeFloat    ColumnType = "float"
	TypeDouble   ColumnType = "double"
	TypeString   ColumnType = "string"
	TypeDateTime ColumnType = "datetime"
	TypeArray    ColumnType = "array"
	TypeObject   ColumnType = "object"
	TypeDynamic  ColumnType = "dynamic"
)

// Column is one entry of a Schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered list of columns a Row-set carries. Operators other
// than project/project-remove/project-rename/project-keep/summarize/lookup/
// join pass their input Schema through unchanged.
type Schema struct {
	Columns []Column
}

// Index returns the position of name in the schema, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) Has(name string) bool { return s.Index(name) >= 0 }

func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Clone returns a schema with an independent backing slice, so downstream
// operators that append/remove columns never alias an upstream operator's
// schema.
func (s Schema) Clone() Schema {
	cols := make([]Column, len(s.Columns))
	copy(cols, s.Columns)
	return Schema{Columns: cols}
}

// Row is a mapping from column name to Value. A Row's own column ordering is
// defined by the row-set's Schema, not by the Row itself — Row is a plain
// lookup table.
type Row map[string]Value

// Clone returns a shallow copy of r (Values are immutable, so a shallow copy
// is a full logical copy).
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Ordered returns r's values in schema column order, substituting Null for
// any column absent from r.
func (r Row) Ordered(s Schema) []Value {
	out := make([]Value, len(s.Columns))
	for i, c := range s.Columns {
		if v, ok := r[c.Name]; ok {
			out[i] = v
		} else {
			out[i] = Null()
		}
	}
	return out
}
