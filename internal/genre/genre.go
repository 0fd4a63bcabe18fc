// Package genre defines the fixed set of classical poetic forms a poem can be
// generated in.
package genre

// Genre is an immutable descriptor of a poetic form: Rows lines of Cols
// characters, each line followed by one slot reserved for punctuation.
type Genre struct {
	Key  string // enum name, e.g. "WUJUE"
	Name string // display name, e.g. "五言绝句"
	Rows int
	Cols int
}

// Length is the total number of character slots in the form.
func (g Genre) Length() int {
	return g.Rows * (g.Cols + 1)
}

// LineWidth is the number of slots per line including the punctuation slot.
func (g Genre) LineWidth() int {
	return g.Cols + 1
}

func (g Genre) String() string {
	return g.Key
}

// IsZero reports whether g is the zero value.
func (g Genre) IsZero() bool {
	return g == Genre{}
}

var (
	WuJue = Genre{Key: "WUJUE", Name: "五言绝句", Rows: 4, Cols: 5}
	QiJue = Genre{Key: "QIJUE", Name: "七言绝句", Rows: 4, Cols: 7}
	WuLv  = Genre{Key: "WULV", Name: "五言律诗", Rows: 8, Cols: 5}
	QiLv  = Genre{Key: "QILV", Name: "七言律诗", Rows: 8, Cols: 7}
)

// All returns every known genre in declaration order.
func All() []Genre {
	return []Genre{WuJue, QiJue, WuLv, QiLv}
}
