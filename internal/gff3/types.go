// Package gff3 holds the GFF3 data model and the stateless text layer:
// record decoding, attribute splitting, percent escaping, directive parsing
// and line classification.
//
// See http://www.sequenceontology.org/gff3.shtml
package gff3

// Column positions of a feature line.
const (
	FieldSeqID = iota
	FieldSource
	FieldType
	FieldStart
	FieldEnd
	FieldScore
	FieldStrand
	FieldPhase
	FieldAttributes

	NumFields
)

// Identity-bearing attribute tags.
const (
	AttrID          = "ID"
	AttrParent      = "Parent"
	AttrDerivesFrom = "Derives_from"
)

// Attributes maps an attribute tag to its ordered values.
type Attributes map[string][]string

// Get returns the values for tag, nil when absent.
func (a Attributes) Get(tag string) []string {
	if a == nil {
		return nil
	}
	return a[tag]
}

// First returns the first value for tag, or "".
func (a Attributes) First(tag string) string {
	if vs := a.Get(tag); len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// FeatureLine is one decoded row of the 9-column format.
// Absent string columns are "", absent numeric columns are nil.
type FeatureLine struct {
	SeqID      string     `json:"seq_id,omitempty"`
	Source     string     `json:"source,omitempty"`
	Type       string     `json:"type,omitempty"`
	Start      *int64     `json:"start,omitempty"`
	End        *int64     `json:"end,omitempty"`
	Score      *float64   `json:"score,omitempty"`
	Strand     string     `json:"strand,omitempty"`
	Phase      string     `json:"phase,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`

	// Populated by the resolver. Encoded by the export package, which
	// guards against shared subtrees.
	ChildFeatures   []*Feature `json:"-"`
	DerivedFeatures []*Feature `json:"-"`
}

// ID returns the line's identifier. Only the first ID value is meaningful.
func (l *FeatureLine) ID() string {
	return l.Attributes.First(AttrID)
}

// Parents returns the Parent references of the line.
func (l *FeatureLine) Parents() []string {
	return l.Attributes.Get(AttrParent)
}

// DerivesFrom returns the Derives_from references of the line.
func (l *FeatureLine) DerivesFrom() []string {
	return l.Attributes.Get(AttrDerivesFrom)
}

// Feature is one or more lines sharing an ID, e.g. a multi-exon alignment
// spanning discontinuous coordinates. All lines have the same type.
type Feature struct {
	ID    string
	Lines []*FeatureLine
}

// NewFeature wraps a single line.
func NewFeature(line *FeatureLine) *Feature {
	return &Feature{ID: line.ID(), Lines: []*FeatureLine{line}}
}

// Type returns the feature type shared by all lines.
func (f *Feature) Type() string {
	if len(f.Lines) == 0 {
		return ""
	}
	return f.Lines[len(f.Lines)-1].Type
}

// Children returns the child features recorded on the feature's lines.
func (f *Feature) Children() []*Feature {
	if len(f.Lines) == 0 {
		return nil
	}
	return f.Lines[0].ChildFeatures
}

// Derived returns the features deriving from this one.
func (f *Feature) Derived() []*Feature {
	if len(f.Lines) == 0 {
		return nil
	}
	return f.Lines[0].DerivedFeatures
}

// Walk visits f and every child and derived feature below it, depth first.
// A feature reachable through several paths is visited once.
func (f *Feature) Walk(fn func(*Feature)) {
	seen := make(map[*Feature]bool)
	var visit func(*Feature)
	visit = func(cur *Feature) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		fn(cur)
		for _, c := range cur.Children() {
			visit(c)
		}
		for _, d := range cur.Derived() {
			visit(d)
		}
	}
	visit(f)
}

// Directive is a "##" pragma line.
type Directive struct {
	Name  string `json:"directive"`
	Value string `json:"value,omitempty"`

	// sequence-region
	SeqID string `json:"seq_id,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// genome-build
	Source    string `json:"source,omitempty"`
	BuildName string `json:"build_name,omitempty"`
}

// Comment is a single-"#" line.
type Comment struct {
	Text string `json:"comment"`
}

// Sequence is one FASTA record from the trailing sequence section.
type Sequence struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Sequence    string `json:"sequence"`
}
