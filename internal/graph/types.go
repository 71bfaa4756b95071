package graph

import "gffstream/internal/gff3"

// EdgeKind names the attribute an edge was read from.
type EdgeKind string

const (
	EdgeParent      EdgeKind = gff3.AttrParent
	EdgeDerivesFrom EdgeKind = gff3.AttrDerivesFrom
)

// anonPrefix starts the synthetic key of a feature without an ID.
const anonPrefix = "_anon"

// Node is the graph-domain view of a feature. Multi-line features are
// collapsed into one node spanning all of their lines.
type Node struct {
	Key        string          `json:"key"`
	ID         string          `json:"id,omitempty"`
	SeqID      string          `json:"seq_id"`
	Source     string          `json:"source,omitempty"`
	Type       string          `json:"type"`
	Start      *int64          `json:"start,omitempty"`
	End        *int64          `json:"end,omitempty"`
	Score      *float64        `json:"score,omitempty"`
	Strand     string          `json:"strand,omitempty"`
	Phase      string          `json:"phase,omitempty"`
	Attributes gff3.Attributes `json:"attributes,omitempty"`
	LineCount  int             `json:"line_count"`
	// Order is the position at which the node was first added.
	Order int `json:"order"`
}

// Anonymous reports whether the node was given a synthetic key.
func (n *Node) Anonymous() bool { return n.ID == "" }

// Edge points from a child (or derived feature) to the feature it
// references.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}
