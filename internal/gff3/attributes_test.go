package gff3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Attributes
	}{
		{"empty", "", nil},
		{"placeholder", ".", nil},
		{"single", "ID=gene1", Attributes{"ID": {"gene1"}}},
		{
			"multiple records",
			"ID=mRNA1;Parent=gene1;Name=foo",
			Attributes{"ID": {"mRNA1"}, "Parent": {"gene1"}, "Name": {"foo"}},
		},
		{
			"comma separated values",
			"Parent=a,b,c",
			Attributes{"Parent": {"a", "b", "c"}},
		},
		{
			"repeated tag accumulates",
			"Alias=x;Note=n;Alias=y,z",
			Attributes{"Alias": {"x", "y", "z"}, "Note": {"n"}},
		},
		{
			"empty records and values skipped",
			";;ID=a;;Note=;Dbxref=,,q,;Flag",
			Attributes{"ID": {"a"}, "Dbxref": {"q"}},
		},
		{
			"whitespace trimmed",
			" ID = a ; Parent= b , c ",
			Attributes{"ID": {"a"}, "Parent": {"b", "c"}},
		},
		{
			"unescaped after splitting",
			"Note=a%3Bb%2Cc;Target=EST23 1 21",
			Attributes{"Note": {"a;b,c"}, "Target": {"EST23 1 21"}},
		},
		{
			"value keeps text after first equals",
			"Note=x=y",
			Attributes{"Note": {"x=y"}},
		},
		{
			"trailing line terminator",
			"ID=a\r\n",
			Attributes{"ID": {"a"}},
		},
		{"no values at all", "foo;bar", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAttributes(tt.in))
		})
	}
}

func TestParseAttributesNoEscapes(t *testing.T) {
	assert.Equal(t, Attributes{"Note": {"a%3Bb"}}, ParseAttributesNoEscapes("Note=a%3Bb"))

	in := "ID=x;Parent=p1,p2;Name=plain"
	assert.Equal(t, ParseAttributes(in), ParseAttributesNoEscapes(in))
}

func TestAttributes_Accessors(t *testing.T) {
	var none Attributes
	assert.Nil(t, none.Get("ID"))
	assert.Equal(t, "", none.First("ID"))

	attrs := Attributes{"ID": {"first", "second"}}
	assert.Equal(t, "first", attrs.First("ID"))
}
