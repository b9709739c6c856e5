package varfold

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testWT builds the wild-type document the templater tests share: one
// protein chain with an inline alignment and one template.
func testWT() *Document {
	msa := ">wt\nMKKLV\n>hit1\nMK-LV\n>hit2\nMAKLV"
	templates := []Template{
		{
			MMCIFPath:       "templates/1abc.cif",
			QueryIndices:    []int{0, 1, 2, 3, 4},
			TemplateIndices: []int{10, 11, 12, 13, 14},
		},
	}

	return &Document{
		Name:       "wt",
		ModelSeeds: []int{1234},
		Sequences: []Entry{
			{
				Protein: &Protein{
					ID:          ChainID{"A"},
					Sequence:    "MKKLV",
					UnpairedMSA: &msa,
					Templates:   &templates,
				},
			},
		},
		Dialect: "alphafold3",
		Version: 1,
	}
}

func TestChainID_roundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"single id stays a string", `"A"`},
		{"list stays a list", `["A","B"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c ChainID
			if err := json.Unmarshal([]byte(tt.raw), &c); err != nil {
				t.Fatal(err)
			}

			out, err := json.Marshal(c)
			if err != nil {
				t.Fatal(err)
			}
			if string(out) != tt.raw {
				t.Errorf("round trip = %s, want %s", out, tt.raw)
			}
		})
	}
}

func TestDocument_Clone(t *testing.T) {
	wt := testWT()

	clone, err := wt.Clone()
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(wt, clone); diff != "" {
		t.Errorf("clone differs from original:\n%s", diff)
	}

	// mutating the clone leaves the original alone
	clone.Sequences[0].Protein.Sequence = "MAKLV"
	if wt.Sequences[0].Protein.Sequence != "MKKLV" {
		t.Error("mutating the clone changed the original")
	}
}

func TestDocument_Marshal_preservesEmptyInline(t *testing.T) {
	// an explicitly empty templates list means "no templates, skip the
	// search" upstream; it must survive a round trip distinct from a
	// missing key
	empty := []Template{}
	doc := &Document{
		Name:       "t",
		ModelSeeds: []int{1},
		Sequences: []Entry{
			{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MK", Templates: &empty}},
		},
		Dialect: "alphafold3",
		Version: 1,
	}

	raw, err := doc.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	parsed := &Document{}
	if err := json.Unmarshal(raw, parsed); err != nil {
		t.Fatal(err)
	}

	p := parsed.Sequences[0].Protein
	if p.Templates == nil {
		t.Error("empty templates list was dropped in the round trip")
	} else if len(*p.Templates) != 0 {
		t.Errorf("templates = %v, want empty", *p.Templates)
	}
}

func Test_checkChainIDs(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr bool
	}{
		{
			"unique ids",
			&Document{
				Name: "ok",
				Sequences: []Entry{
					{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MK"}},
					{Ligand: &Ligand{ID: ChainID{"B"}, SMILES: "CCO"}},
				},
			},
			false,
		},
		{
			"duplicate across entities",
			&Document{
				Name: "dup",
				Sequences: []Entry{
					{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MK"}},
					{Ligand: &Ligand{ID: ChainID{"A"}, SMILES: "CCO"}},
				},
			},
			true,
		},
		{
			"duplicate within one entity's list",
			&Document{
				Name: "dup",
				Sequences: []Entry{
					{Protein: &Protein{ID: ChainID{"A", "A"}, Sequence: "MK"}},
				},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := checkChainIDs(tt.doc); (err != nil) != tt.wantErr {
				t.Errorf("checkChainIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_validateFoldInput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			"valid",
			`{"name":"x","modelSeeds":[1],"sequences":[{"protein":{"id":"A","sequence":"MK"}}],"dialect":"alphafold3","version":1}`,
			false,
		},
		{
			"missing dialect",
			`{"name":"x","modelSeeds":[1],"sequences":[{"protein":{"id":"A","sequence":"MK"}}],"version":1}`,
			true,
		},
		{
			"empty sequences",
			`{"name":"x","modelSeeds":[1],"sequences":[],"dialect":"alphafold3","version":1}`,
			true,
		},
		{
			"chain id longer than one character",
			`{"name":"x","modelSeeds":[1],"sequences":[{"protein":{"id":"AB","sequence":"MK"}}],"dialect":"alphafold3","version":1}`,
			true,
		},
		{
			"unknown entity type",
			`{"name":"x","modelSeeds":[1],"sequences":[{"carbohydrate":{"id":"A"}}],"dialect":"alphafold3","version":1}`,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateFoldInput([]byte(tt.raw)); (err != nil) != tt.wantErr {
				t.Errorf("validateFoldInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
