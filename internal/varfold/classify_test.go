package varfold

import (
	"testing"
)

func Test_classify(t *testing.T) {
	msa := ">q\nMKKLV\n>h\nMK-LV"
	templates := []Template{{MMCIFPath: "1abc.cif"}}
	empty := ""

	tests := []struct {
		name string
		doc  *Document
		want string
	}{
		{
			"inline msa and templates",
			&Document{Sequences: []Entry{
				{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKKLV", UnpairedMSA: &msa, Templates: &templates}},
			}},
			"inline",
		},
		{
			"inline msa without templates",
			&Document{Sequences: []Entry{
				{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKKLV", UnpairedMSA: &msa}},
			}},
			"inline",
		},
		{
			"path reference only",
			&Document{Sequences: []Entry{
				{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKKLV", MSAPath: "A.a3m"}},
			}},
			"reference",
		},
		{
			"reference wins over inline on another chain",
			&Document{Sequences: []Entry{
				{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKKLV", UnpairedMSA: &msa}},
				{Protein: &Protein{ID: ChainID{"B"}, Sequence: "MAKLV", MSAPath: "B.a3m"}},
			}},
			"reference",
		},
		{
			"empty inline msa is no source",
			&Document{Sequences: []Entry{
				{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKKLV", UnpairedMSA: &empty}},
			}},
			"none",
		},
		{
			"ligand only",
			&Document{Sequences: []Entry{
				{Ligand: &Ligand{ID: ChainID{"L"}, SMILES: "CCO"}},
			}},
			"none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.doc).label(); got != tt.want {
				t.Errorf("classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func Test_classify_templatesFlag(t *testing.T) {
	msa := ">q\nMKKLV\n>h\nMK-LV"
	templates := []Template{}

	// an explicitly empty templates list still counts as "has
	// templates": upstream treats the key's presence as the signal
	withKey := &Document{Sequences: []Entry{
		{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKKLV", UnpairedMSA: &msa, Templates: &templates}},
	}}
	src, ok := classify(withKey).(inlineAlignment)
	if !ok {
		t.Fatal("expected an inline classification")
	}
	if !src.hasTemplates {
		t.Error("empty templates list should count as present")
	}

	withoutKey := &Document{Sequences: []Entry{
		{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKKLV", UnpairedMSA: &msa}},
	}}
	src, ok = classify(withoutKey).(inlineAlignment)
	if !ok {
		t.Fatal("expected an inline classification")
	}
	if src.hasTemplates {
		t.Error("missing templates key should count as absent")
	}
}
