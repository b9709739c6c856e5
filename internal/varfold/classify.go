package varfold

// alignmentSource is how a job provides its alignment data: embedded
// in the config, or as a path reference that needs resolution before
// inference. Modeled as a tagged union so the dispatch switch in
// processJob stays exhaustive.
type alignmentSource interface {
	label() string
}

// inlineAlignment means the config embeds a non-empty unpaired MSA.
// Jobs with this source run without any alignment file loading; the
// template search only runs when the config carries no templates key.
type inlineAlignment struct {
	hasTemplates bool
}

func (inlineAlignment) label() string { return "inline" }

// alignmentReference means at least one chain carries only a path to
// an external A3M file, resolved relative to the job directory.
type alignmentReference struct {
	paths []string
}

func (alignmentReference) label() string { return "reference" }

// noAlignment means the config carries no alignment source at all.
// The upstream pipeline may still handle it, so it is dispatched with
// a warning rather than rejected.
type noAlignment struct{}

func (noAlignment) label() string { return "none" }

// classify inspects a fold input's protein entries and tags the job.
// A path reference anywhere wins over inline data: mixed configs need
// the load step for the referenced chains either way.
func classify(doc *Document) alignmentSource {
	var paths []string
	inline := false
	hasTemplates := true

	for _, entry := range doc.Sequences {
		p := entry.Protein
		if p == nil {
			continue
		}

		if p.MSAPath != "" {
			paths = append(paths, p.MSAPath)
		}
		if p.UnpairedMSA != nil && *p.UnpairedMSA != "" {
			inline = true
			if p.Templates == nil {
				hasTemplates = false
			}
		}
	}

	if len(paths) > 0 {
		return alignmentReference{paths: paths}
	}
	if inline {
		return inlineAlignment{hasTemplates: hasTemplates}
	}

	return noAlignment{}
}
