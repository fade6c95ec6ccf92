package detector

import (
	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/graph"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/templates"
	"github.com/HendryAvila/specgap/internal/textutil"
)

func shareRef(a, b *model.UndefinedElement) bool {
	return (a.EntityID != "" && a.EntityID == b.EntityID) ||
		(a.ActionID != "" && a.ActionID == b.ActionID)
}

// conflicting reports whether a declared conflict pair covers a and b,
// at category or subcategory level.
func (d *Detector) conflicting(a, b *model.UndefinedElement) bool {
	for _, x := range []string{a.Category, a.Key()} {
		for _, y := range []string{b.Category, b.Key()} {
			if d.conflicts[[2]string{x, y}] {
				return true
			}
		}
	}
	return false
}

// group partitions the elements into connected components and fills
// each element's cross references with the rest of its group.
//
// A group containing a declared conflict pair is mutually exclusive. A
// group spanning categories is dependent only when some pair shares an
// entity or action; one joined across categories by keyword overlap
// alone stays related, so it is not marked for joint resolution.
func (d *Detector) group(els []model.UndefinedElement) []model.ElementGroup {
	n := len(els)
	keywords := make([]map[string]bool, n)
	for i := range els {
		keywords[i] = textutil.Keywords(els[i].Title+" "+els[i].Context.Text, d.stopwords)
	}

	uf := graph.NewUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if shareRef(&els[i], &els[j]) || textutil.Jaccard(keywords[i], keywords[j]) >= d.opts.KeywordOverlap {
				uf.Union(i, j)
			}
		}
	}

	groups := []model.ElementGroup{}
	for gi, comp := range uf.Components() {
		g := model.ElementGroup{ID: model.SeqID("G", gi+1), Relationship: model.GroupRelated}
		cats := map[string]bool{}
		conflict, linked := false, false
		for x, i := range comp {
			g.Members = append(g.Members, els[i].ID)
			cats[els[i].Category] = true
			for _, j := range comp[x+1:] {
				conflict = conflict || d.conflicting(&els[i], &els[j])
				linked = linked || shareRef(&els[i], &els[j])
			}
		}
		switch {
		case conflict:
			g.Relationship = model.GroupMutuallyExclusive
		case len(cats) > 1 && linked:
			g.Relationship = model.GroupDependent
		}
		g.ResolveTogether = len(comp) >= 2 && g.Relationship != model.GroupRelated

		for _, i := range comp {
			for _, id := range g.Members {
				if id != els[i].ID {
					els[i].CrossReferences = append(els[i].CrossReferences, id)
				}
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// questions renders the pool for key, capped at MaxQuestions and padded
// from the fallback pool. Duplicate renderings are dropped.
func (d *Detector) questions(key string, terms map[string]string) []model.Question {
	out := []model.Question{}
	seen := map[string]bool{}
	add := func(q config.QuestionTemplate) {
		if len(out) >= d.opts.MaxQuestions {
			return
		}
		text := templates.Substitute(q.Text, terms)
		if seen[text] {
			return
		}
		seen[text] = true
		out = append(out, model.Question{
			Text:             text,
			Type:             q.Type,
			SuggestedAnswers: append([]string(nil), q.SuggestedAnswers...),
		})
	}
	for _, q := range d.rules.Questions[key] {
		add(q)
	}
	for _, q := range d.rules.FallbackQuestions {
		add(q)
	}
	return out
}
