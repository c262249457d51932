package budget

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/frtext"
)

// Header markers live in the first few hundred characters of a page.
const (
	headerWindow  = 600
	funcWindow    = 500
	nonVentWindow = 800
)

// ClassifyPages finds every page belonging to the "Présentation croisée"
// section, continuation pages included.
//
// Phase 1 keeps pages whose header window carries both presentation
// markers, a section marker and a chapter reference. Phase 2 walks the
// range between the first and last labeled page: a page with function
// codes near the top and at least one nature line is a continuation and
// inherits the closest preceding labeled context. A continuation with no
// preceding label is dropped with a warning.
func ClassifyPages(pages []string) []PageContext {
	labeled := make(map[int]PageContext)

	for i, text := range pages {
		head := clip(text, headerWindow)
		upper := strings.ToUpper(head)

		if !strings.Contains(upper, "PRESENTATION CROISEE") {
			continue
		}
		if !strings.Contains(upper, "PRESENTATION DETAILLEE") &&
			!strings.Contains(upper, "PRÉSENTATION DÉTAILLÉE") {
			continue
		}

		var section string
		switch {
		case strings.Contains(upper, "INVESTISSEMENT"):
			section = SectionInvestissement
		case strings.Contains(upper, "FONCTIONNEMENT"):
			section = SectionFonctionnement
		default:
			continue
		}

		ref := frtext.ChapterRefRe.FindString(head)
		if ref == "" {
			continue
		}
		code := ref[strings.Index(ref, ".")+1:]
		if n := strings.Index(code, "-"); n >= 0 {
			code = code[:n]
		}

		labeled[i] = PageContext{
			PageIdx:         i,
			Section:         section,
			ChapitreRef:     ref,
			ChapitreCode:    code,
			ChapitreLibelle: headingLabel(head),
		}
	}

	if len(labeled) == 0 {
		return nil
	}

	first, last := boundsOf(labeled)
	all := make(map[int]PageContext, len(labeled))
	for i, ctx := range labeled {
		all[i] = ctx
	}

	for i := first; i <= last; i++ {
		if _, ok := all[i]; ok {
			continue
		}
		text := pages[i]
		hasFuncs := frtext.FuncCodeRe.MatchString(clip(text, funcWindow))
		hasNatures := hasNatureLine(text)
		if !hasFuncs || !hasNatures {
			continue
		}

		ctx, ok := precedingLabel(labeled, i, first)
		if !ok {
			zap.L().Warn("budget: continuation page without preceding label",
				zap.Int("page", i+1))
			continue
		}
		ctx.PageIdx = i
		ctx.IsContinuation = true
		ctx.ChapitreRef = ""
		all[i] = ctx
	}

	out := make([]PageContext, 0, len(all))
	for _, ctx := range all {
		out = append(out, ctx)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].PageIdx < out[b].PageIdx })
	return out
}

// ScanNonVentilated finds the "OPERATIONS NON VENTILEES" pages of the
// "VOTE DU BUDGET" section. Each page covers one fiscal chapter; the
// section follows from the chapter prefix.
func ScanNonVentilated(pages []string) []NonVentContext {
	var out []NonVentContext
	for i, text := range pages {
		head := clip(text, nonVentWindow)
		upper := strings.ToUpper(head)

		if !strings.Contains(upper, "NON VENTIL") {
			continue
		}
		if !strings.Contains(upper, "VOTE DU BUDGET") {
			continue
		}

		m := frtext.ChapterHeadingRe.FindStringSubmatch(head)
		if m == nil {
			continue
		}
		code := m[1]

		var section string
		switch {
		case strings.HasPrefix(code, "92"):
			section = SectionInvestissement
		case strings.HasPrefix(code, "94"):
			section = SectionFonctionnement
		default:
			continue
		}

		out = append(out, NonVentContext{
			PageIdx:         i,
			Section:         section,
			ChapitreCode:    code,
			ChapitreLibelle: strings.TrimSpace(m[2]),
		})
	}
	return out
}

// headingLabel pulls the chapter label from a FONCTION or CHAPITRE
// heading line, stripping "(suite N)" continuation suffixes.
func headingLabel(head string) string {
	for _, line := range strings.Split(head, "\n") {
		if m := frtext.FunctionHeadingRe.FindStringSubmatch(line); m != nil {
			return frtext.StripSuite(m[1])
		}
		if m := frtext.ChapterHeadingRe.FindStringSubmatch(line); m != nil {
			return frtext.StripSuite(m[2])
		}
	}
	return ""
}

func hasNatureLine(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if frtext.NatureLineRe.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func precedingLabel(labeled map[int]PageContext, idx, first int) (PageContext, bool) {
	for j := idx - 1; j >= first; j-- {
		if ctx, ok := labeled[j]; ok {
			return ctx, true
		}
	}
	return PageContext{}, false
}

func boundsOf(labeled map[int]PageContext) (first, last int) {
	first, last = -1, -1
	for i := range labeled {
		if first == -1 || i < first {
			first = i
		}
		if i > last {
			last = i
		}
	}
	return first, last
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
