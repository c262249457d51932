package budget

import (
	"context"

	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/pdftext"
)

// ExtractDocument runs the full extraction over one budget PDF: the
// ventilated "Présentation croisée" pages and the non-ventilated fiscal
// pages. A document with no recognizable pages yields an empty result,
// not an error.
func ExtractDocument(ctx context.Context, extractor pdftext.Extractor, pdfPath, pdfName string, annee int, tolerance float64) (Result, error) {
	pages, err := extractor.Pages(ctx, pdfPath)
	if err != nil {
		return Result{}, err
	}
	if tolerance <= 0 {
		tolerance = DefaultTotalTolerance
	}

	var res Result

	croisee := ClassifyPages(pages)
	labeled, contin := 0, 0
	for _, p := range croisee {
		if p.IsContinuation {
			contin++
		} else {
			labeled++
		}
	}
	zap.L().Info("budget: classified pages",
		zap.Int("labeled", labeled), zap.Int("continuations", contin))

	prevSens := ""
	for i, pc := range croisee {
		pageLines, sens := ExtractPage(pages[pc.PageIdx], pc, annee, pdfName, prevSens)
		prevSens = sens
		res.Lines = append(res.Lines, pageLines...)

		if w := checkPageTotal(pages[pc.PageIdx], pageLines, pc.PageIdx, tolerance); w != nil {
			res.Warnings = append(res.Warnings, *w)
		}

		// A new labeled page opens a new chapter group: the running flow
		// direction must not leak into it.
		if i+1 < len(croisee) && !croisee[i+1].IsContinuation {
			prevSens = ""
		}
	}
	ventCount := len(res.Lines)

	for _, nc := range ScanNonVentilated(pages) {
		pageLines, warns := ExtractNonVentilated(pages[nc.PageIdx], nc, annee, pdfName)
		res.Lines = append(res.Lines, pageLines...)
		res.Warnings = append(res.Warnings, warns...)
	}

	zap.L().Info("budget: extracted document",
		zap.String("pdf", pdfName),
		zap.Int("annee", annee),
		zap.Int("ventilated", ventCount),
		zap.Int("non_ventilated", len(res.Lines)-ventCount),
		zap.Float64("total_eur", res.TotalAmount()),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}
