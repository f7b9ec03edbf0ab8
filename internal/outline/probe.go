package outline

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/conspectus/conspectus/internal/models"
)

// Probe gathers lightweight document metadata without a full text parse.
// Used by the upload path to validate a PDF before extraction runs.
func Probe(path string) (*models.PDFInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	return &models.PDFInfo{
		PageCount: ctx.PageCount,
		FileSize:  fi.Size(),
		Encrypted: ctx.Encrypt != nil,
	}, nil
}

// hasImageStreams reports whether the document contains image XObjects.
// Distinguishes a scanned document (images, no text layer) from a genuinely
// blank one.
func hasImageStreams(path string) bool {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return false
	}
	return detectImageStreams(ctx)
}

// detectImageStreams checks the optimize tables first, then falls back to a
// raw xref scan for Image subtype stream dicts.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
