package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
)

// EmbeddedImage is one raster XObject found on a PDF page. Err is set when
// the object could not be extracted; the rest of the page is still usable.
type EmbeddedImage struct {
	ObjNr    int
	Name     string
	FileType string
	Data     []byte
	Err      error
}

// PageImageSource enumerates the images embedded in the first page of a PDF.
type PageImageSource interface {
	FirstPageImages(ctx context.Context, data []byte) ([]EmbeddedImage, error)
}

// PDFCPUSource reads embedded images with pdfcpu.
type PDFCPUSource struct {
	conf *model.Configuration
}

func NewPDFCPUSource() *PDFCPUSource {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	// image object tables are only built when optimizing for extraction
	cfg.Cmd = model.EXTRACTIMAGES
	return &PDFCPUSource{conf: cfg}
}

// FirstPageImages returns page 1 images in ascending object number order.
// Only a document that cannot be read at all is an error.
func (s *PDFCPUSource) FirstPageImages(_ context.Context, data []byte) (imgs []EmbeddedImage, err error) {
	// pdfcpu can panic on sufficiently broken input
	defer func() {
		if r := recover(); r != nil {
			imgs, err = nil, fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	doc, err := api.ReadValidateAndOptimize(bytes.NewReader(data), s.conf)
	if err != nil {
		return nil, err
	}
	if doc.PageCount < 1 || doc.Optimize == nil {
		return nil, nil
	}

	nrs := pdfcpu.ImageObjNrs(doc, 1)
	sort.Ints(nrs)
	for _, nr := range nrs {
		imgs = append(imgs, firstPageImage(doc, nr))
	}
	return imgs, nil
}

func firstPageImage(doc *model.Context, nr int) (out EmbeddedImage) {
	out.ObjNr = nr
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	obj := doc.Optimize.ImageObjects[nr]
	if obj == nil {
		out.Err = fmt.Errorf("image obj %d not in object table", nr)
		return out
	}
	out.Name = obj.ResourceNames[0]

	img, err := pdfcpu.ExtractImage(doc, obj.ImageDict, false, out.Name, nr, false)
	if err != nil {
		out.Err = err
		return out
	}
	if img == nil || img.Reader == nil {
		out.Err = fmt.Errorf("image obj %d has no extractable data", nr)
		return out
	}
	out.FileType = img.FileType
	if out.Data, err = io.ReadAll(img.Reader); err != nil {
		out.Err = fmt.Errorf("read image obj %d: %w", nr, err)
	}
	return out
}

// extractPDF scans the first page only; later pages are never inspected.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, bool, error) {
	log := common.LoggerFrom(ctx, e.logger)

	imgs, err := e.pages.FirstPageImages(ctx, data)
	if err != nil {
		return "", false, common.KindError(common.ErrCorruptDocument, "open pdf", err)
	}
	log.Debug("pdf first page images", "count", len(imgs))

	for _, img := range imgs {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		if img.Err != nil {
			log.Warn("skipping unextractable embedded image", "obj", img.ObjNr, "name", img.Name, "error", img.Err)
			continue
		}
		payload, ok, err := e.extractImage(img.Data)
		if err != nil {
			// one undecodable image does not condemn the document
			log.Warn("skipping unreadable embedded image", "obj", img.ObjNr, "type", img.FileType, "error", err)
			continue
		}
		if ok {
			return payload, true, nil
		}
	}
	return "", false, nil
}
