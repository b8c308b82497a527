// Package testutil builds document fixtures for tests: QR images, encoded rasters and minimal PDFs.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// QRImage renders payload as a grayscale QR code with a quiet zone.
func QRImage(t testing.TB, payload string) *image.Gray {
	t.Helper()
	const size = 320
	bm, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		t.Fatalf("encode qr: %v", err)
	}
	img := image.NewGray(image.Rect(0, 0, bm.GetWidth(), bm.GetHeight()))
	for y := 0; y < bm.GetHeight(); y++ {
		for x := 0; x < bm.GetWidth(); x++ {
			if bm.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// BlankImage is a light gradient with nothing decodable in it.
func BlankImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(200 + (x*40)/w)})
		}
	}
	return img
}

func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func JPEG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// PageImage is one image XObject placed on a PDF page.
type PageImage struct {
	Width, Height int
	Filter        string
	Data          []byte
}

// JPEGImage embeds img as a DCTDecode grayscale XObject.
func JPEGImage(t testing.TB, img *image.Gray) PageImage {
	t.Helper()
	b := img.Bounds()
	return PageImage{Width: b.Dx(), Height: b.Dy(), Filter: "DCTDecode", Data: JPEG(t, img)}
}

// CorruptFlateImage claims FlateDecode but carries bytes that are not a zlib stream.
func CorruptFlateImage(w, h int) PageImage {
	return PageImage{Width: w, Height: h, Filter: "FlateDecode", Data: bytes.Repeat([]byte("not zlib "), 16)}
}

// SinglePagePDF writes a one-page PDF whose page resources hold each image as a
// DCTDecode grayscale XObject, in the given order (object numbers ascending).
func SinglePagePDF(t testing.TB, images ...*image.Gray) []byte {
	t.Helper()
	page := make([]PageImage, 0, len(images))
	for _, img := range images {
		page = append(page, JPEGImage(t, img))
	}
	return MultiPagePDF(t, page)
}

// MultiPagePDF writes one page per argument. Object numbers ascend in page
// order and, within a page, in image order.
func MultiPagePDF(t testing.TB, pages ...[]PageImage) []byte {
	t.Helper()

	var objects [][]byte
	add := func(b []byte) int {
		objects = append(objects, b)
		return len(objects)
	}

	catalog := add(nil)
	root := add(nil)

	var kids bytes.Buffer
	for _, images := range pages {
		page := add(nil)
		fmt.Fprintf(&kids, "%d 0 R ", page)

		var xobjects, content bytes.Buffer
		for i, img := range images {
			var obj bytes.Buffer
			fmt.Fprintf(&obj, "<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /%s /Length %d >>\nstream\n",
				img.Width, img.Height, img.Filter, len(img.Data))
			obj.Write(img.Data)
			obj.WriteString("\nendstream")
			nr := add(obj.Bytes())
			fmt.Fprintf(&xobjects, "/Im%d %d 0 R ", i+1, nr)
			fmt.Fprintf(&content, "q 200 0 0 200 %d 400 cm /Im%d Do Q\n", 50+i*250, i+1)
		}
		contents := add([]byte(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String())))
		objects[page-1] = []byte(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /XObject << %s>> >> /Contents %d 0 R >>",
			root, xobjects.String(), contents))
	}

	objects[catalog-1] = []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", root))
	objects[root-1] = []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(pages)))

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", i+1)
		out.Write(obj)
		out.WriteString("\nendobj\n")
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return out.Bytes()
}
