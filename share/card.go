package share

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"aichef/models"
)

// QR encodes link as a PNG of size pixels.
func QR(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// CommunityLink is the public page of a shared recipe.
func CommunityLink(publicURL, id string) string {
	return strings.TrimRight(publicURL, "/") + "/community/" + id
}

// PDF renders a one-page recipe card. When link is set a QR code pointing at
// it goes in the top-right corner.
func PDF(r models.Recipe, link string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetTitle(r.RecipeName, true)
	pdf.AddPage()
	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if link != "" {
		qr, err := QR(link, 256)
		if err != nil {
			return nil, err
		}
		imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", imgOpts, bytes.NewReader(qr))
		pdf.ImageOptions("qr", 160, 15, 30, 30, false, imgOpts, 0, link)
	}

	pdf.SetFont("Arial", "B", 20)
	pdf.MultiCell(130, 10, tr(r.RecipeName), "", "L", false)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 8, tr(Byline(r, r.IsShared)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	section := func(title string, lines []string) {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, title, "B", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 11)
		for _, l := range lines {
			pdf.MultiCell(0, 6, tr(l), "", "L", false)
		}
		pdf.Ln(4)
	}

	bullets := func(items []string) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = "• " + it
		}
		return out
	}
	steps := make([]string, len(r.Instructions))
	for i, s := range r.Instructions {
		steps[i] = fmt.Sprintf("%d. %s", i+1, s)
	}

	section("Ingredients", bullets(r.Ingredients))
	section("Instructions", steps)
	if r.HasTips() {
		section("Tips", bullets(r.CookingTips))
	}

	pdf.SetY(-25)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 10, footer, "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render recipe card: %w", err)
	}
	return buf.Bytes(), nil
}
