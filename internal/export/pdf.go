// Package export renders orders as printable documents.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"storefront/internal/domain"
)

const (
	maxItemName = 40
	pageBreakY  = 260.0
	dateLayout  = "02/01/2006"
)

// Filename is the download name for an order document.
func Filename(o domain.Order) string {
	return "commande-" + o.OrderNumber + ".pdf"
}

// OrderPDF renders o as an A4 document. now stamps the footer.
func OrderPDF(o domain.Order, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(now)
	pdf.SetTitle("Commande "+o.OrderNumber, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(255, 87, 34)
	pdf.Text(20, 30, "BIBLIO AL-TAWHID")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(20, 40, tr("Librairie & Services d'impression"))
	pdf.Text(20, 48, tr("Témara, Maroc"))

	pdf.SetLineWidth(0.5)
	pdf.Line(20, 55, 190, 55)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(20, 70, tr("COMMANDE #"+o.OrderNumber))

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, 80, "Date: "+o.CreatedAt.Format(dateLayout))
	pdf.Text(20, 88, "Statut: "+strings.ToUpper(string(o.CurrentStatus)))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(20, 105, "INFORMATIONS CLIENT")
	pdf.SetFont("Helvetica", "", 10)
	y := 115.0
	pdf.Text(20, y, tr("Nom: "+o.CustomerInfo.Name))
	pdf.Text(20, y+8, tr("Email: "+o.CustomerInfo.Email))
	pdf.Text(20, y+16, tr("Téléphone: "+o.CustomerInfo.Phone))

	y += 35
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(20, y, "ADRESSE DE LIVRAISON")
	pdf.SetFont("Helvetica", "", 10)
	y += 10
	pdf.Text(20, y, tr(o.ShippingAddress.Address))
	cityLine := o.ShippingAddress.City
	if o.ShippingAddress.PostalCode != "" {
		cityLine += ", " + o.ShippingAddress.PostalCode
	}
	pdf.Text(20, y+8, tr(cityLine))
	pdf.Text(20, y+16, tr(o.ShippingAddress.Country))

	y += 35
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(20, y, tr("ARTICLES COMMANDÉS"))
	y += 15
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(20, y, "Article")
	pdf.Text(120, y, tr("Qté"))
	pdf.Text(140, y, "Prix unit.")
	pdf.Text(170, y, "Total")
	pdf.Line(20, y+3, 190, y+3)

	pdf.SetFont("Helvetica", "", 10)
	y += 10
	for _, item := range o.Items {
		pdf.Text(20, y, tr(TruncateName(item.ProductName)))
		pdf.Text(120, y, fmt.Sprintf("%d", item.Quantity))
		pdf.Text(140, y, item.Price.StringFixed(2)+" DH")
		pdf.Text(170, y, item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2)+" DH")
		y += 8
		if y > pageBreakY {
			pdf.AddPage()
			y = 30
		}
	}

	pdf.Line(120, y+2, 190, y+2)
	y += 10
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(140, y, "TOTAL: "+o.TotalAmount.StringFixed(2)+" DH")

	y += 20
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, y, tr("Méthode de paiement:"))
	pdf.Text(20, y+8, tr(PaymentText(o.PaymentMethod)))

	if o.Notes != "" {
		y += 25
		pdf.Text(20, y, "Notes:")
		pdf.SetXY(20, y+4)
		pdf.MultiCell(170, 5, tr(o.Notes), "", "L", false)
	}

	_, pageHeight := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.Text(20, pageHeight-20, "Merci de votre confiance - Biblio Al-Tawhid")
	pdf.Text(20, pageHeight-12, tr("Document généré le "+now.Format(dateLayout)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render order pdf")
	}
	return buf.Bytes(), nil
}

// TruncateName shortens long product names to fit the items column.
func TruncateName(name string) string {
	r := []rune(name)
	if len(r) <= maxItemName {
		return name
	}
	return string(r[:maxItemName-3]) + "..."
}

// PaymentText is the human label printed for a payment method.
func PaymentText(p domain.PaymentMethod) string {
	if p.Type == domain.PaymentCashOnDelivery {
		return "Paiement à la livraison"
	}
	if p.Label != "" {
		return p.Label
	}
	return p.Type
}
