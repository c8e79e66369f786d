package pdfsvc

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core/fee"
	"github.com/tmalache/chuo/core/grade"
)

// Service renders receipts and grade sheets. Layout is utilitarian;
// callers stream the bytes straight to the response.
type Service struct {
	appName string
}

func NewService(appName string) *Service {
	return &Service{appName: appName}
}

func (svc *Service) newDoc(title string) *gofpdf.Fpdf {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, false)
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, svc.appName)
	doc.Ln(12)
	doc.SetFont("Helvetica", "B", 13)
	doc.Cell(0, 8, title)
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 11)
	return doc
}

// Receipt renders a payment receipt.
func (svc *Service) Receipt(studentName string, f fee.Fee, p fee.Payment) ([]byte, error) {
	doc := svc.newDoc("Payment Receipt")

	rows := [][2]string{
		{"Receipt No", p.ReceiptNumber},
		{"Student", studentName},
		{"Description", f.Description},
		{"Year / Semester", fmt.Sprintf("%d / %d", f.Year, f.Semester)},
		{"Amount Paid", fmt.Sprintf("%.2f", p.Amount)},
		{"Payment Ref", p.PaymentID},
		{"Date", p.PaidAt.Format("2006-01-02 15:04 MST")},
		{"Total", fmt.Sprintf("%.2f", f.TotalAmount)},
		{"Outstanding", fmt.Sprintf("%.2f", f.PendingAmount)},
		{"Status", string(f.Status)},
	}
	for _, row := range rows {
		doc.SetFont("Helvetica", "B", 11)
		doc.Cell(50, 8, row[0])
		doc.SetFont("Helvetica", "", 11)
		doc.Cell(0, 8, row[1])
		doc.Ln(8)
	}
	return output(doc)
}

// GradeSheet renders a student's result view for one (year, semester).
func (svc *Service) GradeSheet(studentName string, res grade.Result) ([]byte, error) {
	doc := svc.newDoc("Grade Sheet")

	doc.SetFont("Helvetica", "B", 11)
	doc.Cell(50, 8, "Student")
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 8, studentName)
	doc.Ln(8)
	doc.SetFont("Helvetica", "B", 11)
	doc.Cell(50, 8, "Year / Semester")
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 8, fmt.Sprintf("%d / %d", res.Year, res.Semester))
	doc.Ln(12)

	// table header
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(70, 8, "Course", "1", 0, "", false, 0, "")
	doc.CellFormat(25, 8, "Credits", "1", 0, "C", false, 0, "")
	doc.CellFormat(25, 8, "Grade", "1", 0, "C", false, 0, "")
	doc.CellFormat(25, 8, "Points", "1", 0, "C", false, 0, "")
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 10)
	for _, gv := range res.Grades {
		name := gv.CourseID
		if gv.Course != nil {
			name = fmt.Sprintf("%s (%s)", gv.Course.Name, gv.Course.Code)
		}
		doc.CellFormat(70, 8, name, "1", 0, "", false, 0, "")
		doc.CellFormat(25, 8, fmt.Sprintf("%d", gv.Credits), "1", 0, "C", false, 0, "")
		doc.CellFormat(25, 8, gv.Letter, "1", 0, "C", false, 0, "")
		doc.CellFormat(25, 8, fmt.Sprintf("%.1f", gv.GradePoints), "1", 0, "C", false, 0, "")
		doc.Ln(-1)
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 10, fmt.Sprintf("GPA: %.2f", res.GPA))

	return output(doc)
}

func output(doc *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "rendering pdf")
	}
	return buf.Bytes(), nil
}
