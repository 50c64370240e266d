package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Exporter renders a gathered row set into a downloadable document.
type Exporter interface {
	Export(reportType, format string, data ReportData) ([]byte, string, string, error)
}

type exporter struct{}

func NewExporter() Exporter {
	return &exporter{}
}

func (e *exporter) Export(reportType, format string, data ReportData) ([]byte, string, string, error) {
	timestamp := time.Now().Format("20060102_150405")

	var headers []string
	var rows [][]string

	switch reportType {
	case ReportTypeLocalityCompliance:
		headers = []string{"User ID", "Kind", "Name", "Email", "This Year", "All Time", "Compliant", "Score"}
		for _, r := range data.ComplianceRows {
			rows = append(rows, []string{
				r.UserID, r.UserKind, r.Name, r.Email,
				strconv.Itoa(r.ThisYearCount), strconv.Itoa(r.AllTimeCount),
				strconv.FormatBool(r.IsCompliant), strconv.Itoa(r.Score),
			})
		}

	case ReportTypeEventAttendance:
		headers = []string{"User ID", "Kind", "Presence", "Completion", "Certificate", "Marked At"}
		for _, r := range data.AttendanceRows {
			rows = append(rows, []string{
				r.UserID, r.UserKind, r.PresenceStatus, r.CompletionStatus,
				r.CertificateRef, r.MarkedAt.Format("2006-01-02 15:04:05"),
			})
		}

	case ReportTypeReminderTargets:
		headers = []string{"User ID", "Kind", "Name", "Email", "Phone", "Locality"}
		for _, r := range data.ReminderTargets {
			rows = append(rows, []string{
				r.UserID, r.UserKind, r.Name, r.Email, r.PhoneNumber,
				strconv.FormatUint(uint64(r.LocalityID), 10),
			})
		}

	default:
		return nil, "", "", fmt.Errorf("unsupported report type: %s", reportType)
	}

	switch format {
	case FormatCSV:
		out, err := renderCSV(headers, rows)
		if err != nil {
			return nil, "", "", err
		}
		return out, fmt.Sprintf("%s_%s.csv", reportType, timestamp), "text/csv", nil

	case FormatExcel:
		out, err := renderExcel(data.Title, headers, rows)
		if err != nil {
			return nil, "", "", err
		}
		return out, fmt.Sprintf("%s_%s.xlsx", reportType, timestamp), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	case FormatPDF:
		out, err := renderPDF(data.Title, headers, rows)
		if err != nil {
			return nil, "", "", err
		}
		return out, fmt.Sprintf("%s_%s.pdf", reportType, timestamp), "application/pdf", nil

	default:
		return nil, "", "", fmt.Errorf("unsupported format: %s", format)
	}
}

func renderCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderExcel(title string, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Report"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for rIdx, row := range rows {
		for cIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(cIdx+1, rIdx+2)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPDF(title string, headers []string, rows [][]string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, title)
	pdf.Ln(12)

	width := 270.0 / float64(len(headers))

	pdf.SetFont("Arial", "B", 9)
	for _, h := range headers {
		pdf.CellFormat(width, 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range rows {
		for _, value := range row {
			if len(value) > 40 {
				value = value[:37] + "..."
			}
			pdf.CellFormat(width, 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
