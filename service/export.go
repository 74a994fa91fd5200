package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ExportFormat 导出格式
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

// ParseExportFormat 默认 csv
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", invalid("format", "导出格式仅支持 csv / xlsx / pdf")
	}
}

// ContentType 响应头
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

var exportHeaders = []string{"ID", "日期", "状态", "流水类型", "分类", "金额", "备注"}

// 内置 PDF 字体不含中文
var latinHeaders = []string{"ID", "Date", "Status", "Type", "Category", "Amount", "Comment"}

func exportRow(v TransactionView) []string {
	return []string{
		fmt.Sprintf("%d", v.ID),
		v.DateDisplay,
		v.StatusName,
		v.TransactionTypeName,
		v.CategoryName,
		v.Amount,
		v.Comment,
	}
}

// Exporter 把筛选结果与汇总写成文件
type Exporter struct {
	// FontPath 可选 TTF 字体，PDF 输出中文时需要
	FontPath string
}

// Write 按格式写出
func (e Exporter) Write(w io.Writer, format ExportFormat, rows []TransactionView, sum Summary) error {
	switch format {
	case FormatXLSX:
		return e.writeXLSX(w, rows, sum)
	case FormatPDF:
		return e.writePDF(w, rows, sum)
	default:
		return e.writeCSV(w, rows, sum)
	}
}

func summaryLines(sum Summary) [][2]string {
	v := sum.View()
	return [][2]string{
		{"总收入", v.TotalIncome},
		{"总支出", v.TotalExpense},
		{"结余", v.Balance},
		{"笔数", fmt.Sprintf("%d", v.TransactionCount)},
	}
}

var latinSummary = []string{"Income", "Expense", "Balance", "Count"}

func (e Exporter) writeCSV(w io.Writer, rows []TransactionView, sum Summary) error {
	buf := new(bytes.Buffer)
	// BOM，Excel 打开不乱码
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(exportRow(r)); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{}); err != nil {
		return err
	}
	for _, line := range summaryLines(sum) {
		if err := writer.Write([]string{line[0], line[1]}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (e Exporter) writeXLSX(w io.Writer, rows []TransactionView, sum Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "流水"
	f.SetSheetName("Sheet1", sheetName)

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return err
	}

	widths := map[string]float64{"A": 8, "B": 18, "C": 12, "D": 12, "E": 20, "F": 14, "G": 40}
	for col, width := range widths {
		f.SetColWidth(sheetName, col, col, width)
	}

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, r := range rows {
		row := i + 2
		for j, value := range exportRow(r) {
			f.SetCellValue(sheetName, fmt.Sprintf("%c%d", 'A'+j, row), value)
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)
	}

	start := len(rows) + 3
	for i, line := range summaryLines(sum) {
		row := start + i
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), line[0])
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), line[1])
		f.SetCellStyle(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("F%d", row), summaryStyle)
	}

	return f.Write(w)
}

func (e Exporter) writePDF(w io.Writer, rows []TransactionView, sum Summary) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Cash flow", false)

	family := "Helvetica"
	headers := latinHeaders
	title := "Cash flow"
	if e.FontPath != "" {
		pdf.AddUTF8Font("ledger", "", e.FontPath)
		pdf.AddUTF8Font("ledger", "B", e.FontPath)
		family = "ledger"
		headers = exportHeaders
		title = "资金流水"
	}
	// 内置字体只支持 cp1252，无法表示的字符输出为 "."
	text := func(s string) string { return s }
	if family == "Helvetica" {
		text = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", 16)
	pdf.Cell(0, 10, text(title))
	pdf.Ln(12)

	widths := []float64{15, 35, 30, 30, 50, 30, 77}
	pdf.SetFont(family, "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	for _, r := range rows {
		for i, value := range exportRow(r) {
			align := "L"
			if i == 5 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, text(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont(family, "B", 11)
	for i, line := range summaryLines(sum) {
		label := latinSummary[i]
		if family != "Helvetica" {
			label = line[0]
		}
		pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, line[1], "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
