package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"punchcard/internal/middleware"
	"punchcard/internal/repository"
	"punchcard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"
)

// ExportHandler renders the analytics screens as downloadable reports.
type ExportHandler struct {
	analyticsSvc *service.AnalyticsService
	cardRepo     *repository.CardRepository
}

func NewExportHandler(analyticsSvc *service.AnalyticsService, cardRepo *repository.CardRepository) *ExportHandler {
	return &ExportHandler{analyticsSvc: analyticsSvc, cardRepo: cardRepo}
}

type exportData struct {
	cardName  string
	counts    *repository.DashboardCounts
	activity  []repository.DayCount
	customers []repository.TopCustomer
}

func (h *ExportHandler) collect(c *gin.Context) (*exportData, bool) {
	userID := middleware.GetUserID(c)
	card, err := h.cardRepo.GetOwnedBy(cardID(c), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return nil, false
	}
	counts, err := h.analyticsSvc.Dashboard(userID)
	if err != nil {
		serviceError(c, err)
		return nil, false
	}
	activity, err := h.analyticsSvc.StampActivity(card.ID, days(c))
	if err != nil {
		serviceError(c, err)
		return nil, false
	}
	customers, err := h.analyticsSvc.TopCustomers(card.ID, 25)
	if err != nil {
		serviceError(c, err)
		return nil, false
	}
	return &exportData{cardName: card.Name, counts: counts, activity: activity, customers: customers}, true
}

// DownloadExcel exports card analytics as an XLSX workbook.
func (h *ExportHandler) DownloadExcel(c *gin.Context) {
	data, ok := h.collect(c)
	if !ok {
		return
	}
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Loyalty Report")
	if err != nil {
		serviceError(c, err)
		return
	}

	title := sheet.AddRow()
	title.AddCell().Value = fmt.Sprintf("Loyalty report: %s", data.cardName)
	sheet.AddRow().AddCell().Value = "Generated " + time.Now().Format("2006-01-02 15:04")
	sheet.AddRow()

	summary := [][2]string{
		{"Active cards", fmt.Sprintf("%d", data.counts.ActiveCards)},
		{"Customers", fmt.Sprintf("%d", data.counts.TotalCustomers)},
		{"Rewards issued", fmt.Sprintf("%d", data.counts.TotalRewards)},
		{"Rewards redeemed", fmt.Sprintf("%d", data.counts.RedeemedRewards)},
		{"Rewards pending", fmt.Sprintf("%d", data.counts.PendingRewards)},
	}
	for _, kv := range summary {
		row := sheet.AddRow()
		row.AddCell().Value = kv[0]
		row.AddCell().Value = kv[1]
	}
	sheet.AddRow()

	head := sheet.AddRow()
	head.AddCell().Value = "Date"
	head.AddCell().Value = "Stamps"
	for _, day := range data.activity {
		row := sheet.AddRow()
		row.AddCell().Value = day.Date
		row.AddCell().Value = fmt.Sprintf("%d", day.Count)
	}
	sheet.AddRow()

	head = sheet.AddRow()
	head.AddCell().Value = "Customer"
	head.AddCell().Value = "Email"
	head.AddCell().Value = "Stamps"
	head.AddCell().Value = "Rewards"
	for _, tc := range data.customers {
		row := sheet.AddRow()
		row.AddCell().Value = tc.Name
		row.AddCell().Value = tc.Email
		row.AddCell().Value = fmt.Sprintf("%d", tc.CurrentStamps)
		row.AddCell().Value = fmt.Sprintf("%d", tc.TotalRewards)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		serviceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="loyalty-report.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// DownloadPDF exports card analytics as a PDF.
func (h *ExportHandler) DownloadPDF(c *gin.Context) {
	data, ok := h.collect(c)
	if !ok {
		return
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Loyalty report: %s", data.cardName))
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, "Generated "+time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	summary := [][2]string{
		{"Active cards", fmt.Sprintf("%d", data.counts.ActiveCards)},
		{"Customers", fmt.Sprintf("%d", data.counts.TotalCustomers)},
		{"Rewards issued", fmt.Sprintf("%d", data.counts.TotalRewards)},
		{"Rewards redeemed", fmt.Sprintf("%d", data.counts.RedeemedRewards)},
		{"Rewards pending", fmt.Sprintf("%d", data.counts.PendingRewards)},
	}
	for _, kv := range summary {
		pdf.Cell(60, 6, kv[0])
		pdf.Cell(0, 6, kv[1])
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Top customers")
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(60, 6, "Customer")
	pdf.Cell(70, 6, "Email")
	pdf.Cell(25, 6, "Stamps")
	pdf.Cell(25, 6, "Rewards")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	for _, tc := range data.customers {
		pdf.Cell(60, 6, tc.Name)
		pdf.Cell(70, 6, tc.Email)
		pdf.Cell(25, 6, fmt.Sprintf("%d", tc.CurrentStamps))
		pdf.Cell(25, 6, fmt.Sprintf("%d", tc.TotalRewards))
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		serviceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="loyalty-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
