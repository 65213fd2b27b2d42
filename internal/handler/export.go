package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/fiberbendr/OurShopper/internal/models"
	"github.com/fiberbendr/OurShopper/internal/store"
)

// ExportHandler serves purchase downloads, one row per line item.
type ExportHandler struct {
	Store store.Store
}

func NewExportHandler(st store.Store) *ExportHandler {
	return &ExportHandler{Store: st}
}

var exportHeader = []string{"Date", "Place", "Payment Type", "Check Number", "Category", "Price"}

// flattenRows turns purchases into flat export rows, line item by line item.
func flattenRows(purchases []models.Purchase) [][]string {
	var rows [][]string
	for _, p := range purchases {
		checkNumber := ""
		if p.CheckNumber != nil {
			checkNumber = *p.CheckNumber
		}
		for _, item := range p.LineItems {
			rows = append(rows, []string{
				p.Date.Format("2006-01-02"),
				p.Place,
				p.PaymentType,
				checkNumber,
				item.Category,
				item.Price,
			})
		}
	}
	return rows
}

// ExportCSV streams the purchase list as a CSV download.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	purchases, err := h.Store.ListAll(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("export csv")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"purchases_%s.csv\"",
		time.Now().Format("20060102")))

	// UTF-8 BOM so Excel opens it cleanly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeader)
	for _, row := range flattenRows(purchases) {
		writer.Write(row)
	}
}

// ExportXLSX streams the purchase list as an Excel workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	purchases, err := h.Store.ListAll(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("export xlsx")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
		return
	}

	f := excelize.NewFile()
	sheetName := "Purchases"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		logger.Error().Err(err).Msg("export xlsx")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build workbook"})
		return
	}
	f.SetActiveSheet(index)

	for i, title := range exportHeader {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, title)
	}

	for idx, row := range flattenRows(purchases) {
		for col, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+col, idx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 25)
	f.SetColWidth(sheetName, "C", "C", 15)
	f.SetColWidth(sheetName, "D", "D", 14)
	f.SetColWidth(sheetName, "E", "E", 15)
	f.SetColWidth(sheetName, "F", "F", 10)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"purchases_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		logger.Error().Err(err).Msg("export xlsx write")
	}
}
