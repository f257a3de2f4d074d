package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

const sheetName = "Pengajuan"

var headers = []string{
	"No", "Judul", "Jenis Pengajuan", "Organisasi", "Status",
	"Tahap", "Status Pengerjaan", "Prioritas", "Tanggal Dibuat",
}

// BuildTicketWorkbook renders a ticket list into an Excel workbook for the
// monitoring export. Labels are derived the same way the API derives them.
func BuildTicketWorkbook(tickets []domain.Ticket, policy domain.WorkflowPolicy) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return nil, err
	}
	for col, title := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i := range tickets {
		t := &tickets[i]
		row := i + 2
		values := []any{
			i + 1,
			t.Title,
			t.RequestTypesLabel(),
			string(t.RequesterOrg),
			t.StatusLabel(policy),
			t.StageLabel(),
			t.DevelopmentStatusLabel(),
			t.Priority.Label(),
			t.CreatedAt.Format(time.DateOnly),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheetName, "B", "C", 40); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "D", "I", 24); err != nil {
		return nil, err
	}
	return f, nil
}

// ExportFilename builds the download name with the export date baked in.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("pengajuan-fitur-%s.xlsx", now.Format("2006-01-02"))
}
