package export

import (
	"testing"
	"time"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

func TestBuildTicketWorkbook(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	devStatus := domain.DevStatusTesting
	tickets := []domain.Ticket{
		{
			Title:             "Integrasi BPJS",
			Status:            domain.StatusApprovedB,
			RequestTypes:      []domain.RequestType{domain.RequestTypeNewFeature},
			RequesterOrg:      domain.OrgRaffa,
			DevelopmentStatus: &devStatus,
			Priority:          domain.PriorityUrgent,
			CreatedAt:         created,
		},
		{
			Title:        "Perbaikan antrian",
			Status:       domain.StatusPending,
			RequesterOrg: domain.OrgWiradadi,
			Priority:     domain.PriorityNormal,
			CreatedAt:    created,
		},
	}

	f, err := BuildTicketWorkbook(tickets, domain.WorkflowPolicy{})
	if err != nil {
		t.Fatalf("BuildTicketWorkbook: %v", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		t.Fatalf("sheet %q missing (index %d, err %v)", sheetName, idx, err)
	}
	if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 {
		t.Error("default sheet should be removed")
	}

	checks := map[string]string{
		"A1": "No",
		"B1": "Judul",
		"B2": "Integrasi BPJS",
		"C2": "Pembuatan Fitur Baru",
		"E2": "Selesai",
		"F2": "Tahap Pengerjaan",
		"G2": "Testing",
		"H2": "Prioritas Cito",
		"I2": "2025-03-14",
		"B3": "Perbaikan antrian",
		"E3": "Menunggu ACC Manager",
		"F3": "Tahap Pengajuan",
		"G3": "",
		"H3": "Prioritas Biasa",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue(sheetName, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s = %q, want %q", cell, got, want)
		}
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 12, 1, 15, 0, 0, 0, time.UTC)
	if got := ExportFilename(now); got != "pengajuan-fitur-2025-12-01.xlsx" {
		t.Errorf("ExportFilename() = %q", got)
	}
}
