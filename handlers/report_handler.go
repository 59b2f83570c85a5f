package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"expensetracker/auth"
	"expensetracker/models"
)

// ReportRenderer turns an expense report into a PDF document.
type ReportRenderer interface {
	Render(ctx context.Context, report *models.ExpenseReport) ([]byte, error)
}

// ReportUploader stores a rendered report and returns its public URL.
type ReportUploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// ReportHandler exports the caller's visible expenses. Without an
// Uploader the PDF is written to the response.
type ReportHandler struct {
	Service  Expenses
	Renderer ReportRenderer
	Uploader ReportUploader
}

func (h *ReportHandler) ExpenseReport(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	report, err := h.Service.Report(r.Context(), caller, listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	pdf, err := h.Renderer.Render(r.Context(), report)
	if err != nil {
		log.Printf("render report for %s: %v", caller.ID, err)
		writeJSON(w, http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: "failed to generate PDF",
		})
		return
	}

	filename := fmt.Sprintf("expenses_%s_%d.pdf", caller.ID, report.GeneratedAt.Unix())
	if h.Uploader == nil {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
		w.WriteHeader(http.StatusOK)
		w.Write(pdf)
		return
	}

	url, err := h.Uploader.Upload(r.Context(), pdf, filename)
	if err != nil {
		log.Printf("upload report %s: %v", filename, err)
		writeJSON(w, http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: "failed to upload PDF",
		})
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Report generated",
		Data: map[string]string{
			"file": filename,
			"url":  url,
		},
	})
}
