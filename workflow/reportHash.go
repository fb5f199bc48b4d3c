package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"bitbucket.org/mmdatafocus/sav_backend/models"
)

// NormalizeReport returns a copy of the report with unusable parts lines
// dropped: empty name or quantity <= 0. Lines without a catalog PartId are
// kept (they price into the financials) but never reach the ledger.
func NormalizeReport(report *models.InterventionReport) *models.InterventionReport {
	if report == nil {
		return nil
	}
	normalized := *report
	normalized.PartsUsed = make([]models.UsedPart, 0, len(report.PartsUsed))
	for _, line := range report.PartsUsed {
		if strings.TrimSpace(line.Name) == "" || line.Quantity <= 0 {
			continue
		}
		normalized.PartsUsed = append(normalized.PartsUsed, line)
	}
	return &normalized
}

// consumableLines are the normalized lines that participate in ledger
// consumption: resolvable PartId and quantity > 0.
func consumableLines(report *models.InterventionReport) []models.UsedPart {
	lines := make([]models.UsedPart, 0, len(report.PartsUsed))
	for _, line := range report.PartsUsed {
		if line.PartId != nil && *line.PartId > 0 && line.Quantity > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// ReportHash derives the idempotency key for a submission: a content hash of
// the fields that determine the ledger effect and the report body. Two
// submissions with identical content share a key, so a retry (or an unchanged
// resubmission) cannot consume stock twice; a corrected report hashes to a new
// key and consumes the corrected lines.
func ReportHash(report *models.InterventionReport) string {
	type hashLine struct {
		PartId   int    `json:"part_id"`
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	}
	lines := make([]hashLine, 0, len(report.PartsUsed))
	for _, line := range report.PartsUsed {
		partId := 0
		if line.PartId != nil {
			partId = *line.PartId
		}
		lines = append(lines, hashLine{
			PartId:   partId,
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.UnitPrice.String(),
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].PartId != lines[j].PartId {
			return lines[i].PartId < lines[j].PartId
		}
		return lines[i].Name < lines[j].Name
	})

	canonical := struct {
		EquipmentStatus models.EquipmentStatus `json:"equipment_status"`
		Diagnostic      string                 `json:"diagnostic"`
		Procedure       string                 `json:"procedure"`
		Actions         []string               `json:"actions"`
		Warranty        *bool                  `json:"warranty"`
		Lines           []hashLine             `json:"lines"`
	}{
		EquipmentStatus: report.EquipmentStatus,
		Diagnostic:      report.DetailedDiagnostic,
		Procedure:       report.RepairProcedure,
		Actions:         report.ActionsTaken,
		Warranty:        report.IsWarrantyValid,
		Lines:           lines,
	}

	raw, err := json.Marshal(canonical)
	if err != nil {
		// Marshal of plain structs cannot fail; keep a deterministic fallback anyway.
		raw = []byte(fmt.Sprintf("%+v", canonical))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
