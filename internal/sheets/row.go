package sheets

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"WarehouseApp/internal/model"
)

// Column positions of the fixed row layout.
const (
	ColContainerNumber = iota
	ColType
	ColPieceCounts
	ColMaterials
	ColDoorNumber
	ColCompletedAt
	ColShareableLink
	ColIsCompleted
	ColHasDiscrepancies
	ColDiscrepancies

	columnCount
)

// isoMillis: UTC с миллисекундами и суффиксом Z.
const isoMillis = "2006-01-02T15:04:05.000Z"

var pieceRe = regexp.MustCompile(`^(\d+)\s+(.+)$`)

// FormatRow maps a container onto one sheet row. photoPaths, id and the local
// timestamps are not part of the row.
func FormatRow(c model.Container) []string {
	row := make([]string, columnCount)
	row[ColContainerNumber] = c.ContainerNumber
	row[ColType] = string(c.Type)
	row[ColPieceCounts] = FormatPieceCounts(c.PieceCounts)
	row[ColMaterials] = FormatMaterials(c.MaterialsSupplied)
	row[ColDoorNumber] = c.DoorNumber
	if c.CompletedAt != nil {
		row[ColCompletedAt] = c.CompletedAt.UTC().Format(isoMillis)
	}
	row[ColShareableLink] = c.ShareableLink
	row[ColIsCompleted] = strconv.FormatBool(c.IsCompleted)
	if c.HasDiscrepancies() {
		row[ColHasDiscrepancies] = "Yes"
	} else {
		row[ColHasDiscrepancies] = "No"
	}
	row[ColDiscrepancies] = FormatDiscrepancies(c.Discrepancies)
	return row
}

// ParseRow builds a container from a sheet row. Short rows are padded with empty cells.
// ok is false when the row has no container number.
//
// The sheet keeps no id, photos or creation time: id is the container number,
// photoPaths is empty and createdAt/updatedAt (and every discrepancy timestamp) are now.
func ParseRow(row []string, now time.Time) (model.Container, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	number := cell(ColContainerNumber)
	if number == "" {
		return model.Container{}, false
	}
	c := model.New(number, number, model.ParseContainerType(cell(ColType)), cell(ColDoorNumber), now)
	c.PieceCounts = ParsePieceCounts(cell(ColPieceCounts))
	c.MaterialsSupplied = ParseMaterials(cell(ColMaterials))
	if v := cell(ColCompletedAt); v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			c.CompletedAt = &t
		}
	}
	c.ShareableLink = cell(ColShareableLink)
	c.IsCompleted = strings.EqualFold(cell(ColIsCompleted), "true")
	c.Discrepancies = ParseDiscrepancies(cell(ColDiscrepancies), now)
	return c, true
}

// FormatPieceCounts renders "<quantity> <packageType>" entries joined by ", ".
func FormatPieceCounts(pcs []model.PieceCount) string {
	parts := make([]string, 0, len(pcs))
	for _, pc := range pcs {
		parts = append(parts, strconv.Itoa(pc.Quantity)+" "+string(pc.PackageType))
	}
	return strings.Join(parts, ", ")
}

// ParsePieceCounts reverses FormatPieceCounts. Entries that do not look like
// "<digits> <package>" or have a zero quantity are dropped silently.
func ParsePieceCounts(s string) []model.PieceCount {
	out := []model.PieceCount{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		m := pieceRe.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}
		q, err := strconv.Atoi(m[1])
		if err != nil || q <= 0 {
			continue
		}
		out = append(out, model.PieceCount{Quantity: q, PackageType: model.ParsePackageType(m[2])})
	}
	return out
}

// FormatMaterials joins materials with ", ".
func FormatMaterials(ms []model.MaterialType) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, string(m))
	}
	return strings.Join(parts, ", ")
}

// ParseMaterials splits on commas; unknown materials and duplicates are dropped.
func ParseMaterials(s string) []model.MaterialType {
	var c model.Container
	var ms []model.MaterialType
	for _, part := range strings.Split(s, ",") {
		if m, ok := model.LookupMaterialType(part); ok {
			ms = append(ms, m)
		}
	}
	c.SetMaterials(ms)
	return c.MaterialsSupplied
}

// FormatDiscrepancies keeps only descriptions, joined by "; ".
func FormatDiscrepancies(ds []model.Discrepancy) string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, d.Description)
	}
	return strings.Join(parts, "; ")
}

// ParseDiscrepancies splits on ";". Original timestamps and photos are not in the sheet,
// so every entry is stamped with now.
func ParseDiscrepancies(s string, now time.Time) []model.Discrepancy {
	out := []model.Discrepancy{}
	for _, part := range strings.Split(s, ";") {
		d := strings.TrimSpace(part)
		if d == "" {
			continue
		}
		out = append(out, model.Discrepancy{Description: d, Timestamp: now})
	}
	return out
}
