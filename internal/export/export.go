// Package export writes a collector.ResultSet to spreadsheet, CSV or SQLite
// files. Every format uses the same column order.
package export

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/raine/places-collector/internal/collector"
)

// SheetName is the only sheet of an XLSX export.
const SheetName = "Resultados"

// Header is the fixed column order of every export.
var Header = []string{
	"municipio",
	"nome",
	"endereco",
	"rating",
	"categoria",
	"telefone",
	"site",
	"link_google_maps",
}

type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatXLSX, nil
	case FormatXLSX, FormatCSV, FormatSQLite:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (expected xlsx, csv or sqlite)", s)
}

// Values returns the cells of a row in Header order. A missing rating is nil.
func Values(row collector.Row) []any {
	var rating any
	if row.Rating != nil {
		rating = *row.Rating
	}
	return []any{
		row.Municipality,
		row.Name,
		row.Address,
		rating,
		row.CategoryLabel,
		row.Phone,
		row.Website,
		row.MapLink(),
	}
}

// Strings is Values rendered as text, with an empty string for a missing
// rating.
func Strings(row collector.Row) []string {
	rating := ""
	if row.Rating != nil {
		rating = strconv.FormatFloat(*row.Rating, 'f', -1, 64)
	}
	return []string{
		row.Municipality,
		row.Name,
		row.Address,
		rating,
		row.CategoryLabel,
		row.Phone,
		row.Website,
		row.MapLink(),
	}
}

var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// FileName returns resultado_<requester>.<format>. Characters that are not
// allowed in file names are replaced with underscores.
func FileName(requester string, format Format) string {
	name := strings.TrimSpace(requester)
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.Join(strings.Fields(name), "_")
	name = strings.Trim(name, ".")
	if name == "" {
		name = "sem_nome"
	}
	return fmt.Sprintf("resultado_%s.%s", name, format)
}

// WriteFile writes rs to path in the given format.
func WriteFile(ctx context.Context, path string, format Format, rs *collector.ResultSet) error {
	if format == FormatSQLite {
		return WriteSQLite(ctx, path, rs)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch format {
	case FormatCSV:
		err = WriteCSV(f, rs.Rows)
	default:
		err = WriteXLSX(f, rs.Rows)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
