// Package submexport renders submissions for spreadsheet tools.
package submexport

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/ikk-contest/backend/subm"
)

const (
	bom       = "\ufeff"
	delimiter = ";"
)

var header = []string{
	"İsim", "Soyisim", "Okul", "Veli Telefon No",
	"Kategori", "Sınıf", "AI Durumu", "Tarih", "Dosya",
}

var istanbul = mustLoadLocation("Europe/Istanbul")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// FileName is the suggested download name for an export made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("ikk_basvurular_%s.csv", t.In(istanbul).Format("2006-01-02"))
}

// WriteCSV writes a BOM-prefixed, semicolon separated table that opens
// correctly in Excel with a Turkish locale.
func WriteCSV(w io.Writer, subms []subm.Subm) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return err
	}
	if err := writeRecord(bw, header); err != nil {
		return err
	}
	for _, s := range subms {
		if err := writeRecord(bw, row(s)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func row(s subm.Subm) []string {
	return []string{
		s.StudentName,
		s.StudentSurname,
		s.School,
		s.ParentPhone,
		s.Category,
		s.Grade + ". Sınıf",
		s.AIScore,
		FormatDate(s.CreatedAt),
		s.FileURL,
	}
}

// FormatDate renders t the way tr-TR renders a short date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(istanbul).Format("02.01.2006")
}

func writeRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := w.WriteString(delimiter); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func quote(field string) string {
	if !strings.ContainsAny(field, delimiter+"\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
