package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ikk-contest/backend/moderation"
	"github.com/ikk-contest/backend/subm"
	"github.com/ikk-contest/backend/subm/submexport"
	"github.com/ikk-contest/backend/subm/submsrvc"
	"github.com/ikk-contest/backend/wiring"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func listSubms(ctx context.Context, deps *wiring.Deps, query string) ([]subm.Subm, error) {
	return deps.SubmSrvc().ListSubms.Handle(ctx, submsrvc.ListSubmsParams{Filter: query})
}

var labelColors = map[moderation.Color]text.Colors{
	moderation.ColorRed:   {text.FgRed},
	moderation.ColorGreen: {text.FgGreen},
	moderation.ColorAmber: {text.FgYellow},
}

func colorLabel(val interface{}) string {
	label := fmt.Sprint(val)
	return labelColors[moderation.LabelColor(label)].Sprint(label)
}

func renderTable(w io.Writer, subms []subm.Subm) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	t.AppendHeader(table.Row{"Doğrulama", "Öğrenci", "Okul", "Veli Tel", "Kategori", "AI Durumu", "Tarih"})
	for _, s := range subms {
		t.AppendRow(table.Row{
			s.ValidationID,
			s.StudentName + " " + s.StudentSurname,
			s.School,
			s.ParentPhone,
			s.Category,
			s.AIScore,
			submexport.FormatDate(s.CreatedAt),
		})
	}
	st := submsrvc.CountByCategory(subms)
	t.AppendFooter(table.Row{"", fmt.Sprintf("Toplam %d", st.Total), "", "",
		fmt.Sprintf("%d/%d/%d", st.Painting, st.Poetry, st.Composition), "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "AI Durumu", Transformer: colorLabel},
		{Name: "Okul", WidthMax: 32},
	})
	t.Render()
}

func exportCSV(ctx context.Context, deps *wiring.Deps, query, out string, stdout io.Writer) error {
	subms, err := listSubms(ctx, deps, query)
	if err != nil {
		return err
	}
	srvc := deps.SubmSrvc()
	for i := range subms {
		subms[i] = srvc.WithFreshURL(ctx, subms[i])
	}

	if out == "-" {
		return submexport.WriteCSV(stdout, subms)
	}
	if out == "" {
		out = submexport.FileName(time.Now())
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := submexport.WriteCSV(f, subms); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d başvuru %s dosyasına yazıldı\n", len(subms), out)
	return nil
}
