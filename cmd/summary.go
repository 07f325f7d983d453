package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/shouni/go-story-manga/internal/pipeline"
	"github.com/shouni/go-story-manga/pkg/domain"
)

// renderSummary は、生成結果をパネルごとの表にまとめるのだ。
func renderSummary(s *pipeline.Summary) string {
	panels := domain.Panels(s.Manga.Panels)
	chars := domain.Characters(s.Manga.Characters)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(s.Manga.Title)
	tw.AppendHeader(table.Row{"#", "Setting", "Characters", "Dialogue", "Image"})

	failed := make(map[int]bool, len(s.Failed))
	for _, i := range s.Failed {
		failed[i] = true
	}

	for i, p := range panels {
		status := "-"
		switch {
		case i < len(s.Published.PanelImagePaths) && s.Published.PanelImagePaths[i] != "":
			status = s.Published.PanelImagePaths[i]
		case failed[i]:
			status = "failed"
		case i < s.Processed:
			status = "no image"
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			truncate(p.Setting, 40),
			strings.Join(p.Characters, ", "),
			truncate(p.Dialogue, 30),
			status,
		})
	}

	tw.AppendFooter(table.Row{
		"",
		fmt.Sprintf("characters %d/%d", chars.ImagedCount(), len(chars)),
		"",
		fmt.Sprintf("processed %d/%d", s.Processed, len(panels)),
		fmt.Sprintf("images %d", panels.ImagedCount()),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
