package badges

import (
	"cmp"
	"slices"

	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/selector"
	"github.com/okian/trackrank/internal/domain/types"
)

// EmptyCell marks a stage the athlete did not reach.
const EmptyCell = "–"

// Cell is one stage column of a history row.
type Cell struct {
	Stage  model.MeetType `json:"stage"`
	Text   string         `json:"text"`
	Result string         `json:"result,omitempty"`
	Place  *int           `json:"place,omitempty"`
	Empty  bool           `json:"empty"`
}

// HistoryRow is one (year, event) line of the playoff history table.
type HistoryRow struct {
	Year  int    `json:"year"`
	Event string `json:"event"`
	Cells []Cell `json:"cells"`
}

type historyKey struct {
	Year  int
	Event string
}

// History groups postseason results by year and event with one cell per
// stage, newest year first and events alphabetical.
func History(results []model.Result) []HistoryRow {
	buckets := make(map[historyKey]map[model.MeetType]model.Result)
	for _, r := range results {
		if !r.Meet.Type.IsStage() {
			continue
		}
		k := historyKey{Year: r.Meet.Year, Event: r.Event}
		stages, ok := buckets[k]
		if !ok {
			stages = make(map[model.MeetType]model.Result, len(model.Stages))
			buckets[k] = stages
		}
		if existing, ok := stages[r.Meet.Type]; ok {
			stages[r.Meet.Type] = selector.Prefer(existing, r)
			continue
		}
		stages[r.Meet.Type] = r
	}

	rows := make([]HistoryRow, 0, len(buckets))
	for k, stages := range buckets {
		row := HistoryRow{Year: k.Year, Event: k.Event, Cells: make([]Cell, 0, len(model.Stages))}
		for _, stage := range model.Stages {
			r, ok := stages[stage]
			if !ok {
				row.Cells = append(row.Cells, Cell{Stage: stage, Text: EmptyCell, Empty: true})
				continue
			}
			row.Cells = append(row.Cells, Cell{
				Stage:  stage,
				Text:   StageText(r.Display, r.Place),
				Result: r.Display,
				Place:  r.Place,
			})
		}
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b HistoryRow) int {
		if c := cmp.Compare(b.Year, a.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Event, b.Event)
	})
	return rows
}

// StageText renders a result with its place, e.g. "10.95 (2nd)".
func StageText(display string, place *int) string {
	label := types.PlaceLabel(place)
	switch {
	case label == "" && display == "":
		return EmptyCell
	case label == "":
		return display
	case display == "":
		return label
	default:
		return display + " (" + label + ")"
	}
}
