package metrics

import (
	"fmt"
	"sort"
	"time"

	"dental-referral-tracker/internal/domain/entity"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	DefaultRankingLimit = 10
	UnknownDentistName  = "-"
)

var medals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

// RankingRow is one dentist's outcome counts within a period
type RankingRow struct {
	Rank        int    `json:"rank"`
	Badge       string `json:"badge"`
	DentistID   int64  `json:"dentist_id"`
	DentistName string `json:"dentist_name"`
	Scheduled   int    `json:"scheduled"`
	Unscheduled int    `json:"unscheduled"`
	Paid        int    `json:"paid"`
}

// Badge is the medal glyph for ranks 1 to 3 and an ordinal otherwise.
func Badge(rank int) string {
	if m, ok := medals[rank]; ok {
		return m
	}
	return fmt.Sprintf("%dº", rank)
}

// ComputeRanking groups referrals registered within period by dentist and
// orders them by paid desc, scheduled desc, then name in pt-BR collation.
// At most limit rows are returned; limit <= 0 returns every row.
func ComputeRanking(snapshot *entity.Snapshot, period Period, now time.Time, limit int) []RankingRow {
	from, to, bounded := period.Range(now)
	names := snapshot.DentistNames()

	byDentist := make(map[int64]*RankingRow)
	var rows []*RankingRow
	for i := range snapshot.Referrals {
		r := &snapshot.Referrals[i]
		if bounded && !within(r.RegistrationTime(now), from, to) {
			continue
		}

		row, ok := byDentist[r.DentistID]
		if !ok {
			name, known := names[r.DentistID]
			if !known || name == "" {
				name = UnknownDentistName
			}
			row = &RankingRow{DentistID: r.DentistID, DentistName: name}
			byDentist[r.DentistID] = row
			rows = append(rows, row)
		}

		if r.Paid {
			row.Paid++
		}
		if r.IsScheduled() {
			row.Scheduled++
		} else {
			row.Unscheduled++
		}
	}

	col := collate.New(language.BrazilianPortuguese)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Paid != b.Paid {
			return a.Paid > b.Paid
		}
		if a.Scheduled != b.Scheduled {
			return a.Scheduled > b.Scheduled
		}
		if c := col.CompareString(a.DentistName, b.DentistName); c != 0 {
			return c < 0
		}
		return a.DentistID < b.DentistID
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	result := make([]RankingRow, len(rows))
	for i, row := range rows {
		row.Rank = i + 1
		row.Badge = Badge(row.Rank)
		result[i] = *row
	}
	return result
}
