// Package report renders a finished tournament as the plain-text summary
// printed by the CLI and uploaded next to archived runs.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Dosada05/basketball-olympics/models"
)

// Write renders r to w. Sections of stages the run never reached are
// skipped.
func Write(w io.Writer, r *models.TournamentResult) error {
	_, err := io.WriteString(w, String(r))
	return err
}

func String(r *models.TournamentResult) string {
	var b strings.Builder

	writeGroupRounds(&b, r.GamesOf(models.StageGroup))
	writeGroupTables(&b, r.Groups)
	writeSeedPots(&b, r.SeedPots)

	if len(r.Pairings) > 0 {
		b.WriteString("Elimination phase:\n")
		for i, p := range r.Pairings {
			if i > 0 && i%2 == 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "\t\t%s - %s", p.Home.Name, p.Away.Name)
			if p.Repeat {
				b.WriteString(" (rematch)")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	writeStage(&b, "Quarterfinals:", r.GamesOf(models.StageQuarterfinal))
	writeStage(&b, "Semifinals:", r.GamesOf(models.StageSemifinal))
	writeStage(&b, "Third place game:", r.GamesOf(models.StageBronze))
	writeStage(&b, "Final:", r.GamesOf(models.StageFinal))

	if r.Medals != nil {
		b.WriteString("Medals:\n")
		fmt.Fprintf(&b, "\t\t1. %s\n", r.Medals.Gold.Name)
		fmt.Fprintf(&b, "\t\t2. %s\n", r.Medals.Silver.Name)
		fmt.Fprintf(&b, "\t\t3. %s\n", r.Medals.Bronze.Name)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "Run failed: %s\n", r.Error)
	}
	return b.String()
}

// GameLine formats one game the way every stage lists it.
func GameLine(g *models.Game) string {
	line := fmt.Sprintf("%s - %s (%s)", g.TeamAName, g.TeamBName, g.Result())
	if g.Overtimes > 0 {
		line += " OT"
		if g.Overtimes > 1 {
			line += fmt.Sprint(g.Overtimes)
		}
	}
	if g.PulloutNote != "" {
		line += fmt.Sprintf(" (%s)", g.PulloutNote)
	}
	return line
}

func writeGroupRounds(b *strings.Builder, games []models.PlayedGame) {
	round, group := 0, 0
	for _, pg := range games {
		if pg.Round != round {
			round, group = pg.Round, 0
			fmt.Fprintf(b, "Group stage - round %s:\n", models.RomanNumeral(round))
		}
		if pg.Group != group {
			group = pg.Group
			fmt.Fprintf(b, "\tGroup %s\n", models.PartitionLabel(group))
		}
		fmt.Fprintf(b, "\t\t%s\n", GameLine(pg.Game))
	}
	if len(games) > 0 {
		b.WriteString("\n")
	}
}

func writeGroupTables(b *strings.Builder, groups map[int][]models.StandingRow) {
	if len(groups) == 0 {
		return
	}
	b.WriteString("Final group standings (team - wins/losses/points/scored/received/difference):\n")
	for _, key := range sortedKeys(groups) {
		fmt.Fprintf(b, "\tGroup %s\n", models.PartitionLabel(key))
		rows := append([]models.StandingRow(nil), groups[key]...)
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Standing < rows[j].Standing })

		tw := tabwriter.NewWriter(b, 0, 4, 1, ' ', 0)
		for _, row := range rows {
			fmt.Fprintf(tw, "    %d. %s\t%d / %d / %d / %d / %d / %s\n",
				row.Standing, row.Name, row.Wins, row.Losses, row.TournamentPoints,
				row.PointsGiven, row.PointsReceived, signed(row.PointsDifferential))
		}
		tw.Flush()
	}
	b.WriteString("\n")
}

func writeSeedPots(b *strings.Builder, pots map[int][]models.TeamRef) {
	if len(pots) == 0 {
		return
	}
	b.WriteString("Seed pots:\n")
	for _, key := range sortedKeys(pots) {
		fmt.Fprintf(b, "\tPot %s\n", models.PartitionLabel(key))
		for _, t := range pots[key] {
			fmt.Fprintf(b, "\t\t%s\n", t.Name)
		}
	}
	b.WriteString("\n")
}

func writeStage(b *strings.Builder, title string, games []models.PlayedGame) {
	if len(games) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for _, pg := range games {
		fmt.Fprintf(b, "\t\t%s\n", GameLine(pg.Game))
	}
	b.WriteString("\n")
}

// signed prints positive differences with an explicit plus sign.
func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprint(n)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// MedalTable renders aggregated medal counts, best record first.
func MedalTable(w io.Writer, tally *models.MedalTally) error {
	counts := make([]*models.MedalCount, 0, len(tally.Teams))
	for _, c := range tally.Teams {
		counts = append(counts, c)
	}
	sort.Slice(counts, func(i, j int) bool {
		a, b := counts[i], counts[j]
		if a.Gold != b.Gold {
			return a.Gold > b.Gold
		}
		if a.Silver != b.Silver {
			return a.Silver > b.Silver
		}
		if a.Bronze != b.Bronze {
			return a.Bronze > b.Bronze
		}
		return a.Team.Code < b.Team.Code
	})

	if _, err := fmt.Fprintf(w, "Medals over %d runs\n", tally.Runs); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Team\tGold\tSilver\tBronze")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", c.Team.Name, c.Gold, c.Silver, c.Bronze)
	}
	return tw.Flush()
}
