// Package fixtures loads the tournament roster and the pre-tournament
// exhibition results from their JSON files.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dosada05/basketball-olympics/models"
)

const (
	GroupsFile      = "groups.json"
	ExhibitionsFile = "exibitions.json"

	// Exhibition dates are written dd/MM/yy.
	dateLayout = "02/01/06"
)

//go:embed data/*.json
var defaultData embed.FS

// TeamEntry is one roster line of groups.json.
type TeamEntry struct {
	Team        string `json:"Team"`
	ISOCode     string `json:"ISOCode"`
	FIBARanking int    `json:"FIBARanking"`
}

type exhibitionEntry struct {
	Date     string `json:"Date"`
	Opponent string `json:"Opponent"`
	Result   string `json:"Result"`
}

// Data is the parsed, read-only input of a tournament. Every run builds its
// own teams from it.
type Data struct {
	Groups      map[string][]TeamEntry
	Exhibitions map[string][]models.ExhibitionGame
}

// Default returns the bundled 2024 roster and exhibition results.
func Default() (*Data, error) {
	groups, err := defaultData.Open("data/" + GroupsFile)
	if err != nil {
		return nil, fmt.Errorf("open bundled groups: %w", err)
	}
	defer groups.Close()
	exhibitions, err := defaultData.Open("data/" + ExhibitionsFile)
	if err != nil {
		return nil, fmt.Errorf("open bundled exhibitions: %w", err)
	}
	defer exhibitions.Close()
	return Parse(groups, exhibitions)
}

// Load reads groups.json and exibitions.json from dir. An empty dir falls
// back to the bundled data.
func Load(dir string) (*Data, error) {
	if dir == "" {
		return Default()
	}
	groups, err := os.Open(filepath.Join(dir, GroupsFile))
	if err != nil {
		return nil, fmt.Errorf("open groups: %w", err)
	}
	defer groups.Close()
	exhibitions, err := os.Open(filepath.Join(dir, ExhibitionsFile))
	if err != nil {
		return nil, fmt.Errorf("open exhibitions: %w", err)
	}
	defer exhibitions.Close()
	return Parse(groups, exhibitions)
}

func Parse(groups, exhibitions io.Reader) (*Data, error) {
	var rawGroups map[string][]TeamEntry
	if err := json.NewDecoder(groups).Decode(&rawGroups); err != nil {
		return nil, fmt.Errorf("%w: decode groups: %v", models.ErrInputData, err)
	}
	var rawExhibitions map[string][]exhibitionEntry
	if err := json.NewDecoder(exhibitions).Decode(&rawExhibitions); err != nil {
		return nil, fmt.Errorf("%w: decode exhibitions: %v", models.ErrInputData, err)
	}

	d := &Data{
		Groups:      make(map[string][]TeamEntry, len(rawGroups)),
		Exhibitions: make(map[string][]models.ExhibitionGame, len(rawExhibitions)),
	}
	for label, entries := range rawGroups {
		if _, err := models.PartitionIndex(label); err != nil {
			return nil, err
		}
		for _, e := range entries {
			if strings.TrimSpace(e.ISOCode) == "" {
				return nil, fmt.Errorf("%w: team %q in group %s has no country code", models.ErrInputData, e.Team, label)
			}
		}
		d.Groups[strings.ToUpper(label)] = entries
	}
	for code, entries := range rawExhibitions {
		games := make([]models.ExhibitionGame, 0, len(entries))
		for _, e := range entries {
			date, err := time.Parse(dateLayout, e.Date)
			if err != nil {
				return nil, fmt.Errorf("%w: exhibition date %q of %s: %v", models.ErrInputData, e.Date, code, err)
			}
			g := models.ExhibitionGame{Date: date, Opponent: e.Opponent, Result: e.Result}
			if _, _, err := g.Score(); err != nil {
				return nil, err
			}
			games = append(games, g)
		}
		d.Exhibitions[code] = games
	}
	return d, nil
}

// NewGroups builds fresh teams for one tournament run.
func (d *Data) NewGroups() map[string][]*models.Team {
	out := make(map[string][]*models.Team, len(d.Groups))
	for label, entries := range d.Groups {
		teams := make([]*models.Team, 0, len(entries))
		for _, e := range entries {
			teams = append(teams, models.NewTeam(e.Team, e.ISOCode, e.FIBARanking))
		}
		out[label] = teams
	}
	return out
}
