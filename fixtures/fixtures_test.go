package fixtures

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/basketball-olympics/models"
)

func TestDefault(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(d.Groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(d.Groups))
	}
	for label, teams := range d.Groups {
		if len(teams) != models.TeamsPerGroup {
			t.Errorf("group %s has %d teams", label, len(teams))
		}
		for _, e := range teams {
			if _, ok := d.Exhibitions[e.ISOCode]; !ok {
				t.Errorf("no exhibitions for %s", e.ISOCode)
			}
		}
	}

	can := d.Exhibitions["CAN"]
	if len(can) != 2 {
		t.Fatalf("CAN has %d exhibitions, want 2", len(can))
	}
	want := time.Date(2024, time.July, 6, 0, 0, 0, 0, time.UTC)
	if !can[0].Date.Equal(want) || can[0].Opponent != "GER" || can[0].Result != "92-80" {
		t.Errorf("first CAN exhibition = %+v", can[0])
	}
}

func TestNewGroupsBuildsFreshTeams(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	first, second := d.NewGroups(), d.NewGroups()
	if first["A"][0] == second["A"][0] {
		t.Fatal("NewGroups returned shared teams")
	}
	first["A"][0].PowerRanking = 99
	if second["A"][0].PowerRanking != 0 {
		t.Error("teams of different runs share state")
	}
	if got := first["C"][0]; got.ISOCode != "USA" || got.FederationRank != 1 {
		t.Errorf("group C leader = %+v", got)
	}
}

func TestParseErrors(t *testing.T) {
	groups := `{"A":[{"Team":"Kanada","ISOCode":"CAN","FIBARanking":7}]}`
	tests := []struct {
		name        string
		groups      string
		exhibitions string
	}{
		{"broken groups json", `{"A":`, `{}`},
		{"unknown group label", `{"Q":[{"Team":"Kanada","ISOCode":"CAN","FIBARanking":7}]}`, `{}`},
		{"missing code", `{"A":[{"Team":"Kanada","FIBARanking":7}]}`, `{}`},
		{"bad date", groups, `{"CAN":[{"Date":"2024-07-06","Opponent":"GER","Result":"92-80"}]}`},
		{"bad score", groups, `{"CAN":[{"Date":"06/07/24","Opponent":"GER","Result":"92:80"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.groups), strings.NewReader(tt.exhibitions))
			if !errors.Is(err, models.ErrInputData) {
				t.Errorf("err = %v, want ErrInputData", err)
			}
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	groups := `{"b":[{"Team":"Nemačka","ISOCode":"GER","FIBARanking":3}]}`
	exhibitions := `{"GER":[{"Date":"31/12/23","Opponent":"CAN","Result":"80-92"}]}`
	if err := os.WriteFile(filepath.Join(dir, GroupsFile), []byte(groups), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ExhibitionsFile), []byte(exhibitions), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Groups["B"]) != 1 {
		t.Errorf("group labels should be upper-cased: %v", d.Groups)
	}
	if got := d.Exhibitions["GER"][0].Date; got.Year() != 2023 || got.Month() != time.December {
		t.Errorf("date = %v, want 2023-12-31", got)
	}

	if _, err := Load(filepath.Join(dir, "missing")); err == nil {
		t.Error("Load of a missing dir should fail")
	}
}
