package monitor

import (
	"testing"

	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
)

func solution(name string, trains ...trenitalia.Train) trenitalia.TicketSolution {
	return trenitalia.TicketSolution{
		Solution: trenitalia.Journey{ID: name, Trains: trains},
	}
}

func train(name, category, denomination string) trenitalia.Train {
	return trenitalia.Train{Name: name, TrainCategory: category, Denomination: denomination}
}

func TestFilterEmptyCriteriaKeepNothing(t *testing.T) {
	t.Parallel()
	sols := []trenitalia.TicketSolution{
		solution("a", train("FR 9520", "FR", "Frecciarossa")),
		solution("b", train("REG 4021", "REG", "Regionale")),
	}
	got := Filter(sols, nil, nil)
	if len(got) != 0 {
		t.Fatalf("Filter with empty criteria kept %d solutions, want 0", len(got))
	}
}

func TestFilterZeroLengthInput(t *testing.T) {
	t.Parallel()
	got := Filter(nil, []string{"FR"}, []string{"Frecciarossa"})
	if len(got) != 0 {
		t.Fatalf("Filter(nil) returned %d solutions, want 0", len(got))
	}
}

func TestFilterMatching(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name          string
		sols          []trenitalia.TicketSolution
		categories    []string
		denominations []string
		wantIDs       []string
	}{
		{
			name: "category match",
			sols: []trenitalia.TicketSolution{
				solution("a", train("FR 9520", "FR", "Frecciarossa")),
				solution("b", train("REG 4021", "REG", "Regionale")),
			},
			categories: []string{"FR"},
			wantIDs:    []string{"a"},
		},
		{
			name: "denomination match",
			sols: []trenitalia.TicketSolution{
				solution("a", train("FR 9520", "FR", "Frecciarossa")),
				solution("b", train("IC 583", "IC", "Intercity")),
			},
			denominations: []string{"Intercity"},
			wantIDs:       []string{"b"},
		},
		{
			name: "any segment matches",
			sols: []trenitalia.TicketSolution{
				solution("a",
					train("REG 4021", "REG", "Regionale"),
					train("FR 9520", "FR", "Frecciarossa"),
				),
			},
			categories: []string{"FR"},
			wantIDs:    []string{"a"},
		},
		{
			name: "criteria are OR not AND",
			sols: []trenitalia.TicketSolution{
				solution("a", train("FR 9520", "FR", "Frecciarossa")),
				solution("b", train("IC 583", "IC", "Intercity")),
				solution("c", train("REG 4021", "REG", "Regionale")),
			},
			categories:    []string{"FR"},
			denominations: []string{"Intercity"},
			wantIDs:       []string{"a", "b"},
		},
		{
			name: "order preserved",
			sols: []trenitalia.TicketSolution{
				solution("c", train("FR 9702", "FR", "Frecciarossa")),
				solution("a", train("FR 9520", "FR", "Frecciarossa")),
				solution("b", train("FR 9618", "FR", "Frecciarossa")),
			},
			categories: []string{"FR"},
			wantIDs:    []string{"c", "a", "b"},
		},
		{
			name: "no segments never matches",
			sols: []trenitalia.TicketSolution{
				solution("a"),
			},
			categories:    []string{"FR"},
			denominations: []string{"Frecciarossa"},
			wantIDs:       []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Filter(tt.sols, tt.categories, tt.denominations)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("kept %d solutions, want %d", len(got), len(tt.wantIDs))
			}
			for i, sol := range got {
				if sol.Solution.ID != tt.wantIDs[i] {
					t.Fatalf("position %d: got %q, want %q", i, sol.Solution.ID, tt.wantIDs[i])
				}
			}
		})
	}
}
