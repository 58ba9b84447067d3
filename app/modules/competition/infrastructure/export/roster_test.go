package competitionexport

import (
	"bytes"
	"testing"

	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ptr(v int) *int { return &v }

func TestRosterRoundTrip(t *testing.T) {
	event := "333"
	round := &competitiondb.Round{ID: uuid.New(), EventCode: &event, NthRound: 1, RoundCode: "f"}
	results := []*competitiondb.Result{
		{UserID: "alice", Position: ptr(1), Solves: []int{812, 901, 755, 1002, 840}},
		{UserID: "bob", Position: ptr(2), Solves: []int{990, 1010, 870}},
		{UserID: "carol"},
	}

	data, err := Roster(round, results)
	require.NoError(t, err)

	got, err := ReadRoster(data)
	require.NoError(t, err)
	want := []RosterRow{
		{UserID: "alice", Position: ptr(1), Solves: []int{812, 901, 755, 1002, 840}},
		{UserID: "bob", Position: ptr(2), Solves: []int{990, 1010, 870}},
		{UserID: "carol"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("roster mismatch (-want +got):\n%s", diff)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	header, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Equal(t, []string{"Position", "Competitor", "Solve 1", "Solve 2", "Solve 3", "Solve 4", "Solve 5"}, header[0])
	props, err := f.GetDocProps()
	require.NoError(t, err)
	require.Equal(t, "333 round 2 (f)", props.Title)
}

func TestRosterEmptyNonEventRound(t *testing.T) {
	round := &competitiondb.Round{ID: uuid.New(), Title: "Lunch"}

	data, err := Roster(round, nil)
	require.NoError(t, err)

	got, err := ReadRoster(data)
	require.NoError(t, err)
	require.Empty(t, got)
}
