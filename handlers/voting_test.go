// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/pickstack/ranked/models"
	"github.com/pickstack/ranked/testutil"
)

func TestSubmitBallot(t *testing.T) {
	tests := []struct {
		name       string
		rankings   []string
		wantStatus int
	}{
		{
			name:       "full ranking",
			rankings:   []string{"pizza", "sushi", "tacos"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "partial ranking",
			rankings:   []string{"tacos"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "case-insensitive match",
			rankings:   []string{"PIZZA", "Sushi"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "empty rankings",
			rankings:   []string{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown option",
			rankings:   []string{"pizza", "burgers"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate ranking",
			rankings:   []string{"pizza", "pizza"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "case-insensitive duplicate",
			rankings:   []string{"pizza", "PIZZA"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			pollID, _ := testutil.CreateTestPoll(t, e.conn, e.cfg, models.StatusOpen, []string{"pizza", "sushi", "tacos"})

			req := testutil.MakeRequest("POST", "/polls/"+pollID+"/ballots",
				models.SubmitBallotRequest{Rankings: tt.rankings}, nil)
			w := doRequest(e.votes.SubmitBallot, req, map[string]string{"id": pollID})
			testutil.AssertStatus(t, w, tt.wantStatus)

			if tt.wantStatus == http.StatusCreated {
				var resp models.SubmitBallotResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.BallotID == "" {
					t.Error("missing ballot id")
				}
			}
		})
	}
}

func TestSubmitBallot_CanonicalizesCase(t *testing.T) {
	e := newEnv(t)
	pollID, _ := testutil.CreateTestPoll(t, e.conn, e.cfg, models.StatusOpen, []string{"Pizza", "Sushi"})

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/ballots",
		models.SubmitBallotRequest{Rankings: []string{"pizza", "SUSHI"}}, nil)
	w := doRequest(e.votes.SubmitBallot, req, map[string]string{"id": pollID})
	testutil.AssertStatus(t, w, http.StatusCreated)

	rankings, err := e.store.ListRankings(pollID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rankings) != 1 {
		t.Fatalf("rankings = %v", rankings)
	}
	// Stored labels use the poll's spelling, not the voter's
	if rankings[0][0] != "Pizza" || rankings[0][1] != "Sushi" {
		t.Errorf("stored rankings = %v", rankings[0])
	}
}

func TestSubmitBallot_ClosedPoll(t *testing.T) {
	e := newEnv(t)
	pollID, _ := testutil.CreateTestPoll(t, e.conn, e.cfg, models.StatusClosed, []string{"a", "b"})

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/ballots",
		models.SubmitBallotRequest{Rankings: []string{"a"}}, nil)
	w := doRequest(e.votes.SubmitBallot, req, map[string]string{"id": pollID})
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestSubmitBallot_UnknownPoll(t *testing.T) {
	e := newEnv(t)

	req := testutil.MakeRequest("POST", "/polls/missing/ballots",
		models.SubmitBallotRequest{Rankings: []string{"a"}}, nil)
	w := doRequest(e.votes.SubmitBallot, req, map[string]string{"id": "missing"})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDeleteBallot(t *testing.T) {
	e := newEnv(t)
	pollID, adminKey := testutil.CreateTestPoll(t, e.conn, e.cfg, models.StatusOpen, []string{"a", "b"})
	ballotID := testutil.SubmitTestBallot(t, e.conn, pollID, []string{"a", "b"})

	t.Run("requires admin key", func(t *testing.T) {
		req := testutil.MakeRequest("DELETE", "/polls/"+pollID+"/ballots/"+ballotID, nil,
			map[string]string{"X-Admin-Key": "wrong"})
		w := doRequest(e.votes.DeleteBallot, req, map[string]string{"id": pollID, "ballotID": ballotID})
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("deletes once", func(t *testing.T) {
		req := testutil.MakeRequest("DELETE", "/polls/"+pollID+"/ballots/"+ballotID, nil,
			map[string]string{"X-Admin-Key": adminKey})
		w := doRequest(e.votes.DeleteBallot, req, map[string]string{"id": pollID, "ballotID": ballotID})
		testutil.AssertStatus(t, w, http.StatusNoContent)

		if n, _ := e.store.CountBallots(pollID); n != 0 {
			t.Errorf("ballots remaining = %d", n)
		}

		req = testutil.MakeRequest("DELETE", "/polls/"+pollID+"/ballots/"+ballotID, nil,
			map[string]string{"X-Admin-Key": adminKey})
		w = doRequest(e.votes.DeleteBallot, req, map[string]string{"id": pollID, "ballotID": ballotID})
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}
