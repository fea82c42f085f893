package domain

import (
	"math/rand"
	"testing"
)

func newTestState(t *testing.T, players []string, host string) *GameState {
	t.Helper()
	deck := ShuffleDeck(NewDeck(), rand.New(rand.NewSource(1)))
	return NewGameState(players, host, deck)
}

func TestNewGameStateDeal(t *testing.T) {
	players := []string{"p0", "p1"}
	gs := newTestState(t, players, "p0")

	for _, pid := range players {
		if got := gs.Hands[pid].Count(); got != HandSize {
			t.Errorf("player %s dealt %d cards, want %d", pid, got, HandSize)
		}
	}
	if got := len(gs.Deck); got != 54-2*HandSize {
		t.Errorf("deck has %d cards after deal, want %d", got, 54-2*HandSize)
	}
	if gs.Phase != PhasePeek {
		t.Errorf("phase = %q, want %q", gs.Phase, PhasePeek)
	}
}

func TestTurnOrderRotatesPastHost(t *testing.T) {
	players := []string{"host", "a", "b", "c"}
	gs := newTestState(t, players, "host")
	gs.Phase = PhasePlay

	want := []string{"a", "b", "c", "host"}
	for i, pid := range want {
		if gs.TurnOrder[i] != pid {
			t.Fatalf("TurnOrder = %v, want %v", gs.TurnOrder, want)
		}
	}
	if got := gs.CurrentTurn(); got != "a" {
		t.Errorf("first turn = %q, want the player after the host", got)
	}
	for range players {
		gs.AdvanceTurn()
	}
	if got := gs.CurrentTurn(); got != "a" {
		t.Errorf("turn after a full cycle = %q, want %q", got, "a")
	}
}

func TestCurrentTurnOutsidePlayablePhases(t *testing.T) {
	gs := newTestState(t, []string{"p0", "p1"}, "p0")
	if got := gs.CurrentTurn(); got != "" {
		t.Errorf("CurrentTurn during peek = %q, want empty", got)
	}
	gs.Phase = PhaseReveal
	if got := gs.CurrentTurn(); got != "" {
		t.Errorf("CurrentTurn during reveal = %q, want empty", got)
	}
}

func TestPeekTracking(t *testing.T) {
	players := []string{"p0", "p1", "p2"}
	gs := newTestState(t, players, "p0")

	gs.MarkPeekDone("p0")
	gs.MarkPeekDone("p0") // repeat is a no-op
	gs.MarkPeekDone("p1")
	if gs.AllPeeksDone(players) {
		t.Error("AllPeeksDone true with one player outstanding")
	}
	gs.MarkPeekDone("p2")
	if !gs.AllPeeksDone(players) {
		t.Error("AllPeeksDone false with every player done")
	}
}

func TestRedemptionOrderAndReveal(t *testing.T) {
	players := []string{"p0", "p1", "p2"}
	gs := newTestState(t, players, "p0")
	gs.Phase = PhasePlay

	// Turn order is p1, p2, p0. Caller p0 sits last, so the redemption
	// order wraps to the front.
	gs.BeginRedemption("p0")

	if gs.Phase != PhaseRedemption {
		t.Fatalf("phase = %q, want %q", gs.Phase, PhaseRedemption)
	}
	want := []string{"p1", "p2"}
	if len(gs.RedemptionOrder) != len(want) {
		t.Fatalf("RedemptionOrder = %v, want %v", gs.RedemptionOrder, want)
	}
	for i := range want {
		if gs.RedemptionOrder[i] != want[i] {
			t.Fatalf("RedemptionOrder = %v, want %v", gs.RedemptionOrder, want)
		}
	}

	if got := gs.CurrentTurn(); got != "p1" {
		t.Errorf("first redemption turn = %q, want %q", got, "p1")
	}
	gs.AdvanceTurn()
	if got := gs.CurrentTurn(); got != "p2" {
		t.Errorf("second redemption turn = %q, want %q", got, "p2")
	}
	gs.AdvanceTurn()
	if gs.Phase != PhaseReveal {
		t.Errorf("phase after last redemption turn = %q, want %q", gs.Phase, PhaseReveal)
	}
}

func TestRemovePlayerMidGame(t *testing.T) {
	players := []string{"p0", "p1", "p2", "p3"}
	gs := newTestState(t, players, "p0")
	gs.Phase = PhasePlay

	// Turn order is p1, p2, p3, p0; move to p2's turn, then drop p1.
	gs.AdvanceTurn()
	if got := gs.CurrentTurn(); got != "p2" {
		t.Fatalf("setup: current turn = %q, want p2", got)
	}
	gs.RemovePlayer("p1")

	if _, ok := gs.Hands["p1"]; ok {
		t.Error("removed player still has a hand")
	}
	if got := gs.CurrentTurn(); got != "p2" {
		t.Errorf("current turn = %q after removing an earlier player, want p2", got)
	}
	if len(gs.TurnOrder) != 3 {
		t.Errorf("TurnOrder = %v, want 3 players", gs.TurnOrder)
	}
}

func TestRemoveCurrentTurnPlayerClampsIndex(t *testing.T) {
	players := []string{"p0", "p1", "p2"}
	gs := newTestState(t, players, "p0")
	gs.Phase = PhasePlay

	// Turn order is p1, p2, p0; advance to the last entry then drop it.
	gs.AdvanceTurn()
	gs.AdvanceTurn()
	if got := gs.CurrentTurn(); got != "p0" {
		t.Fatalf("setup: current turn = %q, want p0", got)
	}
	gs.RemovePlayer("p0")
	if got := gs.CurrentTurn(); got != "p1" {
		t.Errorf("current turn after removing the tail player = %q, want wrap to p1", got)
	}
}

func TestRemovePlayerClearsInFlightDraw(t *testing.T) {
	gs := newTestState(t, []string{"p0", "p1"}, "p0")
	gs.Phase = PhasePlay

	if _, err := gs.BeginDraw("p1"); err != nil {
		t.Fatalf("BeginDraw: %v", err)
	}
	gs.RemovePlayer("p1")
	if gs.DrawnCard != nil || gs.DrawnBy != "" {
		t.Error("in-flight draw survived its owner's removal")
	}
}

func TestRemoveLastRedemptionPlayerEndsGame(t *testing.T) {
	players := []string{"p0", "p1", "p2"}
	gs := newTestState(t, players, "p0")
	gs.Phase = PhasePlay
	gs.BeginRedemption("p0")

	gs.AdvanceTurn() // p1 done, p2 remains
	gs.RemovePlayer("p2")
	if gs.Phase != PhaseReveal {
		t.Errorf("phase = %q after last redemption player left, want %q", gs.Phase, PhaseReveal)
	}
}

func setHand(gs *GameState, pid string, cards ...Card) {
	h := make(Hand, 0, len(cards))
	for _, c := range cards {
		h.AddCard(c)
	}
	gs.Hands[pid] = h
}

func TestResultsLowestScoreWins(t *testing.T) {
	gs := newTestState(t, []string{"p0", "p1"}, "p0")
	gs.Phase = PhaseReveal
	setHand(gs, "p0", mustCard("2", SuitHearts), mustCard("3", SuitClubs))
	setHand(gs, "p1", mustCard(RankQueen, SuitSpades), mustCard(RankJack, SuitHearts))

	results, winner := gs.Results()
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if winner != "p0" {
		t.Errorf("winner = %q, want the lower score p0", winner)
	}
}

func TestResultsCallerLosesTies(t *testing.T) {
	gs := newTestState(t, []string{"p0", "p1"}, "p0")
	gs.Phase = PhaseReveal
	gs.RedKingCaller = "p1"
	setHand(gs, "p0", mustCard("5", SuitHearts), mustCard("5", SuitClubs))
	setHand(gs, "p1", mustCard("4", SuitSpades), mustCard("6", SuitDiamonds))

	_, winner := gs.Results()
	if winner != "p0" {
		t.Errorf("winner = %q, want p0: the caller loses ties", winner)
	}
}

func TestResultsCallerWinsAlone(t *testing.T) {
	gs := newTestState(t, []string{"p0", "p1"}, "p0")
	gs.Phase = PhaseReveal
	gs.RedKingCaller = "p1"
	setHand(gs, "p0", mustCard("9", SuitHearts))
	setHand(gs, "p1", mustCard("2", SuitClubs))

	_, winner := gs.Results()
	if winner != "p1" {
		t.Errorf("winner = %q, want the caller with the sole lowest score", winner)
	}
}

func TestResultsTieAmongNonCallers(t *testing.T) {
	gs := newTestState(t, []string{"p0", "p1", "p2"}, "p0")
	gs.Phase = PhaseReveal
	// Turn order is p1, p2, p0; p1 and p0 tie so p1 wins on order.
	setHand(gs, "p0", mustCard("3", SuitHearts))
	setHand(gs, "p1", mustCard("3", SuitClubs))
	setHand(gs, "p2", mustCard("8", SuitSpades))

	_, winner := gs.Results()
	if winner != "p1" {
		t.Errorf("winner = %q, want the first tied player in turn order", winner)
	}
}
