package game

import (
	"math/rand"
	"testing"
)

// allPowersConfig offers every power on each draw so tests can pick a
// specific one without depending on the shuffle.
func allPowersConfig() Config {
	cfg := DefaultConfig()
	cfg.PowerOptions = len(powerCatalog)
	return cfg
}

func newTestSession(seed int64, cfg Config) *Session {
	return NewSession("TEST", DefaultCatalog(), cfg, rand.New(rand.NewSource(seed)))
}

type testRoster struct {
	sess      *Session
	survivors []*Player
	killers   []*Player
}

// newStartedSession joins the given survivor classes plus killers and starts
// the game. The first survivor is the host.
func newStartedSession(t *testing.T, seed int64, cfg Config, survivorClasses []string, killerCount int) *testRoster {
	t.Helper()
	s := newTestSession(seed, cfg)
	roster := &testRoster{sess: s}
	names := []string{"Ada", "Ben", "Cleo", "Dan", "Eve", "Fay", "Gus", "Hal"}
	next := 0
	for _, class := range survivorClasses {
		p, err := s.Join(names[next], class, RoleSurvivor)
		if err != nil {
			t.Fatalf("join survivor: %v", err)
		}
		roster.survivors = append(roster.survivors, p)
		next++
	}
	for i := 0; i < killerCount; i++ {
		p, err := s.Join(names[next], "hunter", RoleKiller)
		if err != nil {
			t.Fatalf("join killer: %v", err)
		}
		roster.killers = append(roster.killers, p)
		next++
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.DrainOutbox()
	return roster
}

// selectSurvivors submits one room choice per living survivor; moves maps
// player id to room, missing entries default to the first unlocked room.
func (r *testRoster) selectSurvivors(t *testing.T, moves map[string]string) {
	t.Helper()
	for _, p := range r.survivors {
		if p.Eliminated {
			continue
		}
		room, ok := moves[p.ID]
		if !ok {
			room = r.firstUnlockedRoom(t)
		}
		if err := r.sess.SelectRoom(p.ID, room); err != nil {
			t.Fatalf("survivor %s select %s: %v", p.Name, room, err)
		}
	}
}

// selectPowers picks the same power for every living killer and supplies
// targets when the power asks for them.
func (r *testRoster) selectPowers(t *testing.T, power string, targets *PowerTargets) {
	t.Helper()
	for _, p := range r.killers {
		if p.Eliminated {
			continue
		}
		if err := r.sess.SelectPower(p.ID, power); err != nil {
			t.Fatalf("killer %s select power %s: %v", p.Name, power, err)
		}
		if targets != nil {
			if err := r.sess.SubmitPowerTargets(p.ID, *targets); err != nil {
				t.Fatalf("killer %s targets for %s: %v", p.Name, power, err)
			}
		}
	}
}

// selectKillers submits one hunt room per living killer.
func (r *testRoster) selectKillers(t *testing.T, moves map[string]string) {
	t.Helper()
	for _, p := range r.killers {
		if p.Eliminated {
			continue
		}
		room, ok := moves[p.ID]
		if !ok {
			room = r.firstUnlockedRoom(t)
		}
		if err := r.sess.SelectRoom(p.ID, room); err != nil {
			t.Fatalf("killer %s select %s: %v", p.Name, room, err)
		}
	}
}

// playTurn drives one full turn with the reveal power (no targets) unless
// another power is given.
func (r *testRoster) playTurn(t *testing.T, survivorMoves, killerMoves map[string]string, power string, targets *PowerTargets) {
	t.Helper()
	if power == "" {
		power = PowerReveal
	}
	r.selectSurvivors(t, survivorMoves)
	if r.sess.Phase != PhaseKillerPowerSelection {
		t.Fatalf("expected power selection after survivor picks, got %s", r.sess.Phase)
	}
	r.selectPowers(t, power, targets)
	if r.sess.Phase != PhaseKillerSelection {
		t.Fatalf("expected killer selection after power picks, got %s", r.sess.Phase)
	}
	r.selectKillers(t, killerMoves)
}

func (r *testRoster) firstUnlockedRoom(t *testing.T) string {
	t.Helper()
	for _, name := range r.sess.catalog.AllRooms() {
		if !r.sess.Rooms[name].Locked {
			return name
		}
	}
	t.Fatalf("no unlocked room available")
	return ""
}

// questRoomName returns the room holding the placed objective, failing the
// test when none is placed.
func (r *testRoster) questRoomName(t *testing.T) string {
	t.Helper()
	room := r.sess.questRoom()
	if room == nil {
		t.Fatalf("no objective placed")
	}
	return room.Name
}

// roomWithout returns an unlocked room that differs from every excluded name.
func (r *testRoster) roomWithout(t *testing.T, exclude ...string) string {
	t.Helper()
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}
	for _, name := range r.sess.catalog.AllRooms() {
		if _, excluded := skip[name]; excluded {
			continue
		}
		if !r.sess.Rooms[name].Locked {
			return name
		}
	}
	t.Fatalf("no room left outside %v", exclude)
	return ""
}

func countRooms(s *Session, pred func(*Room) bool) int {
	n := 0
	for _, room := range s.Rooms {
		if pred(room) {
			n++
		}
	}
	return n
}
