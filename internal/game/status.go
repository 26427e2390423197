package game

// Pickup kinds the placement rule knows about.
type pickupKind int

const (
	pickupQuest pickupKind = iota
	pickupCrystal
	pickupRevivalItem
)

// killerRooms returns the set of rooms currently occupied by living killers.
// No pickup or hazard may spawn there.
func (s *Session) killerRooms() map[string]struct{} {
	occupied := make(map[string]struct{})
	for _, p := range s.Players {
		if p.Role == RoleKiller && p.CurrentRoom != "" {
			occupied[p.CurrentRoom] = struct{}{}
		}
	}
	return occupied
}

// availableRooms lists rooms eligible to receive the given pickup: unlocked,
// not already holding a single-instance pickup, and not a killer's position.
func (s *Session) availableRooms(kind pickupKind) []string {
	occupied := s.killerRooms()
	var available []string
	for _, name := range s.catalog.AllRooms() {
		room := s.Rooms[name]
		if room.Locked {
			continue
		}
		if room.HasQuest || room.HasCrystal {
			continue
		}
		if kind == pickupRevivalItem && room.HasRevivalItem {
			continue
		}
		if _, taken := occupied[name]; taken {
			continue
		}
		available = append(available, name)
	}
	return available
}

// pickRoom selects uniformly among candidates, or "" when none are left.
// Callers treat "" as placement exhaustion and retry on a later cycle.
func (s *Session) pickRoom(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// placeRevivalItem spawns the revival item in a random available room.
func (s *Session) placeRevivalItem() string {
	name := s.pickRoom(s.availableRooms(pickupRevivalItem))
	if name == "" {
		return ""
	}
	s.Rooms[name].HasRevivalItem = true
	return name
}

// clearTransientRoomState strips turn-scoped room flags on reset.
func (r *Room) clearTransientRoomState() {
	r.Locked = false
	r.Trapped = false
	r.TrapTriggered = false
	r.PoisonTurns = 0
	r.HasMimic = false
	r.HasQuest = false
	r.QuestClass = ""
	r.HasCrystal = false
	r.HasRevivalItem = false
	r.Highlighted = false
	r.EliminatedHere = nil
}
