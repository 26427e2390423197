package game

// Event kinds recorded in the session log.
const (
	eventPhaseChange     = "phase_change"
	eventPlayerJoined    = "player_joined"
	eventRoleChanged     = "role_changed"
	eventGameStarted     = "game_started"
	eventGameReset       = "game_reset"
	eventNewTurn         = "new_turn"
	eventPlayerAction    = "player_action"
	eventPowerUsed       = "power_used"
	eventSoundClue       = "sound_clue"
	eventQuestFound      = "quest_found"
	eventSearchEmpty     = "search_no_quest"
	eventQuestRelocated  = "quest_relocated"
	eventCrystalSpawned  = "crystal_spawned"
	eventRevivalFound    = "revival_item_found"
	eventRevivalRespawn  = "revival_item_respawn"
	eventRevival         = "revival"
	eventElimination     = "elimination"
	eventRoomLocked      = "room_locked"
	eventTrapSprung      = "trap_sprung"
	eventMimicSprung     = "mimic_sprung"
	eventPoisoned        = "poisoned"
	eventPoisonDeath     = "poison_death"
	eventGoldFound       = "gold_found"
	eventRageSelection   = "rage_second_selection"
	eventGameOver        = "game_over"
)

// logEvent appends to the audit log and queues the matching broadcast.
// Audience "" reaches both roles.
func (s *Session) logEvent(kind, message string, audience Role) {
	s.Events = append(s.Events, Event{Message: message, Kind: kind, Audience: audience})
	s.queue(Audience{Role: audience}, map[string]any{
		"type":    "event",
		"event":   kind,
		"message": message,
	})
}

// queue records an outbound broadcast request for the transport layer.
func (s *Session) queue(audience Audience, payload map[string]any) {
	s.outbox = append(s.outbox, Outbound{Audience: audience, Payload: payload})
}

// notify queues a message addressed to a single player.
func (s *Session) notify(playerID string, payload map[string]any) {
	s.queue(Audience{PlayerID: playerID}, payload)
}

// queueStateUpdate asks the transport to fan out a fresh filtered snapshot
// to every connected player.
func (s *Session) queueStateUpdate() {
	s.queue(Audience{}, map[string]any{"type": "state_update"})
}

// DrainOutbox hands the pending broadcast requests to the caller and clears
// the queue. Called by the session actor after each serialized operation.
func (s *Session) DrainOutbox() []Outbound {
	out := s.outbox
	s.outbox = nil
	return out
}

// EventsFor returns the log entries a role is entitled to see.
func (s *Session) EventsFor(role Role) []Event {
	filtered := make([]Event, 0, len(s.Events))
	for _, e := range s.Events {
		if e.Audience == "" || e.Audience == role {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
