package game

import "fmt"

func (s *Session) allSelected(role Role) bool {
	for _, p := range s.livingPlayers(role) {
		if _, ok := s.Pending[p.ID]; !ok {
			return false
		}
	}
	return true
}

// finishSurvivorSelectionIfReady fires the survivor_selection ->
// killer_power_selection edge: leftover armed hazards from the previous turn
// are cleared (they survived exactly one selection window) and every living
// killer draws fresh power options.
func (s *Session) finishSurvivorSelectionIfReady() {
	if s.Phase != PhaseSurvivorSelection || !s.allSelected(RoleSurvivor) {
		return
	}
	for _, room := range s.Rooms {
		room.Trapped = false
		room.HasMimic = false
	}

	s.Phase = PhaseKillerPowerSelection
	s.PowerSelections = make(map[string]*PowerSelection)
	for _, killer := range s.livingPlayers(RoleKiller) {
		s.PowerSelections[killer.ID] = &PowerSelection{
			Options: s.drawPowerOptions(killer.ID),
		}
	}
	s.queuePhaseChange("The killers are drawing their powers.")
}

// finishPowerSelectionIfReady fires the killer_power_selection ->
// killer_selection edge, applying every complete selection atomically right
// before the phase broadcast.
func (s *Session) finishPowerSelectionIfReady() {
	if s.Phase != PhaseKillerPowerSelection {
		return
	}
	for _, killer := range s.livingPlayers(RoleKiller) {
		selection, ok := s.PowerSelections[killer.ID]
		if !ok || !selection.Complete {
			return
		}
	}
	s.applyPowerSelections()
	s.Phase = PhaseKillerSelection
	s.queuePhaseChange("The killers are choosing their rooms.")
}

func (s *Session) finishKillerSelectionIfReady() {
	if s.Phase != PhaseKillerSelection || !s.allSelected(RoleKiller) {
		return
	}
	s.Phase = PhaseProcessing
	s.resolveTurn()
}

// finishRageSelectionIfReady resumes a resolution suspended on second-chance
// grants once every granted killer has picked their extra room. All second
// selections are collected before any of them resolve.
func (s *Session) finishRageSelectionIfReady() {
	if s.Phase != PhaseRageSecondSelection {
		return
	}
	for id := range s.RageActive {
		if _, ok := s.RagePending[id]; !ok {
			return
		}
	}
	moves := s.RagePending
	s.RageActive = make(map[string]struct{})
	s.RagePending = make(map[string]string)
	s.Phase = PhaseProcessing
	s.resolveKillerMoves(moves)
	// A grant cannot trigger twice in one turn, so this pass never suspends.
	s.finishResolution()
}

func (s *Session) queuePhaseChange(message string) {
	s.logEvent(eventPhaseChange, message, "")
	s.queue(Audience{}, map[string]any{
		"type":    "phase_change",
		"phase":   s.Phase,
		"message": message,
	})
}

// resolveTurn runs the strictly ordered resolution once both sides have
// acted. It may suspend into rage_second_selection between killer moves and
// the tail of the resolution.
func (s *Session) resolveTurn() {
	s.questFoundThisTurn = false

	// 1. Lazy pickup placement carried over from the previous turn.
	if s.Quests.PendingPlacement {
		if s.placeActiveQuest() != "" {
			s.Quests.PendingPlacement = false
		}
	}
	if s.revivalPending {
		if s.placeRevivalItem() != "" {
			s.revivalPending = false
			s.logEvent(eventRevivalRespawn, "The revival item reappears somewhere in the manor...", "")
		}
	}

	// 2. Unlock elimination locks from last turn; barricades override.
	barricaded := make(map[string]struct{})
	if active, ok := s.ActivePowers[PowerBarricade]; ok {
		for _, name := range active.BarricadedRooms {
			barricaded[name] = struct{}{}
		}
	}
	for _, room := range s.Rooms {
		if _, hold := barricaded[room.Name]; room.Locked && !hold {
			room.Locked = false
		}
	}
	for name := range barricaded {
		room, ok := s.Rooms[name]
		if !ok || room.Locked {
			continue
		}
		room.Locked = true
		s.logEvent(eventRoomLocked, fmt.Sprintf("%s is barricaded for this turn.", name), "")
	}

	// 3. Highlights last a single turn.
	for _, room := range s.Rooms {
		room.Highlighted = false
	}

	// 4. Survivors move and interact, in player-insertion order.
	for _, id := range s.Order {
		p := s.Players[id]
		if p.Role != RoleSurvivor || p.Eliminated {
			continue
		}
		roomName, ok := s.Pending[id]
		if !ok {
			continue
		}
		s.moveSurvivor(p, s.Rooms[roomName])
	}

	// 5-7. Killers move, eliminate, lock; may suspend on second chances.
	moves := make(map[string]string)
	for _, killer := range s.livingPlayers(RoleKiller) {
		if roomName, ok := s.Pending[killer.ID]; ok {
			moves[killer.ID] = roomName
		}
	}
	s.resolveKillerMoves(moves)
	if len(s.RageActive) > 0 {
		s.Phase = PhaseRageSecondSelection
		s.logEvent(eventRageSelection, "A killer smells blood and gets another strike...", RoleKiller)
		s.queuePhaseChange("Something stirs in the manor...")
		return
	}

	s.finishResolution()
}

func (s *Session) moveSurvivor(p *Player, room *Room) {
	p.CurrentRoom = room.Name
	freshTrap := room.TrapTriggered

	if room.HasQuest {
		if room.QuestClass == p.Class {
			s.completeQuest(room, p)
			s.questFoundThisTurn = true
		} else {
			s.logEvent(eventSearchEmpty,
				fmt.Sprintf("%s found the %s objective but cannot complete it.", p.Name, room.QuestClass),
				RoleSurvivor)
		}
	} else if !room.HasCrystal {
		s.logEvent(eventSearchEmpty,
			fmt.Sprintf("%s searched %s and found no objective.", p.Name, room.Name),
			RoleSurvivor)
	}

	// Gold trickles in per search, except in a room that just trapped someone.
	if !freshTrap && s.cfg.SearchReward > 0 {
		p.Gold += s.cfg.SearchReward
	}

	if room.HasRevivalItem {
		room.HasRevivalItem = false
		p.HasRevivalItem = true
		s.logEvent(eventRevivalFound, fmt.Sprintf("%s picked up the revival item.", p.Name), "")
	}

	if room.HasCrystal {
		room.HasCrystal = false
		s.CrystalTaken = true
	}

	if p.HasRevivalItem && len(room.EliminatedHere) > 0 {
		if target, ok := s.Players[room.EliminatedHere[0]]; ok && target.Eliminated {
			s.revive(p, target, room)
		}
	}

	if room.PoisonTurns > 0 && p.PoisonCountdown == 0 {
		p.PoisonCountdown = s.cfg.PoisonCountdown
		s.notify(p.ID, map[string]any{
			"type":    "poisoned_notification",
			"message": fmt.Sprintf("The air here was foul. Poison will claim you in %d turns unless the game ends first.", p.PoisonCountdown),
		})
		s.logEvent(eventPoisoned, fmt.Sprintf("%s was poisoned!", p.Name), RoleSurvivor)
	}
}

// resolveKillerMoves is steps 5-7 for the given selections: killers move,
// every living survivor sharing the room falls, those rooms lock, and
// uncommitted second-chance grants held by successful killers become active.
func (s *Session) resolveKillerMoves(moves map[string]string) {
	lockAfter := make(map[string]struct{})
	for _, id := range s.Order {
		roomName, ok := moves[id]
		if !ok {
			continue
		}
		killer := s.Players[id]
		killer.CurrentRoom = roomName
		room := s.Rooms[roomName]
		for _, victimID := range s.Order {
			victim := s.Players[victimID]
			if victim.Role != RoleSurvivor || victim.Eliminated || victim.CurrentRoom != roomName {
				continue
			}
			s.eliminate(victim, room)
			lockAfter[roomName] = struct{}{}
			if _, granted := s.RageGrants[id]; granted {
				delete(s.RageGrants, id)
				s.RageActive[id] = struct{}{}
			}
		}
	}
	for name := range lockAfter {
		s.Rooms[name].Locked = true
		s.logEvent(eventRoomLocked, fmt.Sprintf("%s is sealed for this turn.", name), "")
	}
}

func (s *Session) eliminate(victim *Player, room *Room) {
	victim.Eliminated = true
	victim.Gold = 0
	victim.PoisonCountdown = 0
	room.EliminatedHere = append(room.EliminatedHere, victim.ID)
	s.logEvent(eventElimination, fmt.Sprintf("%s was struck down in %s!", victim.Name, room.Name), "")
	if victim.HasRevivalItem {
		victim.HasRevivalItem = false
		s.revivalPending = true
	}
}

// finishResolution is steps 8-11: relocate-on-miss, victory checks, poison
// decay, and the roll into the next turn.
func (s *Session) finishResolution() {
	// 8. Relocate the placed objective when nobody claimed one this turn.
	if !s.questFoundThisTurn {
		if active, ok := s.ActivePowers[PowerRelocate]; ok && active.RelocateOnMiss {
			if room := s.questRoom(); room != nil {
				class := room.QuestClass
				room.HasQuest = false
				room.QuestClass = ""
				// The objective never stays put; it lands in a different room.
				var candidates []string
				for _, name := range s.availableRooms(pickupQuest) {
					if name != room.Name {
						candidates = append(candidates, name)
					}
				}
				if target := s.pickRoom(candidates); target != "" {
					s.Rooms[target].HasQuest = true
					s.Rooms[target].QuestClass = class
					s.logEvent(eventQuestRelocated, "The objective has shifted to another room!", "")
				} else {
					// No room can take it this turn; it reappears on a
					// later turn without announcing a move that never was.
					s.Quests.PendingPlacement = true
				}
			}
		}
	}

	// 9. Victory evaluation.
	if s.Quests.AllCompleted() && !s.CrystalSpawned {
		s.spawnCrystal()
	}
	alive := len(s.livingPlayers(RoleSurvivor))
	if s.CrystalTaken && alive > 0 {
		s.endGame(WinnerSurvivors)
		return
	}
	if alive == 0 {
		s.endGame(WinnerKillers)
		return
	}

	// 10. Poison decay; a countdown reaching zero is lethal.
	for _, room := range s.Rooms {
		if room.PoisonTurns > 0 {
			room.PoisonTurns--
		}
	}
	for _, p := range s.livingPlayers(RoleSurvivor) {
		if p.PoisonCountdown == 0 {
			continue
		}
		p.PoisonCountdown--
		if p.PoisonCountdown > 0 {
			continue
		}
		room := s.Rooms[p.CurrentRoom]
		p.Eliminated = true
		p.Gold = 0
		if p.HasRevivalItem {
			p.HasRevivalItem = false
			s.revivalPending = true
		}
		if room != nil {
			room.EliminatedHere = append(room.EliminatedHere, p.ID)
		}
		s.logEvent(eventPoisonDeath, fmt.Sprintf("%s succumbed to the poison!", p.Name), "")
	}
	if len(s.livingPlayers(RoleSurvivor)) == 0 {
		s.endGame(WinnerKillers)
		return
	}

	// 11. Roll into the next turn.
	s.Turn++
	s.Phase = PhaseSurvivorSelection
	s.Pending = make(map[string]string)
	s.PowerSelections = make(map[string]*PowerSelection)
	s.RageGrants = make(map[string]struct{})
	s.RageActive = make(map[string]struct{})
	s.RagePending = make(map[string]string)
	for _, room := range s.Rooms {
		room.TrapTriggered = false
	}
	message := fmt.Sprintf("Turn %d: the survivors are choosing their rooms.", s.Turn)
	s.logEvent(eventNewTurn, message, "")
	s.queue(Audience{}, map[string]any{
		"type":    "new_turn",
		"turn":    s.Turn,
		"phase":   s.Phase,
		"message": message,
	})
}

func (s *Session) endGame(winner Winner) {
	s.Phase = PhaseGameOver
	s.Winner = winner

	var survivorMsg, killerMsg string
	if winner == WinnerSurvivors {
		survivorMsg = "VICTORY! The crystal is yours, the manor releases you."
		killerMsg = "DEFEAT! The survivors escaped with the crystal."
	} else {
		survivorMsg = "DEFEAT! No survivor is left standing..."
		killerMsg = "VICTORY! No survivor is left standing."
	}
	s.Events = append(s.Events, Event{Message: survivorMsg, Kind: eventGameOver, Audience: RoleSurvivor})
	s.Events = append(s.Events, Event{Message: killerMsg, Kind: eventGameOver, Audience: RoleKiller})
	s.queue(Audience{Role: RoleSurvivor}, map[string]any{
		"type":    "game_over",
		"winner":  winner,
		"message": survivorMsg,
	})
	s.queue(Audience{Role: RoleKiller}, map[string]any{
		"type":    "game_over",
		"winner":  winner,
		"message": killerMsg,
	})
}
