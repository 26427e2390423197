package game

import "fmt"

// SelectRoom records a player's room choice for the current phase. Survivors
// act during survivor_selection, killers during killer_selection or their own
// rage second selection. The phase gate advances once the last expected
// selection lands.
func (s *Session) SelectRoom(playerID, roomName string) error {
	player, ok := s.Players[playerID]
	if !ok {
		return rejection("player not found")
	}
	if !s.Started || player.Eliminated {
		return rejection("you cannot act right now")
	}
	room, ok := s.Rooms[roomName]
	if !ok {
		return rejection("unknown room: " + roomName)
	}

	switch player.Role {
	case RoleSurvivor:
		if s.Phase != PhaseSurvivorSelection {
			return rejection("it is not the survivors' turn")
		}
		return s.selectSurvivorRoom(player, room)
	case RoleKiller:
		if s.Phase == PhaseRageSecondSelection {
			return s.selectRageRoom(player, room)
		}
		if s.Phase != PhaseKillerSelection {
			return rejection("it is not the killers' turn")
		}
		return s.selectKillerRoom(player, room)
	}
	return rejection("invalid role")
}

func (s *Session) selectSurvivorRoom(player *Player, room *Room) error {
	if player.ImmobilizedNextTurn {
		if room.Name != player.CurrentRoom {
			s.notify(player.ID, map[string]any{
				"type":    "error",
				"message": fmt.Sprintf("You are caught in a trap! Pick %q to pass your turn.", player.CurrentRoom),
			})
			return rejection("immobilized: must pass the turn in place")
		}
		// Passing the turn in place frees the player for the next one.
		player.ImmobilizedNextTurn = false
		s.Pending[player.ID] = room.Name
		s.notify(player.ID, map[string]any{
			"type":    "turn_skipped",
			"message": "You pass your turn, still shaking off the trap.",
		})
		s.announceChoice(player)
		s.finishSurvivorSelectionIfReady()
		s.queueStateUpdate()
		return nil
	}

	if room.Locked {
		return rejection("that room is locked")
	}
	s.Pending[player.ID] = room.Name
	s.Searched[room.Name] = struct{}{}

	// Armed hazards spring the moment the room is picked: the armed flag
	// flips to its triggered counterpart before the edge clears leftovers.
	if room.Trapped {
		room.Trapped = false
		room.TrapTriggered = true
		player.ImmobilizedNextTurn = true
		s.notify(player.ID, map[string]any{
			"type":    "trapped_notification",
			"message": "You walked into a trap! You will not be able to move next turn.",
		})
		s.logEvent(eventTrapSprung, fmt.Sprintf("A trap has sprung somewhere %s.", floorLabel(room.Floor)), RoleKiller)
	}
	if room.HasMimic {
		room.HasMimic = false
		player.Gold = 0
		s.notify(player.ID, map[string]any{
			"type":    "mimic_notification",
			"message": "The objective was a decoy! Your gold is gone.",
		})
		s.logEvent(eventMimicSprung, fmt.Sprintf("%s fell for a decoy.", player.Name), RoleKiller)
	}

	s.announceChoice(player)
	s.finishSurvivorSelectionIfReady()
	s.queueStateUpdate()
	return nil
}

func (s *Session) selectKillerRoom(player *Player, room *Room) error {
	if room.Locked {
		return rejection("that room is locked")
	}
	s.Pending[player.ID] = room.Name
	s.announceChoice(player)
	s.finishKillerSelectionIfReady()
	s.queueStateUpdate()
	return nil
}

func (s *Session) selectRageRoom(player *Player, room *Room) error {
	if _, granted := s.RageActive[player.ID]; !granted {
		return rejection("no second chance to spend")
	}
	if room.Locked {
		return rejection("that room is locked")
	}
	s.RagePending[player.ID] = room.Name
	s.announceChoice(player)
	s.finishRageSelectionIfReady()
	s.queueStateUpdate()
	return nil
}

func (s *Session) announceChoice(player *Player) {
	s.queue(Audience{}, map[string]any{
		"type":      "player_action",
		"player_id": player.ID,
		"message":   fmt.Sprintf("%s made a choice.", player.Name),
	})
}

// SelectPower records a killer's power pick from their drawn options.
func (s *Session) SelectPower(playerID, powerName string) error {
	player, ok := s.Players[playerID]
	if !ok {
		return rejection("player not found")
	}
	if player.Role != RoleKiller || s.Phase != PhaseKillerPowerSelection || player.Eliminated {
		return rejection("you cannot pick a power right now")
	}
	selection, ok := s.PowerSelections[playerID]
	if !ok {
		return rejection("no power draw pending")
	}
	offered := false
	for _, option := range selection.Options {
		if option == powerName {
			offered = true
			break
		}
	}
	if !offered {
		return rejection("power was not offered")
	}
	power, _ := powerByName(powerName)
	selection.Selected = powerName
	selection.Targets = PowerTargets{}
	if power.RequiresTargets() {
		selection.Complete = false
		s.notify(playerID, map[string]any{
			"type":        "power_action_required",
			"power":       power.Name,
			"action_type": power.Targeting,
			"rooms_count": s.targetRoomCount(power),
		})
	} else {
		selection.Complete = true
		s.queue(Audience{}, map[string]any{
			"type":      "player_action",
			"player_id": playerID,
			"message":   fmt.Sprintf("%s chose a power.", player.Name),
		})
		s.finishPowerSelectionIfReady()
	}
	s.queueStateUpdate()
	return nil
}

// SubmitPowerTargets completes a targeted power selection.
func (s *Session) SubmitPowerTargets(playerID string, targets PowerTargets) error {
	player, ok := s.Players[playerID]
	if !ok {
		return rejection("player not found")
	}
	if player.Role != RoleKiller || s.Phase != PhaseKillerPowerSelection || player.Eliminated {
		return rejection("you cannot configure a power right now")
	}
	selection, ok := s.PowerSelections[playerID]
	if !ok || selection.Selected == "" {
		return rejection("no power selected")
	}
	power, _ := powerByName(selection.Selected)
	if !power.RequiresTargets() {
		return rejection("power does not take targets")
	}
	if err := s.validateTargets(power, targets); err != nil {
		return err
	}
	selection.Targets = targets
	selection.Complete = true
	s.queue(Audience{}, map[string]any{
		"type":      "player_action",
		"player_id": playerID,
		"message":   fmt.Sprintf("%s readied a power.", player.Name),
	})
	s.finishPowerSelectionIfReady()
	s.queueStateUpdate()
	return nil
}

// UseRevivalItem revives a same-room eliminated player and respawns the item.
func (s *Session) UseRevivalItem(playerID, targetID string) error {
	player, ok := s.Players[playerID]
	if !ok {
		return rejection("player not found")
	}
	if !s.Started || s.Phase == PhaseGameOver {
		return rejection("you cannot act right now")
	}
	if player.Role != RoleSurvivor || !player.HasRevivalItem {
		return rejection("no revival item to use")
	}
	target, ok := s.Players[targetID]
	if !ok || !target.Eliminated {
		return rejection("target cannot be revived")
	}
	if target.CurrentRoom == "" || target.CurrentRoom != player.CurrentRoom {
		return rejection("target is not in your room")
	}
	s.revive(player, target, s.Rooms[target.CurrentRoom])
	s.queueStateUpdate()
	return nil
}

func (s *Session) revive(rescuer, target *Player, room *Room) {
	target.Eliminated = false
	target.PoisonCountdown = 0
	rescuer.HasRevivalItem = false
	for i, id := range room.EliminatedHere {
		if id == target.ID {
			room.EliminatedHere = append(room.EliminatedHere[:i], room.EliminatedHere[i+1:]...)
			break
		}
	}
	s.logEvent(eventRevival, fmt.Sprintf("%s brought %s back!", rescuer.Name, target.Name), "")
	s.revivalPending = true
}
