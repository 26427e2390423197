package game

import "fmt"

// buildQuestQueue derives one objective per survivor, keyed by their class,
// and shuffles the order once. Called at game start.
func (s *Session) buildQuestQueue() {
	var queue []Quest
	for _, id := range s.Order {
		p := s.Players[id]
		if p.Role == RoleSurvivor {
			queue = append(queue, Quest{Class: p.Class, OwnerID: p.ID})
		}
	}
	s.rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	s.Quests = QuestLog{Queue: queue}
}

// questRoom returns the room currently holding the placed objective.
func (s *Session) questRoom() *Room {
	for _, name := range s.catalog.AllRooms() {
		if room := s.Rooms[name]; room.HasQuest {
			return room
		}
	}
	return nil
}

// placeActiveQuest puts the next queued objective in a random available room.
// Returns "" when no quest is due or no room is eligible; exhaustion is not
// fatal, the caller retries on the next placement cycle.
func (s *Session) placeActiveQuest() string {
	quest, ok := s.Quests.ActiveQuest()
	if !ok {
		return ""
	}
	name := s.pickRoom(s.availableRooms(pickupQuest))
	if name == "" {
		return ""
	}
	room := s.Rooms[name]
	room.HasQuest = true
	room.QuestClass = quest.Class
	return name
}

// completeQuest marks the placed objective satisfied by the survivor standing
// in its room and schedules the next one for lazy placement.
func (s *Session) completeQuest(room *Room, finder *Player) {
	room.HasQuest = false
	class := room.QuestClass
	room.QuestClass = ""
	s.Quests.Completed = append(s.Quests.Completed, class)
	s.Searched = make(map[string]struct{})

	remaining := len(s.Quests.Queue) - len(s.Quests.Completed)
	s.logEvent(eventQuestFound,
		fmt.Sprintf("%s completed the %s objective. %d objective(s) remain.", finder.Name, class, remaining),
		RoleSurvivor)
	s.notify(finder.ID, map[string]any{
		"type":                 "quest_found_popup",
		"message":              fmt.Sprintf("You completed the %s objective. %d objective(s) left before the crystal appears.", class, remaining),
		"objectives_remaining": remaining,
	})

	if !s.Quests.AllCompleted() {
		s.Quests.PendingPlacement = true
	}
}

// spawnCrystal places the final pickup once every objective is completed.
// Spawning does not end the game by itself.
func (s *Session) spawnCrystal() string {
	name := s.pickRoom(s.availableRooms(pickupCrystal))
	if name == "" {
		return ""
	}
	s.Rooms[name].HasCrystal = true
	s.CrystalSpawned = true
	s.logEvent(eventCrystalSpawned, "The escape crystal has materialized somewhere in the manor.", "")
	return name
}
