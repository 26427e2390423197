package game

// View is a role-scoped projection of a session. It is built fresh from the
// canonical state and never aliases mutable session data.
type View struct {
	SessionID        string                        `json:"session_id"`
	HostID           string                        `json:"host_id"`
	Phase            Phase                         `json:"phase"`
	Turn             int                           `json:"turn"`
	Started          bool                          `json:"game_started"`
	Winner           Winner                        `json:"winner,omitempty"`
	ConspiracyMode   bool                          `json:"conspiracy_mode"`
	ObjectivesTotal  int                           `json:"objectives_total"`
	CompletedClasses []string                      `json:"completed_classes"`
	CrystalSpawned   bool                          `json:"crystal_spawned"`
	Players          map[string]PlayerView         `json:"players"`
	Rooms            map[string]RoomView           `json:"rooms"`
	PendingActions   map[string]string             `json:"pending_actions"`
	PowerSelections  map[string]PowerSelectionView `json:"pending_power_selections"`
	Events           []Event                       `json:"events"`
}

type PlayerView struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Class               string `json:"class"`
	Role                Role   `json:"role"`
	IsHost              bool   `json:"is_host"`
	Eliminated          bool   `json:"eliminated"`
	CurrentRoom         string `json:"current_room,omitempty"`
	HasRevivalItem      bool   `json:"has_revival_item"`
	Gold                int    `json:"gold"`
	PoisonCountdown     int    `json:"poison_countdown"`
	ImmobilizedNextTurn bool   `json:"immobilized_next_turn"`
}

type RoomView struct {
	Name           string   `json:"name"`
	Floor          string   `json:"floor"`
	Locked         bool     `json:"locked"`
	Trapped        bool     `json:"trapped"`
	TrapTriggered  bool     `json:"trap_triggered"`
	Highlighted    bool     `json:"highlighted"`
	HasMimic       bool     `json:"has_mimic"`
	HasQuest       bool     `json:"has_quest"`
	QuestClass     string   `json:"quest_class,omitempty"`
	HasCrystal     bool     `json:"has_crystal"`
	HasRevivalItem bool     `json:"has_revival_item"`
	PoisonTurns    int      `json:"poison_turns"`
	EliminatedHere []string `json:"eliminated_players"`
}

type PowerSelectionView struct {
	Options  []string     `json:"options"`
	Selected string       `json:"selected_power,omitempty"`
	Targets  PowerTargets `json:"targets,omitempty"`
	Complete bool         `json:"complete"`
}

// ViewFor builds the projection a viewer of the given role is entitled to.
// Before the game starts the filter is bypassed so the whole lobby is shared;
// role "" always yields the unfiltered view. The function is pure: repeated
// calls over unchanged state produce identical views.
func (s *Session) ViewFor(role Role) View {
	filtered := s.Started && role != ""

	view := View{
		SessionID:        s.Code,
		HostID:           s.HostID,
		Phase:            s.Phase,
		Turn:             s.Turn,
		Started:          s.Started,
		Winner:           s.Winner,
		ConspiracyMode:   s.ConspiracyMode,
		ObjectivesTotal:  len(s.Quests.Queue),
		CompletedClasses: append([]string(nil), s.Quests.Completed...),
		CrystalSpawned:   s.CrystalSpawned,
		Players:          make(map[string]PlayerView, len(s.Players)),
		Rooms:            make(map[string]RoomView, len(s.Rooms)),
		PendingActions:   make(map[string]string),
		PowerSelections:  make(map[string]PowerSelectionView),
	}

	activeClass := ""
	if quest, ok := s.Quests.ActiveQuest(); ok {
		activeClass = quest.Class
	}

	for id, p := range s.Players {
		pv := PlayerView{
			ID:                  p.ID,
			Name:                p.Name,
			Class:               p.Class,
			Role:                p.Role,
			IsHost:              p.IsHost,
			Eliminated:          p.Eliminated,
			CurrentRoom:         p.CurrentRoom,
			HasRevivalItem:      p.HasRevivalItem,
			Gold:                p.Gold,
			PoisonCountdown:     p.PoisonCountdown,
			ImmobilizedNextTurn: p.ImmobilizedNextTurn,
		}
		if filtered {
			sameSide := p.Role == role
			if !sameSide && !p.Eliminated {
				pv.CurrentRoom = ""
			}
			if !sameSide {
				pv.Gold = 0
				pv.PoisonCountdown = 0
				pv.ImmobilizedNextTurn = false
			}
		}
		view.Players[id] = pv
	}

	for name, room := range s.Rooms {
		rv := RoomView{
			Name:           room.Name,
			Floor:          room.Floor,
			Locked:         room.Locked,
			Trapped:        room.Trapped,
			TrapTriggered:  room.TrapTriggered,
			Highlighted:    room.Highlighted,
			HasMimic:       room.HasMimic,
			HasQuest:       room.HasQuest,
			QuestClass:     room.QuestClass,
			HasCrystal:     room.HasCrystal,
			HasRevivalItem: room.HasRevivalItem,
			PoisonTurns:    room.PoisonTurns,
			EliminatedHere: append([]string(nil), room.EliminatedHere...),
		}
		if filtered {
			switch role {
			case RoleSurvivor:
				// Survivors never see the killers' armed side of a hazard,
				// and a decoy masquerades as the pending objective.
				rv.Trapped = false
				rv.Highlighted = false
				rv.PoisonTurns = 0
				if rv.HasMimic {
					rv.HasMimic = false
					rv.HasQuest = true
					rv.QuestClass = activeClass
				}
			case RoleKiller:
				rv.TrapTriggered = false
			}
		}
		view.Rooms[name] = rv
	}

	for id, roomName := range s.Pending {
		if filtered {
			p, ok := s.Players[id]
			if !ok || p.Role != role {
				continue
			}
		}
		view.PendingActions[id] = roomName
	}

	if !filtered || role == RoleKiller {
		for id, selection := range s.PowerSelections {
			view.PowerSelections[id] = PowerSelectionView{
				Options:  append([]string(nil), selection.Options...),
				Selected: selection.Selected,
				Targets: PowerTargets{
					Rooms: append([]string(nil), selection.Targets.Rooms...),
					Floor: selection.Targets.Floor,
				},
				Complete: selection.Complete,
			}
		}
	}

	if filtered {
		view.Events = s.EventsFor(role)
	} else {
		view.Events = append([]Event(nil), s.Events...)
	}
	return view
}
