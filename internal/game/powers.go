package game

import "fmt"

// TargetKind tells the client what follow-up action a power needs before the
// selection counts as complete.
type TargetKind string

const (
	TargetNone         TargetKind = ""
	TargetRoom         TargetKind = "select_room"
	TargetRooms        TargetKind = "select_rooms"
	TargetRoomPerFloor TargetKind = "select_rooms_per_floor"
	TargetFloor        TargetKind = "select_floor"
)

const (
	PowerReveal       = "reveal"
	PowerRelocate     = "relocate"
	PowerFreezeTrap   = "freeze_trap"
	PowerPoison       = "poison"
	PowerLocate       = "locate"
	PowerBarricade    = "barricade"
	PowerSecondChance = "second_chance"
	PowerDecoy        = "decoy"
)

// Power is one catalog entry. apply mutates session state for a complete
// selection; the resolver iterates the catalog instead of branching on names.
type Power struct {
	Name        string
	Title       string
	Description string
	Targeting   TargetKind

	apply func(s *Session, user *Player, targets PowerTargets)
}

func (p Power) RequiresTargets() bool {
	return p.Targeting != TargetNone
}

var powerCatalog = []Power{
	{
		Name:        PowerReveal,
		Title:       "Reveal",
		Description: "Highlights part of the rooms the survivors have not searched since the last objective was completed.",
		apply:       applyReveal,
	},
	{
		Name:        PowerRelocate,
		Title:       "Relocate",
		Description: "If no objective is completed this turn, the placed objective moves to another room.",
		apply: func(s *Session, _ *Player, _ PowerTargets) {
			s.ActivePowers[PowerRelocate].RelocateOnMiss = true
		},
	},
	{
		Name:        PowerFreezeTrap,
		Title:       "Freeze Trap",
		Description: "Arms one room per floor. A survivor who picks a trapped room is immobilized for one turn.",
		Targeting:   TargetRoomPerFloor,
		apply: func(s *Session, _ *Player, targets PowerTargets) {
			for _, name := range targets.Rooms {
				s.Rooms[name].Trapped = true
			}
			active := s.ActivePowers[PowerFreezeTrap]
			active.TrappedRooms = append(active.TrappedRooms, targets.Rooms...)
		},
	},
	{
		Name:        PowerPoison,
		Title:       "Poison",
		Description: "Contaminates one room for a few turns. A survivor entering it starts a slow poison countdown.",
		Targeting:   TargetRoom,
		apply: func(s *Session, _ *Player, targets PowerTargets) {
			room := s.Rooms[targets.Rooms[0]]
			room.PoisonTurns = s.cfg.PoisonRoomTurns
			active := s.ActivePowers[PowerPoison]
			active.PoisonedRooms = append(active.PoisonedRooms, room.Name)
		},
	},
	{
		Name:        PowerLocate,
		Title:       "Locate",
		Description: "Tells the killers whether any survivor is heading to a chosen floor this turn.",
		Targeting:   TargetFloor,
		apply:       applyLocate,
	},
	{
		Name:        PowerBarricade,
		Title:       "Barricade",
		Description: "Locks chosen rooms for the next turn.",
		Targeting:   TargetRooms,
		apply: func(s *Session, _ *Player, targets PowerTargets) {
			active := s.ActivePowers[PowerBarricade]
			active.BarricadedRooms = append(active.BarricadedRooms, targets.Rooms...)
		},
	},
	{
		Name:        PowerSecondChance,
		Title:       "Second Chance",
		Description: "If you catch a survivor this turn, you may immediately hunt in one more room.",
		apply: func(s *Session, user *Player, _ PowerTargets) {
			s.RageGrants[user.ID] = struct{}{}
		},
	},
	{
		Name:        PowerDecoy,
		Title:       "Decoy",
		Description: "Plants fake objectives in chosen rooms. A survivor searching one loses all gold.",
		Targeting:   TargetRooms,
		apply: func(s *Session, _ *Player, targets PowerTargets) {
			for _, name := range targets.Rooms {
				s.Rooms[name].HasMimic = true
			}
			active := s.ActivePowers[PowerDecoy]
			active.DecoyRooms = append(active.DecoyRooms, targets.Rooms...)
		},
	},
}

// PowerCatalog returns the catalog in declaration order.
func PowerCatalog() []Power {
	return append([]Power(nil), powerCatalog...)
}

func powerByName(name string) (Power, bool) {
	for _, p := range powerCatalog {
		if p.Name == name {
			return p, true
		}
	}
	return Power{}, false
}

// targetRoomCount resolves how many rooms a multi-room power expects.
func (s *Session) targetRoomCount(p Power) int {
	switch p.Name {
	case PowerBarricade:
		return s.cfg.BarricadeRooms
	case PowerDecoy:
		return s.cfg.DecoyRooms
	default:
		return 1
	}
}

// validateTargets checks a follow-up payload against the power's targeting
// kind. Rooms must exist; per-floor targeting wants exactly one room on each
// floor of the manor.
func (s *Session) validateTargets(p Power, targets PowerTargets) error {
	switch p.Targeting {
	case TargetNone:
		return rejection("power does not take targets")
	case TargetRoom:
		if len(targets.Rooms) != 1 {
			return rejection("power expects exactly one room")
		}
	case TargetRooms:
		want := s.targetRoomCount(p)
		if len(targets.Rooms) != want {
			return rejection(fmt.Sprintf("power expects exactly %d rooms", want))
		}
	case TargetRoomPerFloor:
		floors := s.catalog.Floors()
		if len(targets.Rooms) != len(floors) {
			return rejection("power expects one room per floor")
		}
		seen := make(map[string]struct{})
		for _, name := range targets.Rooms {
			floor := s.catalog.FloorOf(name)
			if floor == "" {
				return rejection("unknown room: " + name)
			}
			if _, dup := seen[floor]; dup {
				return rejection("power expects one room per floor")
			}
			seen[floor] = struct{}{}
		}
		return nil
	case TargetFloor:
		if !s.catalog.HasFloor(targets.Floor) {
			return rejection("unknown floor: " + targets.Floor)
		}
		return nil
	}
	seen := make(map[string]struct{})
	for _, name := range targets.Rooms {
		if !s.catalog.HasRoom(name) {
			return rejection("unknown room: " + name)
		}
		if _, dup := seen[name]; dup {
			return rejection("duplicate room: " + name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// drawPowerOptions samples distinct powers for one killer, skipping powers
// that killer has already seen this game when fresh draws are configured.
// Once the remaining pool cannot fill a draw, the killer's seen set resets
// and a new no-repeat cycle begins; a draw always offers a full hand.
func (s *Session) drawPowerOptions(killerID string) []string {
	var pool []string
	for _, p := range powerCatalog {
		if s.cfg.FreshPowerDraws {
			if _, seen := s.SeenPowers[killerID][p.Name]; seen {
				continue
			}
		}
		pool = append(pool, p.Name)
	}
	if s.cfg.FreshPowerDraws && len(pool) < s.cfg.PowerOptions {
		delete(s.SeenPowers, killerID)
		pool = pool[:0]
		for _, p := range powerCatalog {
			pool = append(pool, p.Name)
		}
	}
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	count := s.cfg.PowerOptions
	if count > len(pool) {
		count = len(pool)
	}
	options := pool[:count]
	if s.cfg.FreshPowerDraws {
		if s.SeenPowers[killerID] == nil {
			s.SeenPowers[killerID] = make(map[string]struct{})
		}
		for _, name := range options {
			s.SeenPowers[killerID][name] = struct{}{}
		}
	}
	return options
}

// applyPowerSelections runs every complete selection once the sub-phase
// gate closes. Effects for the same power accumulate into one shared record.
func (s *Session) applyPowerSelections() {
	s.ActivePowers = make(map[string]*ActivePower)
	for _, id := range s.Order {
		selection, ok := s.PowerSelections[id]
		if !ok || selection.Selected == "" {
			continue
		}
		power, ok := powerByName(selection.Selected)
		if !ok {
			continue
		}
		user := s.Players[id]
		active := s.ActivePowers[power.Name]
		if active == nil {
			active = &ActivePower{}
			s.ActivePowers[power.Name] = active
		}
		active.UsedBy = append(active.UsedBy, id)
		power.apply(s, user, selection.Targets)
		s.logEvent(eventPowerUsed, fmt.Sprintf("%s unleashed %s.", user.Name, power.Title), RoleKiller)
	}
}

func applyReveal(s *Session, _ *Player, _ PowerTargets) {
	unsearchedByFloor := make(map[string][]string)
	total := 0
	for _, name := range s.catalog.AllRooms() {
		if _, searched := s.Searched[name]; searched {
			continue
		}
		floor := s.catalog.FloorOf(name)
		unsearchedByFloor[floor] = append(unsearchedByFloor[floor], name)
		total++
	}
	want := total / 2
	if want == 0 {
		return
	}
	for _, rooms := range unsearchedByFloor {
		s.rng.Shuffle(len(rooms), func(i, j int) {
			rooms[i], rooms[j] = rooms[j], rooms[i]
		})
	}
	// Round-robin across floors so the highlight spread carries no floor bias.
	picked := 0
	index := make(map[string]int)
	for picked < want {
		progress := false
		floors := s.catalog.Floors()
		s.rng.Shuffle(len(floors), func(i, j int) {
			floors[i], floors[j] = floors[j], floors[i]
		})
		for _, floor := range floors {
			if picked >= want {
				break
			}
			rooms := unsearchedByFloor[floor]
			if index[floor] < len(rooms) {
				s.Rooms[rooms[index[floor]]].Highlighted = true
				index[floor]++
				picked++
				progress = true
			}
		}
		if !progress {
			break
		}
	}
}

func applyLocate(s *Session, _ *Player, targets PowerTargets) {
	heard := false
	for id, room := range s.Pending {
		p := s.Players[id]
		if p == nil || p.Role != RoleSurvivor {
			continue
		}
		if s.catalog.FloorOf(room) == targets.Floor {
			heard = true
			break
		}
	}
	if heard {
		s.logEvent(eventSoundClue, fmt.Sprintf("You hear noise %s...", floorLabel(targets.Floor)), RoleKiller)
	} else {
		s.logEvent(eventSoundClue, fmt.Sprintf("No sound comes from %s.", floorLabel(targets.Floor)), RoleKiller)
	}
}

func floorLabel(floor string) string {
	switch floor {
	case FloorBasement:
		return "down in the basement"
	case FloorGround:
		return "on the ground floor"
	case FloorUpper:
		return "upstairs"
	default:
		return "on " + floor
	}
}
