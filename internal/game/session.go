package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// NewSession builds an empty session in the waiting phase. rng may be nil,
// in which case a time-seeded source is used; tests inject a fixed seed.
func NewSession(code string, catalog *Catalog, cfg Config, rng *rand.Rand) *Session {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Session{
		Code:            code,
		Players:         make(map[string]*Player),
		Rooms:           make(map[string]*Room),
		Phase:           PhaseWaiting,
		Pending:         make(map[string]string),
		PowerSelections: make(map[string]*PowerSelection),
		ActivePowers:    make(map[string]*ActivePower),
		Searched:        make(map[string]struct{}),
		SeenPowers:      make(map[string]map[string]struct{}),
		RageGrants:      make(map[string]struct{}),
		RageActive:      make(map[string]struct{}),
		RagePending:     make(map[string]string),
		CreatedAt:       time.Now().UTC(),
		catalog:         catalog,
		cfg:             cfg,
		rng:             rng,
	}
	for _, name := range catalog.AllRooms() {
		s.Rooms[name] = &Room{Name: name, Floor: catalog.FloorOf(name)}
	}
	return s
}

// Catalog exposes the read-only topology backing this session.
func (s *Session) Catalog() *Catalog {
	return s.catalog
}

// Join adds a player to the roster. The first player becomes the host.
func (s *Session) Join(name, class string, role Role) (*Player, error) {
	if s.Started {
		return nil, &CapacityError{Reason: "game already started"}
	}
	if len(s.Players) >= s.cfg.MaxPlayers {
		return nil, &CapacityError{Reason: "game is full"}
	}
	if role != RoleSurvivor && role != RoleKiller {
		return nil, rejection("invalid role")
	}
	player := &Player{
		ID:    uuid.NewString(),
		Name:  name,
		Class: class,
		Role:  role,
	}
	if len(s.Players) == 0 {
		player.IsHost = true
		s.HostID = player.ID
	}
	s.Players[player.ID] = player
	s.Order = append(s.Order, player.ID)
	s.logEvent(eventPlayerJoined, fmt.Sprintf("%s joined the manor.", name), "")
	s.queueStateUpdate()
	return player, nil
}

// ChangeRole flips a player's side while the lobby is open.
func (s *Session) ChangeRole(playerID string, role Role) error {
	if s.Started {
		return rejection("cannot change role during game")
	}
	player, ok := s.Players[playerID]
	if !ok {
		return rejection("player not found")
	}
	if role != RoleSurvivor && role != RoleKiller {
		return rejection("invalid role")
	}
	player.Role = role
	s.logEvent(eventRoleChanged, fmt.Sprintf("%s now plays as %s.", player.Name, role), "")
	s.queueStateUpdate()
	return nil
}

// conspiracyDistribution maps player count to survivor count when roles are
// randomly assigned at start.
var conspiracyDistribution = map[int]int{
	3: 2, 4: 2, 5: 3, 6: 4, 7: 4, 8: 5,
}

func (s *Session) assignConspiracyRoles() {
	survivors, ok := conspiracyDistribution[len(s.Order)]
	if !ok {
		survivors = len(s.Order) - 1
		if survivors < 1 {
			survivors = 1
		}
	}
	shuffled := append([]string(nil), s.Order...)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for i, id := range shuffled {
		if i < survivors {
			s.Players[id].Role = RoleSurvivor
		} else {
			s.Players[id].Role = RoleKiller
		}
	}
}

// Start validates the role composition and opens turn 1. In conspiracy mode
// roles are reassigned randomly first.
func (s *Session) Start() error {
	if s.Started {
		return &CapacityError{Reason: "game already started"}
	}
	if s.ConspiracyMode {
		s.assignConspiracyRoles()
	}
	survivors, killers := 0, 0
	classes := make(map[string]string)
	for _, id := range s.Order {
		p := s.Players[id]
		switch p.Role {
		case RoleSurvivor:
			survivors++
			if other, dup := classes[p.Class]; dup {
				return &CompositionError{Reason: fmt.Sprintf("%s and %s share the %s class", other, p.Name, p.Class)}
			}
			classes[p.Class] = p.Name
		case RoleKiller:
			killers++
		}
	}
	if survivors == 0 {
		return &CompositionError{Reason: "at least one survivor is required"}
	}
	if killers == 0 {
		return &CompositionError{Reason: "at least one killer is required"}
	}

	s.Started = true
	s.Turn = 1
	s.Phase = PhaseSurvivorSelection
	s.buildQuestQueue()
	s.placeActiveQuest()
	s.placeRevivalItem()

	s.logEvent(eventGameStarted,
		fmt.Sprintf("The hunt begins. %d objective(s) to complete before the crystal appears. Turn 1: survivors pick a room.", len(s.Quests.Queue)),
		"")
	s.queue(Audience{}, map[string]any{
		"type":             "game_started",
		"objectives_total": len(s.Quests.Queue),
		"phase":            PhaseSurvivorSelection,
		"turn":             1,
	})
	s.queueStateUpdate()
	return nil
}

// Reset returns the session to the pre-start lobby, keeping the roster.
func (s *Session) Reset() {
	for _, p := range s.Players {
		p.Eliminated = false
		p.CurrentRoom = ""
		p.HasRevivalItem = false
		p.Gold = 0
		p.PoisonCountdown = 0
		p.ImmobilizedNextTurn = false
	}
	for _, room := range s.Rooms {
		room.clearTransientRoomState()
	}
	s.Started = false
	s.Turn = 0
	s.Phase = PhaseWaiting
	s.Winner = WinnerNone
	s.Events = nil
	s.Pending = make(map[string]string)
	s.PowerSelections = make(map[string]*PowerSelection)
	s.ActivePowers = make(map[string]*ActivePower)
	s.Quests = QuestLog{}
	s.CrystalSpawned = false
	s.CrystalTaken = false
	s.Searched = make(map[string]struct{})
	s.SeenPowers = make(map[string]map[string]struct{})
	s.RageGrants = make(map[string]struct{})
	s.RageActive = make(map[string]struct{})
	s.RagePending = make(map[string]string)
	s.questFoundThisTurn = false
	s.revivalPending = false

	s.logEvent(eventGameReset, "The game is over. Ready for a rematch?", "")
	s.queueStateUpdate()
}

// livingPlayers returns non-eliminated players of one role, insertion order.
func (s *Session) livingPlayers(role Role) []*Player {
	var out []*Player
	for _, id := range s.Order {
		p := s.Players[id]
		if p.Role == role && !p.Eliminated {
			out = append(out, p)
		}
	}
	return out
}
