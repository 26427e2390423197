package game

import (
	"math/rand"
	"time"
)

type Role string

const (
	RoleSurvivor Role = "survivor"
	RoleKiller   Role = "killer"
)

type Phase string

const (
	PhaseWaiting              Phase = "waiting"
	PhaseSurvivorSelection    Phase = "survivor_selection"
	PhaseKillerPowerSelection Phase = "killer_power_selection"
	PhaseKillerSelection      Phase = "killer_selection"
	PhaseProcessing           Phase = "processing"
	PhaseRageSecondSelection  Phase = "rage_second_selection"
	PhaseGameOver             Phase = "game_over"
)

type Winner string

const (
	WinnerNone      Winner = ""
	WinnerSurvivors Winner = "survivors"
	WinnerKillers   Winner = "killers"
)

type Player struct {
	ID                  string
	Name                string
	Class               string
	Role                Role
	IsHost              bool
	Eliminated          bool
	CurrentRoom         string
	HasRevivalItem      bool
	Gold                int
	PoisonCountdown     int
	ImmobilizedNextTurn bool
}

type Room struct {
	Name           string
	Floor          string
	Locked         bool
	Trapped        bool
	TrapTriggered  bool
	PoisonTurns    int
	HasMimic       bool
	HasQuest       bool
	QuestClass     string
	HasCrystal     bool
	HasRevivalItem bool
	Highlighted    bool
	EliminatedHere []string
}

// Quest is one survivor objective, keyed by the owning player's class.
type Quest struct {
	Class   string
	OwnerID string
}

// QuestLog tracks the shuffled objective queue built at game start. The next
// queued quest is placed only after the previous one is satisfied.
type QuestLog struct {
	Queue            []Quest
	Completed        []string
	PendingPlacement bool
}

// ActiveQuest returns the quest currently due: the first not yet completed.
func (q *QuestLog) ActiveQuest() (Quest, bool) {
	if len(q.Completed) >= len(q.Queue) {
		return Quest{}, false
	}
	return q.Queue[len(q.Completed)], true
}

func (q *QuestLog) AllCompleted() bool {
	return len(q.Queue) > 0 && len(q.Completed) >= len(q.Queue)
}

// PowerTargets is the payload of a targeted power: rooms or a floor,
// depending on the power's targeting kind.
type PowerTargets struct {
	Rooms []string `json:"rooms,omitempty"`
	Floor string   `json:"floor,omitempty"`
}

// PowerSelection is one killer's in-progress draw for the current
// power-selection sub-phase.
type PowerSelection struct {
	Options  []string
	Selected string
	Targets  PowerTargets
	Complete bool
}

// ActivePower accumulates the effects of one power name across every killer
// that picked it this turn. Cleared when the next power selection opens.
type ActivePower struct {
	UsedBy          []string
	TrappedRooms    []string
	PoisonedRooms   []string
	BarricadedRooms []string
	DecoyRooms      []string
	RelocateOnMiss  bool
}

// Event is one entry of the append-only session log. Audience "" means the
// entry is visible to both roles.
type Event struct {
	Message  string `json:"message"`
	Kind     string `json:"type"`
	Audience Role   `json:"for_role,omitempty"`
}

// Audience selects the recipients of an outbound message. The zero value
// addresses every connected player in the session.
type Audience struct {
	Role     Role
	PlayerID string
}

// Outbound is a broadcast request for the transport collaborator. State
// payloads are filtered per recipient role before delivery.
type Outbound struct {
	Audience Audience
	Payload  map[string]any
}

// Config carries the tunable rules of a session.
type Config struct {
	MaxPlayers      int
	PowerOptions    int
	PoisonRoomTurns int
	PoisonCountdown int
	SearchReward    int
	BarricadeRooms  int
	DecoyRooms      int
	FreshPowerDraws bool
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:      8,
		PowerOptions:    3,
		PoisonRoomTurns: 3,
		PoisonCountdown: 10,
		SearchReward:    10,
		BarricadeRooms:  2,
		DecoyRooms:      2,
	}
}

// Session owns all truth for one game. It is not safe for concurrent use;
// the store serializes every operation on it behind a per-session actor.
type Session struct {
	Code           string
	HostID         string
	Players        map[string]*Player
	Order          []string
	Rooms          map[string]*Room
	Phase          Phase
	Turn           int
	Started        bool
	Winner         Winner
	ConspiracyMode bool
	Events         []Event
	CreatedAt      time.Time

	// Per-turn bookkeeping.
	Pending         map[string]string
	PowerSelections map[string]*PowerSelection
	ActivePowers    map[string]*ActivePower
	Quests          QuestLog
	CrystalSpawned  bool
	CrystalTaken    bool
	Searched        map[string]struct{}
	SeenPowers      map[string]map[string]struct{}
	RageGrants      map[string]struct{}
	RageActive      map[string]struct{}
	RagePending     map[string]string

	catalog            *Catalog
	cfg                Config
	rng                *rand.Rand
	outbox             []Outbound
	questFoundThisTurn bool
	revivalPending     bool
}
