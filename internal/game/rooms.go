package game

// Catalog is the static manor topology: floors in display order, each with
// its ordered room names. It is shared read-only by every session.
type Catalog struct {
	floors []string
	rooms  map[string][]string
	floor  map[string]string
}

// NewCatalog builds a catalog from floor order and floor -> rooms mapping.
func NewCatalog(floors []string, rooms map[string][]string) *Catalog {
	c := &Catalog{
		floors: append([]string(nil), floors...),
		rooms:  make(map[string][]string, len(rooms)),
		floor:  make(map[string]string),
	}
	for _, f := range floors {
		c.rooms[f] = append([]string(nil), rooms[f]...)
		for _, r := range rooms[f] {
			c.floor[r] = f
		}
	}
	return c
}

const (
	FloorBasement = "basement"
	FloorGround   = "ground_floor"
	FloorUpper    = "upper_floor"
)

// DefaultCatalog returns the reference manor: three floors of four rooms.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]string{FloorBasement, FloorGround, FloorUpper},
		map[string][]string{
			FloorBasement: {"Cave", "Wine Cellar", "Boiler Room", "Storage"},
			FloorGround:   {"Kitchen", "Living Room", "Dining Room", "Hallway"},
			FloorUpper:    {"Master Bedroom", "Guest Room", "Bathroom", "Attic"},
		},
	)
}

func (c *Catalog) Floors() []string {
	return append([]string(nil), c.floors...)
}

// AllRooms returns every room name in floor order.
func (c *Catalog) AllRooms() []string {
	var all []string
	for _, f := range c.floors {
		all = append(all, c.rooms[f]...)
	}
	return all
}

func (c *Catalog) RoomsOnFloor(floor string) []string {
	return append([]string(nil), c.rooms[floor]...)
}

// FloorOf returns the floor holding room, or "" for an unknown room.
func (c *Catalog) FloorOf(room string) string {
	return c.floor[room]
}

func (c *Catalog) HasFloor(floor string) bool {
	_, ok := c.rooms[floor]
	return ok
}

func (c *Catalog) HasRoom(room string) bool {
	_, ok := c.floor[room]
	return ok
}
