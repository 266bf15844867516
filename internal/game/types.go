package game

import (
	"fmt"
	"strconv"
	"strings"
)

// CellUnits is the number of sub-cell units along one side of a cell.
// Movement math runs in sub-cell units, everything else in cells.
const CellUnits = 100

const cellHalf = CellUnits / 2

// Wall represents the primary state of a grid cell.
type Wall int

const (
	Empty Wall = iota
	Brick      // Destructible by fire
	Concrete   // Indestructible
	Death      // Kills anything inside
	DeathWarning
	GatewayEntrance
	GatewayExit
	wallCount
)

var wallNames = [wallCount]string{"empty", "brick", "concrete", "death", "death_warning", "gateway_entrance", "gateway_exit"}

// wallCodes are the single-letter codes used by the level token stream.
var wallCodes = [wallCount]byte{'E', 'B', 'C', 'D', 'W', 'N', 'X'}

func (w Wall) String() string {
	if w < 0 || w >= wallCount {
		return fmt.Sprintf("wall(%d)", int(w))
	}
	return wallNames[w]
}

// StopsFire reports whether a fire ray ends before entering the cell.
func (w Wall) StopsFire() bool {
	switch w {
	case Concrete, Death, DeathWarning, GatewayEntrance, GatewayExit:
		return true
	}
	return false
}

// IsGateway reports whether the wall is either gateway variant.
func (w Wall) IsGateway() bool {
	return w == GatewayEntrance || w == GatewayExit
}

// Item is a pick-up lying on a cell.
type Item int

const (
	ItemNone Item = iota
	ItemBomb
	ItemFire
	ItemSuperFire
	ItemRollerSkates
	ItemBoots
	ItemGloves
	ItemTrigger
	ItemJelly
	ItemWallClimbing
	ItemSprinkle
	ItemWallBuilding
	ItemDisease
	ItemCount
)

type itemInfo struct {
	name        string
	code        byte
	accumulable bool
	antagonist  Item
	dropWeight  int
}

var itemTable = [ItemCount]itemInfo{
	ItemNone:         {name: "none", code: '-'},
	ItemBomb:         {name: "bomb", code: 'b', accumulable: true, dropWeight: 10},
	ItemFire:         {name: "fire", code: 'f', accumulable: true, dropWeight: 10},
	ItemSuperFire:    {name: "super_fire", code: 's', dropWeight: 2},
	ItemRollerSkates: {name: "roller_skates", code: 'r', accumulable: true, dropWeight: 6},
	ItemBoots:        {name: "boots", code: 'k', dropWeight: 4},
	ItemGloves:       {name: "gloves", code: 'g', dropWeight: 3},
	ItemTrigger:      {name: "trigger", code: 't', antagonist: ItemJelly, dropWeight: 2},
	ItemJelly:        {name: "jelly", code: 'j', antagonist: ItemTrigger, dropWeight: 2},
	ItemWallClimbing: {name: "wall_climbing", code: 'c', dropWeight: 2},
	ItemSprinkle:     {name: "sprinkle", code: 'p', dropWeight: 2},
	ItemWallBuilding: {name: "wall_building", code: 'w', accumulable: true, dropWeight: 2},
	ItemDisease:      {name: "disease", code: 'd', dropWeight: 3},
}

func (it Item) String() string {
	if it < 0 || it >= ItemCount {
		return fmt.Sprintf("item(%d)", int(it))
	}
	return itemTable[it].name
}

// Accumulable reports whether repeated pick-ups add up.
func (it Item) Accumulable() bool {
	return it > ItemNone && it < ItemCount && itemTable[it].accumulable
}

// Direction represents a movement direction.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Directions lists the four directions in propagation order.
var Directions = [4]Direction{DirUp, DirDown, DirLeft, DirRight}

var dirDeltas = [4]Position{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

var dirNames = [4]string{"up", "down", "left", "right"}

func (d Direction) String() string {
	if d < DirUp || d > DirRight {
		return fmt.Sprintf("dir(%d)", int(d))
	}
	return dirNames[d]
}

// Delta returns the unit cell offset of the direction.
func (d Direction) Delta() (int, int) {
	p := dirDeltas[d]
	return p.X, p.Y
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirLeft
	}
}

// Horizontal reports whether the direction moves along the X axis.
func (d Direction) Horizontal() bool {
	return d == DirLeft || d == DirRight
}

// DirectionSet is a bit set of directions.
type DirectionSet uint8

func (s DirectionSet) Has(d Direction) bool { return s&(1<<uint(d)) != 0 }

func (s DirectionSet) With(d Direction) DirectionSet { return s | 1<<uint(d) }

// Key is a control key of a player.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyFunction1
	KeyFunction2
	KeyCount
)

var keyNames = [KeyCount]string{"up", "down", "left", "right", "fn1", "fn2"}

func (k Key) String() string {
	if k < 0 || k >= KeyCount {
		return fmt.Sprintf("key(%d)", int(k))
	}
	return keyNames[k]
}

// Direction maps a directional key to its direction.
func (k Key) Direction() (Direction, bool) {
	if k >= KeyUp && k <= KeyRight {
		return Direction(k), true
	}
	return 0, false
}

// KeyFor returns the directional key of d.
func KeyFor(d Direction) Key { return Key(d) }

// ParseKey parses the textual key name used in action strings.
func ParseKey(s string) (Key, error) {
	for i, name := range keyNames {
		if name == s {
			return Key(i), nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", s)
}

// KeyEvent is a single press or release of a player's key.
type KeyEvent struct {
	Player  int  `json:"player" msgpack:"player"`
	Key     Key  `json:"key" msgpack:"key"`
	Pressed bool `json:"pressed" msgpack:"pressed"`
}

// String formats the event as an action string, e.g. "2:left:+".
func (e KeyEvent) String() string {
	state := "-"
	if e.Pressed {
		state = "+"
	}
	return fmt.Sprintf("%d:%s:%s", e.Player, e.Key, state)
}

// ParseKeyEvent parses an action string produced by KeyEvent.String.
func ParseKeyEvent(s string) (KeyEvent, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return KeyEvent{}, fmt.Errorf("malformed action %q", s)
	}
	player, err := strconv.Atoi(parts[0])
	if err != nil || player < 0 {
		return KeyEvent{}, fmt.Errorf("malformed player in action %q", s)
	}
	key, err := ParseKey(parts[1])
	if err != nil {
		return KeyEvent{}, fmt.Errorf("parse action %q: %w", s, err)
	}
	var pressed bool
	switch parts[2] {
	case "+":
		pressed = true
	case "-":
	default:
		return KeyEvent{}, fmt.Errorf("malformed key state in action %q", s)
	}
	return KeyEvent{Player: player, Key: key, Pressed: pressed}, nil
}

// InputBatch holds the key events collected for one tick, keyed by client index.
type InputBatch map[int][]KeyEvent

// Activity is the animated action state of a player.
type Activity int

const (
	Standing Activity = iota
	Walking
	StandingWithBomb
	WalkingWithBomb
	Kicking
	Punching
	PickingUp
	Dying
	activityCount
)

type activityInfo struct {
	name       string
	iterations int
	repeatable bool
}

var activityTable = [activityCount]activityInfo{
	Standing:         {"standing", 1, true},
	Walking:          {"walking", 8, true},
	StandingWithBomb: {"standing_with_bomb", 1, true},
	WalkingWithBomb:  {"walking_with_bomb", 8, true},
	Kicking:          {"kicking", 5, false},
	Punching:         {"punching", 5, false},
	PickingUp:        {"picking_up", 4, false},
	Dying:            {"dying", 25, false},
}

func (a Activity) String() string {
	if a < 0 || a >= activityCount {
		return fmt.Sprintf("activity(%d)", int(a))
	}
	return activityTable[a].name
}

// busy activities block movement and input until they complete.
func (a Activity) busy() bool {
	return a == Kicking || a == Punching || a == PickingUp
}

// BombPhase is the physical state of a bomb.
type BombPhase int

const (
	PhaseFlying BombPhase = iota
	PhaseRolling
	PhaseStanding
)

func (p BombPhase) String() string {
	switch p {
	case PhaseFlying:
		return "flying"
	case PhaseRolling:
		return "rolling"
	case PhaseStanding:
		return "standing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// BombType selects how a bomb is detonated and how it reacts to obstacles.
type BombType int

const (
	BombNormal BombType = iota
	BombJelly
	BombTriggered
)

func (t BombType) String() string {
	switch t {
	case BombNormal:
		return "normal"
	case BombJelly:
		return "jelly"
	case BombTriggered:
		return "triggered"
	default:
		return fmt.Sprintf("bomb_type(%d)", int(t))
	}
}

// FireShape is the visual shape of a fire.
type FireShape int

const (
	FireCrossing FireShape = iota
	FireHorizontal
	FireVertical
)

// Disease is a temporary status effect.
type Disease int

const (
	DiseaseSlow Disease = iota
	DiseaseFast
	DiseaseReverseKeys
	DiseaseNoBombs
	DiseaseDiarrhea
	DiseaseShortFire
	DiseaseCount
)

var diseaseNames = [DiseaseCount]string{"slow", "fast", "reverse_keys", "no_bombs", "diarrhea", "short_fire"}

func (d Disease) String() string {
	if d < 0 || d >= DiseaseCount {
		return fmt.Sprintf("disease(%d)", int(d))
	}
	return diseaseNames[d]
}

// Position represents a cell coordinate on the grid.
type Position struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Add returns the position n cells away in direction d.
func (p Position) Add(d Direction, n int) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx*n, Y: p.Y + dy*n}
}

// Centre returns the sub-cell coordinates of the cell centre.
func (p Position) Centre() (int, int) {
	return p.X*CellUnits + cellHalf, p.Y*CellUnits + cellHalf
}

// CellOf maps sub-cell coordinates to their cell.
func CellOf(x, y int) Position {
	return Position{X: floorDiv(x, CellUnits), Y: floorDiv(y, CellUnits)}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// GameStatus represents the current match phase.
type GameStatus int

const (
	StatusLobby       GameStatus = iota // Waiting for players
	StatusRunning                       // Round in progress
	StatusRoundEnding                   // Win condition met, dying animations play out
	StatusRoundOver                     // Between rounds
	StatusOver                          // Match finished
	StatusAborted                       // Round aborted on an internal error
)

var statusNames = []string{"lobby", "running", "round_ending", "round_over", "over", "aborted"}

func (s GameStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}
