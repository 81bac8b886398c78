package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/udisondev/areaelements/internal/areaelement"
	"github.com/udisondev/areaelements/internal/battle"
)

// Command groups.
const (
	GroupAreaElement       = "AreaElement"
	GroupStableAreaElement = "StableAreaElement"
)

// Sub-actions.
const (
	OpAdd    = "add"
	OpVsAdd  = "vs_add"
	OpRemove = "remove"
	OpClear  = "clear"
)

var (
	// ErrUnknownCommand is returned for an unknown group or sub-action.
	ErrUnknownCommand = errors.New("unknown area element command")
	// ErrBadArgument is returned when the element id is missing or malformed.
	ErrBadArgument = errors.New("bad area element argument")
)

// Command is one parsed command line.
type Command struct {
	Group   string
	Op      string
	Element areaelement.Token
}

func (c Command) String() string {
	if c.Op == OpClear {
		return c.Group + " " + c.Op
	}
	return fmt.Sprintf("%s %s %d", c.Group, c.Op, c.Element)
}

var allowedOps = map[string]map[string]bool{
	GroupAreaElement:       {OpAdd: true, OpVsAdd: true, OpRemove: true, OpClear: true},
	GroupStableAreaElement: {OpAdd: true, OpRemove: true, OpClear: true},
}

// Parse reads "AreaElement add 3" style lines.
// clear takes no argument; every other sub-action needs a positive id.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}

	group, op := fields[0], strings.ToLower(fields[1])
	ops, ok := allowedOps[group]
	if !ok || !ops[op] {
		return Command{}, fmt.Errorf("%w: %s %s", ErrUnknownCommand, group, op)
	}

	cmd := Command{Group: group, Op: op}
	if op == OpClear {
		if len(fields) > 2 {
			return Command{}, fmt.Errorf("%w: clear takes no argument", ErrBadArgument)
		}
		return cmd, nil
	}

	if len(fields) != 3 {
		return Command{}, fmt.Errorf("%w: %s %s needs one element id", ErrBadArgument, group, op)
	}
	id, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil || id <= 0 {
		return Command{}, fmt.Errorf("%w: element id %q", ErrBadArgument, fields[2])
	}
	cmd.Element = areaelement.Token(id)
	return cmd, nil
}

// Dispatcher applies commands to a battle session.
type Dispatcher struct {
	session *battle.Session
}

// NewDispatcher creates a dispatcher bound to session.
func NewDispatcher(session *battle.Session) *Dispatcher {
	return &Dispatcher{session: session}
}

// Execute applies cmd. Outside an active battle it does nothing and
// reports false.
func (d *Dispatcher) Execute(cmd Command) bool {
	if !d.session.InBattle() {
		slog.Debug("area element command ignored outside battle", "cmd", cmd.String())
		return false
	}

	ledger := d.session.Transient()
	if cmd.Group == GroupStableAreaElement {
		ledger = d.session.Stable()
	}

	switch cmd.Op {
	case OpAdd:
		ledger.Add(cmd.Element)
	case OpVsAdd:
		ledger.VersusAdd(cmd.Element)
	case OpRemove:
		ledger.Remove(cmd.Element)
	case OpClear:
		ledger.Clear()
	default:
		return false
	}
	return true
}

// Run parses and executes a command line.
func (d *Dispatcher) Run(line string) (bool, error) {
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}
	return d.Execute(cmd), nil
}
