package battle

import (
	"log/slog"

	"github.com/udisondev/areaelements/internal/areaelement"
)

// Settings are the area element tunables of a battle session.
type Settings struct {
	MaxElements int
	Policy      areaelement.OverflowPolicy
	RatePercent int
}

// MapSession owns the stable ledger. It lives from map load until the next
// map change; stable tokens carry over between battles on the same map.
type MapSession struct {
	defs     *areaelement.Definitions
	mapID    int32
	capacity int
	stable   *areaelement.Ledger
}

// NewMapSession creates the session for mapID. A stableCapacity of 0
// disables the stable ledger.
func NewMapSession(defs *areaelement.Definitions, mapID int32, stableCapacity int) *MapSession {
	m := &MapSession{defs: defs, capacity: stableCapacity}
	m.load(mapID)
	return m
}

func (m *MapSession) load(mapID int32) {
	m.mapID = mapID
	m.stable = areaelement.NewLedger("stable", m.defs, m.capacity, areaelement.EvictOldest)
}

// MapID returns the current map.
func (m *MapSession) MapID() int32 { return m.mapID }

// Stable returns the stable ledger of the current map.
func (m *MapSession) Stable() *areaelement.Ledger { return m.stable }

// ChangeMap drops the stable ledger and starts a fresh one for mapID.
// Changing to the same map keeps the ledger.
func (m *MapSession) ChangeMap(mapID int32) {
	if mapID == m.mapID {
		return
	}
	slog.Debug("map changed, stable area elements dropped",
		"from", m.mapID,
		"to", mapID,
		"dropped", m.stable.Len())
	m.load(mapID)
}

// SetStableCapacity reconfigures the stable ledger without trimming it.
func (m *MapSession) SetStableCapacity(n int) {
	m.capacity = n
	m.stable.SetCapacity(n)
}

// Session is the battle-session context. It owns the transient ledger and
// borrows the stable ledger from its map session.
type Session struct {
	defs      *areaelement.Definitions
	settings  Settings
	mapSess   *MapSession
	transient *areaelement.Ledger
	inBattle  bool
}

// NewSession creates an idle battle session bound to mapSess.
func NewSession(defs *areaelement.Definitions, mapSess *MapSession, settings Settings) *Session {
	return &Session{
		defs:      defs,
		settings:  settings,
		mapSess:   mapSess,
		transient: areaelement.NewLedger("transient", defs, settings.MaxElements, settings.Policy),
	}
}

// Start begins a battle with an empty transient ledger.
func (s *Session) Start() {
	s.transient.Clear()
	s.inBattle = true
	slog.Debug("battle started", "map", s.mapSess.MapID(), "stable", s.mapSess.Stable().Len())
}

// End finishes the battle and clears the transient ledger.
func (s *Session) End() {
	s.transient.Clear()
	s.inBattle = false
	slog.Debug("battle ended", "map", s.mapSess.MapID())
}

// InBattle reports whether a battle is active.
func (s *Session) InBattle() bool { return s.inBattle }

// Definitions returns the element table.
func (s *Session) Definitions() *areaelement.Definitions { return s.defs }

// Settings returns the current tunables.
func (s *Session) Settings() Settings { return s.settings }

// Reconfigure applies new tunables. Capacity changes are corrected lazily.
func (s *Session) Reconfigure(settings Settings) {
	s.settings = settings
	s.transient.SetCapacity(settings.MaxElements)
	s.transient.SetPolicy(settings.Policy)
}

// Map returns the map session.
func (s *Session) Map() *MapSession { return s.mapSess }

// Transient returns the per-battle ledger.
func (s *Session) Transient() *areaelement.Ledger { return s.transient }

// Stable returns the stable ledger of the current map.
func (s *Session) Stable() *areaelement.Ledger { return s.mapSess.Stable() }

// View returns the combined view over the transient and current stable ledger.
func (s *Session) View() *areaelement.CombinedView {
	return areaelement.NewCombinedView(s.defs, s.transient, s.mapSess.Stable())
}
