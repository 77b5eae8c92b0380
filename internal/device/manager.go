package device

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/openlux/luxd/internal/preferences"
	"github.com/openlux/luxd/internal/universe"
)

// MissingDeviceAlias is the alias reported for a unique ID the manager
// has never seen. Real aliases start at 1.
const MissingDeviceAlias = 0

const firstDeviceAlias = 1

// PortPreferenceNamespace is the preference namespace holding port
// patchings, keyed by port unique ID with a decimal universe ID value.
const PortPreferenceNamespace = "port"

// UniverseProvider supplies universes for port patching. Satisfied by
// *universe.Store.
type UniverseProvider interface {
	GetOrCreate(ctx context.Context, id int) (*universe.Universe, error)
}

// Logger is the narrow logging interface the manager depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}
func (noopLogger) Error(string, ...any) {}

// Notifier receives device lifecycle callbacks. Callbacks run after the
// manager's state change is complete, outside its lock, on the calling
// goroutine.
type Notifier interface {
	DeviceRegistered(info Info)
	DeviceUnregistered(info Info)
	PortPatched(alias, portID, universeID int)
	PortUnpatched(alias, portID int)
}

type noopNotifier struct{}

func (noopNotifier) DeviceRegistered(Info) {}
func (noopNotifier) DeviceUnregistered(Info) {}
func (noopNotifier) PortPatched(int, int, int) {}
func (noopNotifier) PortUnpatched(int, int) {}

// Entry pairs a device with its alias. A zero Entry (alias
// MissingDeviceAlias, nil device) means the unique ID is unknown.
type Entry struct {
	Alias  int
	Device Device
}

// record is the durable identity of a unique ID. Records are created on
// first registration and never deleted: the alias survives disconnects so
// a device that returns gets the same alias back.
type record struct {
	alias  int
	device Device // nil while disconnected
}

// Manager tracks the devices plugins have registered and assigns each
// unique ID a session-stable numeric alias.
//
// The manager keeps two views: a by-ID map of identity records, which only
// grows, and a by-alias index of currently connected devices. Port
// patchings are written to the "port" preference namespace on unregister
// and patch changes, and restored on registration, so patches survive both
// device reconnects and daemon restarts.
type Manager struct {
	prefs     preferences.Store
	universes UniverseProvider
	logger    Logger
	notifier  Notifier

	mu        sync.RWMutex
	records   map[string]*record
	aliases   map[int]Device
	nextAlias int
}

// NewManager creates a device manager. prefs is the port-patching
// preference store (use a Factory's "port" namespace); universes supplies
// patch targets.
func NewManager(prefs preferences.Store, universes UniverseProvider) *Manager {
	return &Manager{
		prefs:     prefs,
		universes: universes,
		logger:    noopLogger{},
		notifier:  noopNotifier{},
		records:   make(map[string]*record),
		aliases:   make(map[int]Device),
		nextAlias: firstDeviceAlias,
	}
}

// SetLogger replaces the no-op logger.
func (m *Manager) SetLogger(logger Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// SetNotifier replaces the no-op notifier.
func (m *Manager) SetNotifier(n Notifier) {
	if n != nil {
		m.notifier = n
	}
}

// Register adds a device to the manager and restores its persisted port
// patchings. A unique ID seen before gets its previous alias back; a new
// one gets the next alias. Fails with ErrAlreadyRegistered if a connected
// device already holds the ID.
func (m *Manager) Register(ctx context.Context, d Device) error {
	if d == nil {
		return ErrNilDevice
	}
	id := d.UniqueID()
	if id == "" {
		return ErrMissingUniqueID
	}

	m.mu.Lock()
	rec, ok := m.records[id]
	var alias int
	switch {
	case ok && rec.device != nil:
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	case ok:
		// Reconnect: the identity record keeps its alias.
		rec.device = d
		alias = rec.alias
	default:
		alias = m.nextAlias
		m.nextAlias++
		m.records[id] = &record{alias: alias, device: d}
	}
	m.aliases[alias] = d
	m.mu.Unlock()

	m.restorePortPatchings(ctx, d)

	m.logger.Info("device registered",
		"alias", alias, "unique_id", id, "name", d.Name(), "plugin_id", d.PluginID())
	m.notifier.DeviceRegistered(Describe(alias, d))
	return nil
}

// Unregister removes the given device. The identity record and its alias
// are kept; port patchings are saved first so they can be restored if the
// device returns.
func (m *Manager) Unregister(ctx context.Context, d Device) error {
	if d == nil {
		return ErrNilDevice
	}
	if d.UniqueID() == "" {
		return ErrMissingUniqueID
	}

	m.mu.Lock()
	rec, ok := m.records[d.UniqueID()]
	if !ok || rec.device != d {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRegistered, d.UniqueID())
	}
	info := m.unregisterLocked(rec)
	m.mu.Unlock()

	m.flushPatchings(ctx)
	m.logger.Info("device unregistered", "alias", info.Alias, "unique_id", info.UniqueID)
	m.notifier.DeviceUnregistered(info)
	return nil
}

// UnregisterID removes the connected device with the given unique ID.
func (m *Manager) UnregisterID(ctx context.Context, id string) error {
	m.mu.Lock()
	rec, ok := m.records[id]
	if !ok || rec.device == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	info := m.unregisterLocked(rec)
	m.mu.Unlock()

	m.flushPatchings(ctx)
	m.logger.Info("device unregistered", "alias", info.Alias, "unique_id", info.UniqueID)
	m.notifier.DeviceUnregistered(info)
	return nil
}

// UnregisterAll removes every connected device, saving all port patchings.
// Called during daemon shutdown.
func (m *Manager) UnregisterAll(ctx context.Context) {
	m.mu.Lock()
	var infos []Info
	for _, rec := range m.records {
		if rec.device == nil {
			continue
		}
		infos = append(infos, m.unregisterLocked(rec))
	}
	m.mu.Unlock()

	m.flushPatchings(ctx)
	sort.Slice(infos, func(i, j int) bool { return infos[i].Alias < infos[j].Alias })
	for _, info := range infos {
		m.notifier.DeviceUnregistered(info)
	}
	m.logger.Info("all devices unregistered", "count", len(infos))
}

// unregisterLocked saves the device's patchings, clears its alias index
// entry and nulls the record. Caller holds m.mu.
func (m *Manager) unregisterLocked(rec *record) Info {
	info := Describe(rec.alias, rec.device)
	m.savePortPatchings(rec.device)
	delete(m.aliases, rec.alias)
	rec.device = nil
	return info
}

// DeviceCount returns the number of currently connected devices.
func (m *Manager) DeviceCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.aliases)
}

// Devices returns all connected devices ordered by alias.
func (m *Manager) Devices() []Entry {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.aliases))
	for alias, d := range m.aliases {
		entries = append(entries, Entry{Alias: alias, Device: d})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Alias < entries[j].Alias })
	return entries
}

// ByAlias returns the connected device holding the given alias, or
// ErrNotFound. Aliases of disconnected devices are not resolvable.
func (m *Manager) ByAlias(alias int) (Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.aliases[alias]
	if !ok {
		return nil, fmt.Errorf("%w: alias %d", ErrNotFound, alias)
	}
	return d, nil
}

// ByID returns the connected device holding the given unique ID. A
// disconnected or unknown ID yields the zero Entry (alias
// MissingDeviceAlias, nil Device); the reserved alias only becomes
// visible again when the device re-registers.
func (m *Manager) ByID(id string) Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok || rec.device == nil {
		return Entry{Alias: MissingDeviceAlias}
	}
	return Entry{Alias: rec.alias, Device: rec.device}
}

// IdentityByID returns the identity record for a unique ID, resolving
// disconnected devices too: their Entry carries the reserved alias with
// a nil Device. An unknown ID yields the zero Entry.
func (m *Manager) IdentityByID(id string) Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return Entry{Alias: MissingDeviceAlias}
	}
	return Entry{Alias: rec.alias, Device: rec.device}
}

// PatchPort patches a port on a connected device to a universe, creating
// the universe if needed, and persists the patching.
func (m *Manager) PatchPort(ctx context.Context, alias, portID, universeID int) error {
	m.mu.Lock()
	port, err := m.findPortLocked(alias, portID)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	u, err := m.universes.GetOrCreate(ctx, universeID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	port.SetUniverse(u)
	if uid := port.UniqueID(); uid != "" {
		m.prefs.Set(uid, strconv.Itoa(universeID))
	}
	m.mu.Unlock()

	m.flushPatchings(ctx)
	m.logger.Info("port patched", "alias", alias, "port", portID, "universe", universeID)
	m.notifier.PortPatched(alias, portID, universeID)
	return nil
}

// UnpatchPort disconnects a port from its universe and removes the
// persisted patching.
func (m *Manager) UnpatchPort(ctx context.Context, alias, portID int) error {
	m.mu.Lock()
	port, err := m.findPortLocked(alias, portID)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	port.SetUniverse(nil)
	if uid := port.UniqueID(); uid != "" {
		m.prefs.Remove(uid)
	}
	m.mu.Unlock()

	m.flushPatchings(ctx)
	m.logger.Info("port unpatched", "alias", alias, "port", portID)
	m.notifier.PortUnpatched(alias, portID)
	return nil
}

func (m *Manager) findPortLocked(alias, portID int) (Port, error) {
	d, ok := m.aliases[alias]
	if !ok {
		return nil, fmt.Errorf("%w: alias %d", ErrNotFound, alias)
	}
	for _, p := range d.Ports() {
		if p.ID() == portID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: alias %d port %d", ErrPortNotFound, alias, portID)
}

// savePortPatchings writes the device's current patchings into the
// preference store. Ports without a unique ID are skipped; an unpatched
// port clears any stale entry. Caller holds m.mu.
func (m *Manager) savePortPatchings(d Device) {
	for _, p := range d.Ports() {
		uid := p.UniqueID()
		if uid == "" {
			continue
		}
		if u := p.Universe(); u != nil {
			m.prefs.Set(uid, strconv.Itoa(u.ID()))
		} else {
			m.prefs.Remove(uid)
		}
	}
}

// restorePortPatchings re-patches the device's ports from the preference
// store. Entries that are absent, non-numeric or non-positive are skipped:
// universe 0 is reserved and a malformed value means the store was edited
// or corrupted, neither of which should block registration.
func (m *Manager) restorePortPatchings(ctx context.Context, d Device) {
	for _, p := range d.Ports() {
		uid := p.UniqueID()
		if uid == "" {
			continue
		}
		value := m.prefs.Get(uid)
		if value == "" {
			continue
		}

		universeID, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || universeID <= 0 {
			m.logger.Debug("skipping invalid stored patching",
				"port_unique_id", uid, "value", value)
			continue
		}

		u, err := m.universes.GetOrCreate(ctx, universeID)
		if err != nil {
			m.logger.Warn("failed to restore patching",
				"port_unique_id", uid, "universe", universeID, "error", err)
			continue
		}
		p.SetUniverse(u)
		m.logger.Debug("port patching restored",
			"port_unique_id", uid, "universe", universeID)
	}
}

// flushPatchings persists the port preference namespace. Failures are
// logged, not returned: the in-memory state change has already happened.
func (m *Manager) flushPatchings(ctx context.Context) {
	if err := m.prefs.Save(ctx); err != nil {
		m.logger.Warn("failed to save port patchings", "error", err)
	}
}
