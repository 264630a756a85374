package linker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/tilepad/tilepad-cli/internal/control"
	"github.com/tilepad/tilepad-cli/internal/manifest"
	"github.com/tilepad/tilepad-cli/internal/platform"
	"github.com/tilepad/tilepad-cli/internal/userdata"
)

// ErrIO is wrapped by every filesystem failure while changing a slot.
var ErrIO = errors.New("i/o error")

// Notifier sends control requests to a running desktop app.
// *control.Client implements it.
type Notifier interface {
	Notify(ctx context.Context, action control.Action) (control.Outcome, error)
}

// SlotState is the dev-link state of a plugin slot.
type SlotState string

const (
	// StateUnlinked means nothing occupies the slot.
	StateUnlinked SlotState = "unlinked"
	// StateOccupied means a real directory or file occupies the slot, e.g. an
	// installed copy of the plugin.
	StateOccupied SlotState = "occupied"
	// StateLinked means the slot is a symbolic link.
	StateLinked SlotState = "linked"
)

// Slot describes the host plugin directory entry for one plugin id.
type Slot struct {
	PluginID string
	Path     string
	State    SlotState
	Target   string // link target when State is StateLinked
}

// LinkResult describes a completed Link.
type LinkResult struct {
	Slot     Slot
	Source   string
	Replaced platform.LinkKind // what occupied the slot before, KindAbsent if nothing
	Notified control.Outcome
}

// UnlinkResult describes a completed Unlink. Removed is false when there was
// no link to remove.
type UnlinkResult struct {
	Slot     Slot
	Removed  bool
	Notified control.Outcome
}

// Manager links plugin source trees into the desktop app's plugins directory.
type Manager struct {
	notifier Notifier
	logger   *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sets where reload requests are sent after a slot changes.
// Without one no reload is requested.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	m := &Manager{logger: log.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Link points the slot for sourceDir's plugin id at sourceDir. Whatever
// occupied the slot before is removed first, including a real directory.
// The removal and the new link are two steps, so a host watching the plugins
// directory can briefly see the slot missing.
//
// A running host is asked to reload its plugins afterwards; failing to reach
// it is logged and does not fail the link.
func (m *Manager) Link(ctx context.Context, sourceDir string) (*LinkResult, error) {
	src, id, slotPath, err := m.resolve(sourceDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(slotPath), 0755); err != nil {
		return nil, ioError("creating plugins directory", filepath.Dir(slotPath), err)
	}

	occupant, err := platform.Inspect(slotPath)
	if err != nil {
		return nil, ioError("checking", slotPath, err)
	}
	if occupant != platform.KindAbsent {
		if occupant != platform.KindSymlink {
			m.logger.Warn("removing existing plugin from slot", "path", slotPath, "kind", occupant.String())
		}
		if err := os.RemoveAll(slotPath); err != nil {
			return nil, ioError("removing", slotPath, err)
		}
	}

	m.logger.Debug("linking", "slot", slotPath, "source", src)
	if err := platform.CreateDirSymlink(src, slotPath); err != nil {
		return nil, ioError("creating link", slotPath, err)
	}

	return &LinkResult{
		Slot:     Slot{PluginID: id, Path: slotPath, State: StateLinked, Target: src},
		Source:   src,
		Replaced: occupant,
		Notified: m.reload(ctx),
	}, nil
}

// Unlink removes the dev link for sourceDir's plugin id. Only a symbolic link
// is removed; a real directory in the slot is left alone and reported as not
// linked. A reload is requested only when a link was removed.
func (m *Manager) Unlink(ctx context.Context, sourceDir string) (*UnlinkResult, error) {
	_, id, slotPath, err := m.resolve(sourceDir)
	if err != nil {
		return nil, err
	}

	slot, err := inspectSlot(id, slotPath)
	if err != nil {
		return nil, err
	}
	if slot.State != StateLinked {
		m.logger.Debug("no link to remove", "slot", slotPath, "state", slot.State)
		return &UnlinkResult{Slot: *slot, Notified: control.OutcomeSkipped}, nil
	}

	if err := platform.RemoveDirSymlink(slotPath); err != nil {
		return nil, ioError("removing link", slotPath, err)
	}
	m.logger.Debug("removed link", "slot", slotPath, "target", slot.Target)

	return &UnlinkResult{
		Slot:     Slot{PluginID: id, Path: slotPath, State: StateUnlinked},
		Removed:  true,
		Notified: m.reload(ctx),
	}, nil
}

// Status reports the slot for sourceDir's plugin id without changing it.
func (m *Manager) Status(sourceDir string) (*Slot, error) {
	_, id, slotPath, err := m.resolve(sourceDir)
	if err != nil {
		return nil, err
	}
	return inspectSlot(id, slotPath)
}

// resolve returns the absolute source path, the plugin id from its manifest
// and the slot path. The host install root must exist.
func (m *Manager) resolve(sourceDir string) (src, id, slotPath string, err error) {
	src, err = filepath.Abs(sourceDir)
	if err != nil {
		return "", "", "", fmt.Errorf("resolving %s: %w", sourceDir, err)
	}

	doc, err := manifest.Load(src, manifest.KindPlugin)
	if err != nil {
		return "", "", "", err
	}

	if _, err := userdata.RequireHostRoot(); err != nil {
		return "", "", "", err
	}

	slotPath, err = userdata.GetPluginSlot(doc.ID())
	if err != nil {
		return "", "", "", err
	}
	return src, doc.ID(), slotPath, nil
}

// reload asks a running host to reload plugins. Failures are logged only.
func (m *Manager) reload(ctx context.Context) control.Outcome {
	if m.notifier == nil {
		return control.OutcomeSkipped
	}
	outcome, err := m.notifier.Notify(ctx, control.ReloadPlugins())
	if err != nil {
		m.logger.Warn("failed to reload plugins", "err", err)
		return control.OutcomeSkipped
	}
	return outcome
}

func inspectSlot(id, path string) (*Slot, error) {
	kind, err := platform.Inspect(path)
	if err != nil {
		return nil, ioError("checking", path, err)
	}

	slot := &Slot{PluginID: id, Path: path}
	switch kind {
	case platform.KindAbsent:
		slot.State = StateUnlinked
	case platform.KindSymlink:
		slot.State = StateLinked
		if target, err := platform.ReadSymlinkTarget(path); err == nil {
			slot.Target = target
		}
	default:
		slot.State = StateOccupied
	}
	return slot, nil
}

func ioError(op, path string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, path, ErrIO, err)
}
