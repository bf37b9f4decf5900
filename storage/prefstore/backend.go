package prefstore

import (
	"strconv"
	"sync"
	"time"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/attributes"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/storage"
)

const (
	keyAccessToken   = "access_token"
	keyExpiresAt     = "expire_time"
	keyGUID          = "guid"
	keyUsername      = "username"
	keyRefreshToken  = "refresh_token"
	keyAttrLoadedAt  = "attr_load_time"
	keyAttrGUID      = "attr_guid"
	keyAttrEmail     = "attr_email"
	keyAttrFirstName = "attr_first_name"
	keyAttrLastName  = "attr_last_name"
)

// Backend is the single-session preference backend: one slot, one usable
// session at a time. Compare-and-clear is realized with a mutex guarding
// every read-modify-write of the whole record.
type Backend struct {
	store  Store
	events *events.Manager
	now    func() time.Time

	mu sync.Mutex
}

var _ storage.Backend = (*Backend)(nil)

// Option adjusts a preference backend.
type Option func(*Backend)

// WithNowTime overrides the clock, primarily for testing.
func WithNowTime(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New builds a single-session backend over store, firing lifecycle events
// into ev.
func New(store Store, ev *events.Manager, options ...Option) *Backend {
	b := &Backend{store: store, events: ev, now: time.Now}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *Backend) snapshot() map[string]string {
	all, err := b.store.All()
	if err != nil || all == nil {
		return map[string]string{}
	}
	return all
}

func (b *Backend) sessionGUID(all map[string]string) string {
	return all[keyGUID]
}

// Sessions returns the single stored session, when there is one.
func (b *Backend) Sessions() []string {
	if guid := b.sessionGUID(b.snapshot()); guid != "" {
		return []string{guid}
	}
	return nil
}

// DefaultGUID returns the slot's session guid; the single slot is always the
// default.
func (b *Backend) DefaultGUID() string {
	return b.sessionGUID(b.snapshot())
}

// SetDefaultGUID accepts only the session already occupying the slot; a
// single-slot store cannot switch to any other session.
func (b *Backend) SetDefaultGUID(guid string) error {
	if !b.IsValidSession(guid) {
		return storage.ErrInvalidSession
	}
	return nil
}

// IsValidSession reports whether guid occupies the slot and has token
// material on record.
func (b *Backend) IsValidSession(guid string) bool {
	all := b.snapshot()
	if guid == "" || guid != b.sessionGUID(all) {
		return false
	}
	_, hasAccess := all[keyAccessToken]
	_, hasRefresh := all[keyRefreshToken]
	return hasAccess || hasRefresh
}

// StoreGrant persists the grant response into the slot. The response's
// embedded guid wins over the caller-supplied guid for session
// identification. A malformed response wipes the session's auth state and
// still reports the grant as handled.
func (b *Backend) StoreGrant(guid string, fields api.Fields) bool {
	target := guid
	if embedded := fields.Get(api.FieldGUID); embedded != "" {
		target = embedded
	}

	set := map[string]string{}
	var remove []string
	storesIdentity := false

	if fields.Has(api.FieldAccessToken) {
		seconds, present, err := fields.ExpiresIn()
		if err != nil {
			b.ClearAuthState(guid, true)
			return true
		}

		set[keyAccessToken] = fields.Get(api.FieldAccessToken)
		remove = append(remove, keyExpiresAt, keyGUID, keyUsername)
		if present {
			expiresAt := b.now().Add(time.Duration(seconds) * time.Second)
			set[keyExpiresAt] = strconv.FormatInt(expiresAt.UnixMilli(), 10)
		}
		if target != "" {
			set[keyGUID] = target
		}
		if fields.Has(api.FieldUsername) {
			set[keyUsername] = fields.Get(api.FieldUsername)
		}
		storesIdentity = true
	}

	if fields.Has(api.FieldRefreshToken) {
		set[keyRefreshToken] = fields.Get(api.FieldRefreshToken)
	}

	b.mu.Lock()
	oldGUID := b.sessionGUID(b.snapshot())
	err := b.store.Apply(set, remove)
	b.mu.Unlock()
	if err != nil {
		return true
	}

	// trigger logout/login events based on guid changes
	newGUID := oldGUID
	if storesIdentity {
		newGUID = target
	}
	if oldGUID != "" && oldGUID != newGUID {
		b.events.LogoutEvent(oldGUID, newGUID != "")
	}
	if newGUID != "" && newGUID != oldGUID {
		b.events.LoginEvent(newGUID)
	}

	return true
}

// AccessToken returns the stored access token when it belongs to guid and
// has not expired. Missing or unreadable expiry metadata reads as expired.
func (b *Backend) AccessToken(guid string) string {
	all := b.snapshot()
	if guid == "" || guid != b.sessionGUID(all) {
		return ""
	}
	raw, ok := all[keyExpiresAt]
	if !ok {
		return ""
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || b.now().UnixMilli() > expiresAt {
		return ""
	}
	return all[keyAccessToken]
}

// RemoveAccessToken clears the access token only when the stored token still
// equals token for guid.
func (b *Backend) RemoveAccessToken(guid, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.snapshot()
	if guid != b.sessionGUID(all) {
		return
	}
	if all[keyAccessToken] != token {
		return
	}
	_ = b.store.Apply(nil, []string{keyAccessToken, keyExpiresAt})
}

// RefreshToken returns the stored refresh token when it belongs to guid.
func (b *Backend) RefreshToken(guid string) string {
	all := b.snapshot()
	if guid == "" || guid != b.sessionGUID(all) {
		return ""
	}
	return all[keyRefreshToken]
}

// RemoveRefreshToken clears the refresh token only when the stored token
// still equals token for guid.
func (b *Backend) RemoveRefreshToken(guid, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.snapshot()
	if guid != b.sessionGUID(all) {
		return
	}
	if token == "" || all[keyRefreshToken] != token {
		return
	}
	_ = b.store.Apply(nil, []string{keyRefreshToken})
}

// StoreAttributes persists a fresh attribute snapshot. The write is
// discarded silently when guid no longer occupies the slot at commit time.
func (b *Backend) StoreAttributes(guid string, fields api.Fields) {
	set := map[string]string{
		keyAttrLoadedAt:  strconv.FormatInt(b.now().UnixMilli(), 10),
		keyAttrGUID:      fields.Get(api.FieldGUID),
		keyAttrEmail:     fields.Get(api.FieldEmail),
		keyAttrFirstName: fields.Get(api.FieldFirstName),
		keyAttrLastName:  fields.Get(api.FieldLastName),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if guid != b.sessionGUID(b.snapshot()) {
		return
	}
	_ = b.store.Apply(set, nil)
}

// RemoveAttributes clears the attribute snapshot, with the same stale-write
// suppression as StoreAttributes.
func (b *Backend) RemoveAttributes(guid string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if guid != b.sessionGUID(b.snapshot()) {
		return
	}
	_ = b.store.Apply(nil, []string{
		keyAttrLoadedAt, keyAttrGUID, keyAttrEmail, keyAttrFirstName, keyAttrLastName,
	})
}

// Attributes returns the attribute snapshot for the current session. Asking
// for any other guid fails with ErrUnsupportedOperation: a single-slot store
// has no record to answer from.
func (b *Backend) Attributes(guid string) (attributes.Set, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.snapshot()
	current := b.sessionGUID(all)
	if guid != current {
		return attributes.Set{}, storage.ErrUnsupportedOperation
	}
	return newAttributeSet(current, all), nil
}

func newAttributeSet(guid string, all map[string]string) attributes.Set {
	rawLoadedAt, hasLoadedAt := all[keyAttrLoadedAt]
	loadedAt := time.Time{}
	if ms, err := strconv.ParseInt(rawLoadedAt, 10, 64); err == nil {
		loadedAt = time.UnixMilli(ms)
	}
	return attributes.New(attributes.Raw{
		GUID:      guid,
		Username:  all[keyUsername],
		Email:     all[keyAttrEmail],
		FirstName: all[keyAttrFirstName],
		LastName:  all[keyAttrLastName],
		LoadedAt:  loadedAt,
		Valid:     hasLoadedAt && guid != "" && guid == all[keyAttrGUID],
	})
}

// ClearAuthState removes every token and identification key for guid,
// leaving the attribute snapshot to read as invalid once the guid is gone.
func (b *Backend) ClearAuthState(guid string, emitEvent bool) {
	b.mu.Lock()
	all := b.snapshot()
	if guid != b.sessionGUID(all) {
		b.mu.Unlock()
		return
	}
	_, hasAccess := all[keyAccessToken]
	_, hasRefresh := all[keyRefreshToken]
	existed := guid != "" || hasAccess || hasRefresh
	_ = b.store.Apply(nil, []string{
		keyAccessToken, keyRefreshToken, keyExpiresAt, keyGUID, keyUsername,
	})
	b.mu.Unlock()

	if emitEvent && existed {
		b.events.LogoutEvent(guid, false)
	}
}

// ImportSession installs a migrated session record in one write, replacing
// whatever occupied the slot.
func (b *Backend) ImportSession(session storage.MigratingSession) bool {
	if !session.Usable() {
		return false
	}

	set := map[string]string{
		keyGUID:         session.GUID,
		keyAccessToken:  session.AccessToken,
		keyRefreshToken: session.RefreshToken,
	}
	if !session.ExpiresAt.IsZero() {
		set[keyExpiresAt] = strconv.FormatInt(session.ExpiresAt.UnixMilli(), 10)
	}
	if username := session.Attributes.Username(); username != "" {
		set[keyUsername] = username
	}
	if session.Attributes.Valid() {
		set[keyAttrLoadedAt] = strconv.FormatInt(session.Attributes.LoadedAt().UnixMilli(), 10)
		set[keyAttrGUID] = session.GUID
		set[keyAttrEmail] = session.Attributes.Email()
		set[keyAttrFirstName] = session.Attributes.FirstName()
		set[keyAttrLastName] = session.Attributes.LastName()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Apply(set, nil) == nil
}
