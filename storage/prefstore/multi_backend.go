package prefstore

import (
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/attributes"
	"github.com/identitybridge/ssoclient/events"
	"github.com/identitybridge/ssoclient/storage"
)

const (
	keyDefaultGUID  = "default_guid"
	keySessionIndex = "sessions"

	sessionKeyPrefix = "session:"
)

// MultiBackend generalizes the flat preference layout to many concurrent
// sessions. Each session's record lives under composite "session:<guid>:"
// keys; an index key tracks the known guids and a separate key carries the
// default-session pointer.
type MultiBackend struct {
	store  Store
	events *events.Manager
	now    func() time.Time

	mu sync.Mutex
}

var _ storage.Backend = (*MultiBackend)(nil)

// MultiOption adjusts a multi-session preference backend.
type MultiOption func(*MultiBackend)

// WithMultiNowTime overrides the clock, primarily for testing.
func WithMultiNowTime(now func() time.Time) MultiOption {
	return func(b *MultiBackend) {
		b.now = now
	}
}

// NewMulti builds a multi-session backend over store, firing lifecycle
// events into ev.
func NewMulti(store Store, ev *events.Manager, options ...MultiOption) *MultiBackend {
	b := &MultiBackend{store: store, events: ev, now: time.Now}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func sessionKey(guid, field string) string {
	return sessionKeyPrefix + guid + ":" + field
}

func (b *MultiBackend) snapshot() map[string]string {
	all, err := b.store.All()
	if err != nil || all == nil {
		return map[string]string{}
	}
	return all
}

func decodeIndex(all map[string]string) []string {
	raw, ok := all[keySessionIndex]
	if !ok || raw == "" {
		return nil
	}
	var guids []string
	if err := json.Unmarshal([]byte(raw), &guids); err != nil {
		return nil
	}
	return guids
}

func encodeIndex(guids []string) string {
	sort.Strings(guids)
	raw, err := json.Marshal(guids)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func knownSession(all map[string]string, guid string) bool {
	if guid == "" {
		return false
	}
	for _, known := range decodeIndex(all) {
		if known == guid {
			return true
		}
	}
	return false
}

// Sessions returns every guid in the session index.
func (b *MultiBackend) Sessions() []string {
	return decodeIndex(b.snapshot())
}

// DefaultGUID returns the stored default pointer, or "" when no session is
// selected.
func (b *MultiBackend) DefaultGUID() string {
	return b.snapshot()[keyDefaultGUID]
}

// SetDefaultGUID points the default at guid, failing with ErrInvalidSession
// for unknown guids.
func (b *MultiBackend) SetDefaultGUID(guid string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !knownSession(b.snapshot(), guid) {
		return storage.ErrInvalidSession
	}
	return b.store.Apply(map[string]string{keyDefaultGUID: guid}, nil)
}

// IsValidSession reports whether guid is indexed and has token material.
func (b *MultiBackend) IsValidSession(guid string) bool {
	all := b.snapshot()
	if !knownSession(all, guid) {
		return false
	}
	_, hasAccess := all[sessionKey(guid, keyAccessToken)]
	_, hasRefresh := all[sessionKey(guid, keyRefreshToken)]
	return hasAccess || hasRefresh
}

// StoreGrant persists the grant response under the session identified by the
// response's embedded guid, falling back to the caller-supplied guid. A
// malformed response wipes the caller's session and still reports handled.
func (b *MultiBackend) StoreGrant(guid string, fields api.Fields) bool {
	target := guid
	if embedded := fields.Get(api.FieldGUID); embedded != "" {
		target = embedded
	}
	if target == "" {
		return false
	}

	set := map[string]string{}
	var remove []string

	if fields.Has(api.FieldAccessToken) {
		seconds, present, err := fields.ExpiresIn()
		if err != nil {
			b.ClearAuthState(guid, true)
			return true
		}

		set[sessionKey(target, keyAccessToken)] = fields.Get(api.FieldAccessToken)
		remove = append(remove, sessionKey(target, keyExpiresAt))
		if present {
			expiresAt := b.now().Add(time.Duration(seconds) * time.Second)
			set[sessionKey(target, keyExpiresAt)] = strconv.FormatInt(expiresAt.UnixMilli(), 10)
		}
		if fields.Has(api.FieldUsername) {
			set[sessionKey(target, keyUsername)] = fields.Get(api.FieldUsername)
		}
	}
	if fields.Has(api.FieldRefreshToken) {
		set[sessionKey(target, keyRefreshToken)] = fields.Get(api.FieldRefreshToken)
	}

	b.mu.Lock()
	all := b.snapshot()
	isNew := !knownSession(all, target)
	if isNew {
		set[keySessionIndex] = encodeIndex(append(decodeIndex(all), target))
	}
	err := b.store.Apply(set, remove)
	b.mu.Unlock()
	if err != nil {
		return true
	}

	if isNew {
		b.events.LoginEvent(target)
	}
	return true
}

// AccessToken returns guid's access token unless it is absent or expired.
// Missing or unreadable expiry metadata reads as expired.
func (b *MultiBackend) AccessToken(guid string) string {
	all := b.snapshot()
	if !knownSession(all, guid) {
		return ""
	}
	raw, ok := all[sessionKey(guid, keyExpiresAt)]
	if !ok {
		return ""
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || b.now().UnixMilli() > expiresAt {
		return ""
	}
	return all[sessionKey(guid, keyAccessToken)]
}

// RemoveAccessToken clears guid's access token only when the stored token
// still equals token.
func (b *MultiBackend) RemoveAccessToken(guid, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.snapshot()
	if all[sessionKey(guid, keyAccessToken)] != token {
		return
	}
	_ = b.store.Apply(nil, []string{
		sessionKey(guid, keyAccessToken), sessionKey(guid, keyExpiresAt),
	})
}

// RefreshToken returns guid's refresh token, or "".
func (b *MultiBackend) RefreshToken(guid string) string {
	all := b.snapshot()
	if !knownSession(all, guid) {
		return ""
	}
	return all[sessionKey(guid, keyRefreshToken)]
}

// RemoveRefreshToken clears guid's refresh token only when the stored token
// still equals token.
func (b *MultiBackend) RemoveRefreshToken(guid, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.snapshot()
	if token == "" || all[sessionKey(guid, keyRefreshToken)] != token {
		return
	}
	_ = b.store.Apply(nil, []string{sessionKey(guid, keyRefreshToken)})
}

// StoreAttributes persists a fresh attribute snapshot for guid, discarded
// silently when guid left the index before commit.
func (b *MultiBackend) StoreAttributes(guid string, fields api.Fields) {
	set := map[string]string{
		sessionKey(guid, keyAttrLoadedAt):  strconv.FormatInt(b.now().UnixMilli(), 10),
		sessionKey(guid, keyAttrGUID):      fields.Get(api.FieldGUID),
		sessionKey(guid, keyAttrEmail):     fields.Get(api.FieldEmail),
		sessionKey(guid, keyAttrFirstName): fields.Get(api.FieldFirstName),
		sessionKey(guid, keyAttrLastName):  fields.Get(api.FieldLastName),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !knownSession(b.snapshot(), guid) {
		return
	}
	_ = b.store.Apply(set, nil)
}

// RemoveAttributes clears guid's attribute snapshot.
func (b *MultiBackend) RemoveAttributes(guid string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !knownSession(b.snapshot(), guid) {
		return
	}
	_ = b.store.Apply(nil, []string{
		sessionKey(guid, keyAttrLoadedAt), sessionKey(guid, keyAttrGUID),
		sessionKey(guid, keyAttrEmail), sessionKey(guid, keyAttrFirstName),
		sessionKey(guid, keyAttrLastName),
	})
}

// Attributes returns guid's attribute snapshot. Unknown guids are not an
// error here: they read as an invalid Set, since a multi-session store can
// address any guid.
func (b *MultiBackend) Attributes(guid string) (attributes.Set, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.snapshot()
	if !knownSession(all, guid) {
		return attributes.New(attributes.Raw{GUID: guid}), nil
	}

	rawLoadedAt, hasLoadedAt := all[sessionKey(guid, keyAttrLoadedAt)]
	loadedAt := time.Time{}
	if ms, err := strconv.ParseInt(rawLoadedAt, 10, 64); err == nil {
		loadedAt = time.UnixMilli(ms)
	}
	return attributes.New(attributes.Raw{
		GUID:      guid,
		Username:  all[sessionKey(guid, keyUsername)],
		Email:     all[sessionKey(guid, keyAttrEmail)],
		FirstName: all[sessionKey(guid, keyAttrFirstName)],
		LastName:  all[sessionKey(guid, keyAttrLastName)],
		LoadedAt:  loadedAt,
		Valid:     hasLoadedAt && guid == all[sessionKey(guid, keyAttrGUID)],
	}), nil
}

// ClearAuthState removes guid's whole record and index entry, clearing the
// default pointer when it pointed at guid.
func (b *MultiBackend) ClearAuthState(guid string, emitEvent bool) {
	b.mu.Lock()
	all := b.snapshot()
	if !knownSession(all, guid) {
		b.mu.Unlock()
		return
	}

	remove := []string{
		sessionKey(guid, keyAccessToken), sessionKey(guid, keyExpiresAt),
		sessionKey(guid, keyRefreshToken), sessionKey(guid, keyUsername),
		sessionKey(guid, keyAttrLoadedAt), sessionKey(guid, keyAttrGUID),
		sessionKey(guid, keyAttrEmail), sessionKey(guid, keyAttrFirstName),
		sessionKey(guid, keyAttrLastName),
	}
	if all[keyDefaultGUID] == guid {
		remove = append(remove, keyDefaultGUID)
	}

	var remaining []string
	for _, known := range decodeIndex(all) {
		if known != guid {
			remaining = append(remaining, known)
		}
	}
	err := b.store.Apply(map[string]string{keySessionIndex: encodeIndex(remaining)}, remove)
	b.mu.Unlock()

	if emitEvent && err == nil {
		b.events.LogoutEvent(guid, false)
	}
}

// ImportSession installs a migrated session record in one write.
func (b *MultiBackend) ImportSession(session storage.MigratingSession) bool {
	if !session.Usable() {
		return false
	}
	guid := session.GUID

	set := map[string]string{
		sessionKey(guid, keyAccessToken):  session.AccessToken,
		sessionKey(guid, keyRefreshToken): session.RefreshToken,
	}
	if !session.ExpiresAt.IsZero() {
		set[sessionKey(guid, keyExpiresAt)] = strconv.FormatInt(session.ExpiresAt.UnixMilli(), 10)
	}
	if username := session.Attributes.Username(); username != "" {
		set[sessionKey(guid, keyUsername)] = username
	}
	if session.Attributes.Valid() {
		set[sessionKey(guid, keyAttrLoadedAt)] = strconv.FormatInt(session.Attributes.LoadedAt().UnixMilli(), 10)
		set[sessionKey(guid, keyAttrGUID)] = guid
		set[sessionKey(guid, keyAttrEmail)] = session.Attributes.Email()
		set[sessionKey(guid, keyAttrFirstName)] = session.Attributes.FirstName()
		set[sessionKey(guid, keyAttrLastName)] = session.Attributes.LastName()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.snapshot()
	if !knownSession(all, guid) {
		set[keySessionIndex] = encodeIndex(append(decodeIndex(all), guid))
	}
	return b.store.Apply(set, nil) == nil
}
