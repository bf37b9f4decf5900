package accountstore

import (
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
	dataGUID          = "guid"
	dataExpiresAt     = "expire_time"
	dataUsername      = "username"
	dataAttrLoadedAt  = "attr_load_time"
	dataAttrGUID      = "attr_guid"
	dataAttrEmail     = "attr_email"
	dataAttrFirstName = "attr_first_name"
	dataAttrLastName  = "attr_last_name"
)

// Backend is the multi-principal backend: one account per session, each
// independently addressable. Compare-and-clear removal is inherent in the
// substrate's InvalidateAuthToken. The default guid is a soft in-memory
// hint, recomputed from the first known principal when unset and
// invalidated lazily when its account disappears.
type Backend struct {
	accounts Accounts
	events   *events.Manager
	now      func() time.Time

	mu          sync.Mutex
	defaultGUID string
}

var _ storage.Backend = (*Backend)(nil)

// Option adjusts an account-store backend.
type Option func(*Backend)

// WithNowTime overrides the clock, primarily for testing.
func WithNowTime(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New builds a backend over accounts, firing lifecycle events into ev.
func New(accounts Accounts, ev *events.Manager, options ...Option) *Backend {
	b := &Backend{accounts: accounts, events: ev, now: time.Now}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// findAccount resolves guid to its account name, resetting the default hint
// when it pointed at an account that no longer exists.
func (b *Backend) findAccount(guid string) (string, bool) {
	if guid != "" {
		for _, name := range b.accounts.Names() {
			if b.accounts.UserData(name, dataGUID) == guid {
				return name, true
			}
		}
	}

	b.mu.Lock()
	if guid == b.defaultGUID {
		b.defaultGUID = ""
	}
	b.mu.Unlock()

	return "", false
}

// Sessions returns the guid of every known principal.
func (b *Backend) Sessions() []string {
	var guids []string
	for _, name := range b.accounts.Names() {
		if guid := b.accounts.UserData(name, dataGUID); guid != "" {
			guids = append(guids, guid)
		}
	}
	return guids
}

// DefaultGUID returns the default-session hint, recomputing it from the
// lexically first principal when unset.
func (b *Backend) DefaultGUID() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.defaultGUID == "" {
		names := b.accounts.Names()
		sort.Strings(names)
		if len(names) > 0 {
			b.defaultGUID = b.accounts.UserData(names[0], dataGUID)
		}
	}
	return b.defaultGUID
}

// SetDefaultGUID points the default hint at guid after validating the
// account exists.
func (b *Backend) SetDefaultGUID(guid string) error {
	if _, ok := b.findAccount(guid); !ok {
		return storage.ErrInvalidSession
	}

	b.mu.Lock()
	b.defaultGUID = guid
	b.mu.Unlock()
	return nil
}

// IsValidSession reports whether guid has an account with token material.
func (b *Backend) IsValidSession(guid string) bool {
	name, ok := b.findAccount(guid)
	if !ok {
		return false
	}
	return b.accounts.AuthToken(name, TokenTypeAccess) != "" ||
		b.accounts.AuthToken(name, TokenTypeRefresh) != ""
}

// StoreGrant persists the grant response into the account identified by the
// response's embedded guid, falling back to the caller-supplied guid. The
// account is created on first grant, which fires the login event. A
// malformed response removes the account and still reports handled.
func (b *Backend) StoreGrant(guid string, fields api.Fields) bool {
	target := guid
	if embedded := fields.Get(api.FieldGUID); embedded != "" {
		target = embedded
	}
	if target == "" {
		return false
	}

	seconds, hasExpiry, err := fields.ExpiresIn()
	if err != nil {
		b.ClearAuthState(guid, true)
		return true
	}

	name, ok := b.findAccount(target)
	newLogin := false
	if !ok {
		name = target
		if !b.accounts.Add(name, map[string]string{dataGUID: target}) {
			return false
		}
		newLogin = true
	}

	if fields.Has(api.FieldAccessToken) {
		b.accounts.SetAuthToken(name, TokenTypeAccess, fields.Get(api.FieldAccessToken))
		b.accounts.SetUserData(name, dataExpiresAt, "")
		if hasExpiry {
			expiresAt := b.now().Add(time.Duration(seconds) * time.Second)
			b.accounts.SetUserData(name, dataExpiresAt, strconv.FormatInt(expiresAt.UnixMilli(), 10))
		}
		if fields.Has(api.FieldUsername) {
			b.accounts.SetUserData(name, dataUsername, fields.Get(api.FieldUsername))
		}
	}
	if fields.Has(api.FieldRefreshToken) {
		b.accounts.SetAuthToken(name, TokenTypeRefresh, fields.Get(api.FieldRefreshToken))
	}

	if newLogin {
		b.events.LoginEvent(target)
	}
	return true
}

// AccessToken returns guid's access token unless it is absent or expired.
// Missing or unreadable expiry metadata reads as expired.
func (b *Backend) AccessToken(guid string) string {
	name, ok := b.findAccount(guid)
	if !ok {
		return ""
	}
	raw := b.accounts.UserData(name, dataExpiresAt)
	if raw == "" {
		return ""
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || b.now().UnixMilli() > expiresAt {
		return ""
	}
	return b.accounts.AuthToken(name, TokenTypeAccess)
}

// RemoveAccessToken invalidates the cached access token matching token; a
// token rotated by a concurrent refresh has a different value and survives.
func (b *Backend) RemoveAccessToken(guid, token string) {
	if _, ok := b.findAccount(guid); !ok {
		return
	}
	b.accounts.InvalidateAuthToken(TokenTypeAccess, token)
}

// RefreshToken returns guid's refresh token, or "".
func (b *Backend) RefreshToken(guid string) string {
	name, ok := b.findAccount(guid)
	if !ok {
		return ""
	}
	return b.accounts.AuthToken(name, TokenTypeRefresh)
}

// RemoveRefreshToken invalidates the cached refresh token matching token.
func (b *Backend) RemoveRefreshToken(guid, token string) {
	if _, ok := b.findAccount(guid); !ok {
		return
	}
	b.accounts.InvalidateAuthToken(TokenTypeRefresh, token)
}

// StoreAttributes persists a fresh attribute snapshot on guid's account,
// discarded silently when the account disappeared before the write.
func (b *Backend) StoreAttributes(guid string, fields api.Fields) {
	name, ok := b.findAccount(guid)
	if !ok {
		return
	}
	b.accounts.SetUserData(name, dataAttrLoadedAt, strconv.FormatInt(b.now().UnixMilli(), 10))
	b.accounts.SetUserData(name, dataAttrGUID, fields.Get(api.FieldGUID))
	b.accounts.SetUserData(name, dataAttrEmail, fields.Get(api.FieldEmail))
	b.accounts.SetUserData(name, dataAttrFirstName, fields.Get(api.FieldFirstName))
	b.accounts.SetUserData(name, dataAttrLastName, fields.Get(api.FieldLastName))
}

// RemoveAttributes clears guid's attribute snapshot.
func (b *Backend) RemoveAttributes(guid string) {
	name, ok := b.findAccount(guid)
	if !ok {
		return
	}
	b.accounts.SetUserData(name, dataAttrLoadedAt, "")
	b.accounts.SetUserData(name, dataAttrGUID, "")
	b.accounts.SetUserData(name, dataAttrEmail, "")
	b.accounts.SetUserData(name, dataAttrFirstName, "")
	b.accounts.SetUserData(name, dataAttrLastName, "")
}

// Attributes returns guid's attribute snapshot; any known principal can be
// addressed. A missing account or a snapshot loaded for a different guid
// reads as invalid.
func (b *Backend) Attributes(guid string) (attributes.Set, error) {
	name, ok := b.findAccount(guid)
	if !ok {
		return attributes.New(attributes.Raw{GUID: guid}), nil
	}

	rawLoadedAt := b.accounts.UserData(name, dataAttrLoadedAt)
	loadedAt := time.Time{}
	hasLoadedAt := false
	if ms, err := strconv.ParseInt(rawLoadedAt, 10, 64); err == nil {
		loadedAt = time.UnixMilli(ms)
		hasLoadedAt = true
	}
	return attributes.New(attributes.Raw{
		GUID:      guid,
		Username:  b.accounts.UserData(name, dataUsername),
		Email:     b.accounts.UserData(name, dataAttrEmail),
		FirstName: b.accounts.UserData(name, dataAttrFirstName),
		LastName:  b.accounts.UserData(name, dataAttrLastName),
		LoadedAt:  loadedAt,
		Valid:     hasLoadedAt && guid == b.accounts.UserData(name, dataAttrGUID),
	}), nil
}

// ClearAuthState removes guid's account entirely, clearing the default hint
// when it pointed at guid.
func (b *Backend) ClearAuthState(guid string, emitEvent bool) {
	name, ok := b.findAccount(guid)
	if !ok {
		return
	}
	if !b.accounts.Remove(name) {
		return
	}

	b.mu.Lock()
	if b.defaultGUID == guid {
		b.defaultGUID = ""
	}
	b.mu.Unlock()

	if emitEvent {
		b.events.LogoutEvent(guid, false)
	}
}

// ImportSession installs a migrated session as a new account in one write.
func (b *Backend) ImportSession(session storage.MigratingSession) bool {
	if !session.Usable() {
		return false
	}
	guid := session.GUID

	name, ok := b.findAccount(guid)
	if !ok {
		name = guid
		if !b.accounts.Add(name, map[string]string{dataGUID: guid}) {
			return false
		}
	}

	b.accounts.SetAuthToken(name, TokenTypeAccess, session.AccessToken)
	b.accounts.SetAuthToken(name, TokenTypeRefresh, session.RefreshToken)
	if !session.ExpiresAt.IsZero() {
		b.accounts.SetUserData(name, dataExpiresAt, strconv.FormatInt(session.ExpiresAt.UnixMilli(), 10))
	}
	if username := session.Attributes.Username(); username != "" {
		b.accounts.SetUserData(name, dataUsername, username)
	}
	if session.Attributes.Valid() {
		b.accounts.SetUserData(name, dataAttrLoadedAt, strconv.FormatInt(session.Attributes.LoadedAt().UnixMilli(), 10))
		b.accounts.SetUserData(name, dataAttrGUID, guid)
		b.accounts.SetUserData(name, dataAttrEmail, session.Attributes.Email())
		b.accounts.SetUserData(name, dataAttrFirstName, session.Attributes.FirstName())
		b.accounts.SetUserData(name, dataAttrLastName, session.Attributes.LastName())
	}
	return true
}
