// Package memaccounts provides an in-memory accountstore.Accounts, for
// tests and for hosts on platforms without a native account store.
package memaccounts

import (
	"sync"

	"github.com/identitybridge/ssoclient/storage/accountstore"
)

type account struct {
	userData map[string]string
	tokens   map[string]string
}

// Accounts is a process-local multi-principal account store.
type Accounts struct {
	mu       sync.Mutex
	accounts map[string]*account
	order    []string
}

var _ accountstore.Accounts = (*Accounts)(nil)

// New returns an empty account store.
func New() *Accounts {
	return &Accounts{accounts: make(map[string]*account)}
}

func (a *Accounts) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

func (a *Accounts) Add(name string, userData map[string]string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.accounts[name]; exists {
		return false
	}
	acct := &account{userData: make(map[string]string, len(userData)), tokens: make(map[string]string)}
	for k, v := range userData {
		acct.userData[k] = v
	}
	a.accounts[name] = acct
	a.order = append(a.order, name)
	return true
}

func (a *Accounts) Remove(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.accounts[name]; !exists {
		return false
	}
	delete(a.accounts, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

func (a *Accounts) UserData(name, key string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if acct, exists := a.accounts[name]; exists {
		return acct.userData[key]
	}
	return ""
}

func (a *Accounts) SetUserData(name, key, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acct, exists := a.accounts[name]
	if !exists {
		return
	}
	if value == "" {
		delete(acct.userData, key)
		return
	}
	acct.userData[key] = value
}

func (a *Accounts) AuthToken(name, tokenType string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if acct, exists := a.accounts[name]; exists {
		return acct.tokens[tokenType]
	}
	return ""
}

func (a *Accounts) SetAuthToken(name, tokenType, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if acct, exists := a.accounts[name]; exists {
		acct.tokens[tokenType] = token
	}
}

func (a *Accounts) InvalidateAuthToken(tokenType, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, acct := range a.accounts {
		if acct.tokens[tokenType] == token {
			delete(acct.tokens, tokenType)
		}
	}
}
