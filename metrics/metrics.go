// Package metrics exports session lifecycle counters to Prometheus. The
// Collector is an events.Listener; register it with the events manager to
// count logins, logouts, session switches and attribute refreshes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/identitybridge/ssoclient/events"
)

// Collector counts session lifecycle events.
type Collector struct {
	logins           prometheus.Counter
	logouts          prometheus.Counter
	sessionSwitches  prometheus.Counter
	attributeLoads   prometheus.Counter
	userChangeLogout prometheus.Counter
}

var _ events.Listener = (*Collector)(nil)

// NewCollector builds a collector and registers its counters with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ssoclient_logins_total",
			Help: "Sessions established.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ssoclient_logouts_total",
			Help: "Sessions removed.",
		}),
		sessionSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ssoclient_session_switches_total",
			Help: "Default-session changes.",
		}),
		attributeLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ssoclient_attribute_updates_total",
			Help: "Attribute snapshots refreshed from the provider.",
		}),
		userChangeLogout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ssoclient_user_change_logouts_total",
			Help: "Logouts that were part of a switch to a different user.",
		}),
	}
	reg.MustRegister(c.logins, c.logouts, c.sessionSwitches, c.attributeLoads, c.userChangeLogout)
	return c
}

func (c *Collector) LoginEvent(string) {
	c.logins.Inc()
}

func (c *Collector) LogoutEvent(_ string, changingUser bool) {
	c.logouts.Inc()
	if changingUser {
		c.userChangeLogout.Inc()
	}
}

func (c *Collector) ChangeDefaultSessionEvent(string) {
	c.sessionSwitches.Inc()
}

func (c *Collector) AttributesUpdatedEvent(string) {
	c.attributeLoads.Inc()
}
