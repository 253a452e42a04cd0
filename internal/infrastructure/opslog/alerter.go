// Package opslog is the operational error channel: failures operators must act
// on (audit write failures, rule resolution, stuck paid estimations). It never
// writes to the business audit trail.
package opslog

import (
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"juragites_estimation/internal/usecase/interfaces"
)

type Alerter struct {
	logger *log.Logger
	count  atomic.Int64
}

var _ interfaces.IAlerter = (*Alerter)(nil)

func New(w io.Writer) *Alerter {
	if w == nil {
		w = os.Stderr
	}
	return &Alerter{logger: log.New(w, "", log.LstdFlags|log.LUTC)}
}

func (a *Alerter) Alert(component, message string, err error, fields map[string]string) {
	a.count.Add(1)

	var b strings.Builder
	b.WriteString("[ops][alert] component=")
	b.WriteString(component)
	b.WriteString(" msg=")
	b.WriteString(quote(message))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + "=" + quote(fields[k]))
	}
	if err != nil {
		b.WriteString(" err=" + quote(err.Error()))
	}
	a.logger.Print(b.String())
}

// Count is the number of alerts raised since start.
func (a *Alerter) Count() int64 { return a.count.Load() }

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
