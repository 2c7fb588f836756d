// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	cmds     *prometheus.CounterVec
	switches *prometheus.GaugeVec
}

// newMetrics creates the server metrics and registers them with reg.
// A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		cmds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zybo",
			Name:      "commands_total",
			Help:      "Total device commands, by outcome",
		}, []string{"device", "cmd", "status"}),
		switches: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "zybo",
			Name:      "switches",
			Help:      "Last masked value read from a switch bank",
		}, []string{"device"}),
	}
}

func (m *metrics) command(dev, cmd string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.cmds.WithLabelValues(dev, cmd, status).Inc()
}
