// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vaultvm/sdk/program"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"

	// Label of every program id the vm does not run, which keeps the
	// number of series bounded by the registered programs.
	unknownProgram = "unknown"
)

type metrics struct {
	txAccepted   prometheus.Counter
	txRejected   prometheus.Counter
	instructions *prometheus.CounterVec
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		txAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_accepted",
			Help:      "Number of transactions accepted",
		}),
		txRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_rejected",
			Help:      "Number of transactions rejected",
		}),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions",
			Help:      "Number of top level instructions executed, by program and result",
		}, []string{"program", "result"}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.txAccepted),
		registerer.Register(m.txRejected),
		registerer.Register(m.instructions),
	)
	return m, errs.Err
}

func (m *metrics) instruction(programID ids.ID, registered bool, err error) {
	label := unknownProgram
	if registered {
		label = program.AddressString(programID)
	}
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	m.instructions.WithLabelValues(label, result).Inc()
}
