// Package execresolver implements Phase 1 of the classification pipeline:
// identifying who really executed a call — a direct EOA, a proxy delegate,
// a multisig invocation, or a bundled ERC-4337 user operation.
package execresolver

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/events"
)

// Resolve runs the three independent detectors and merges their signals
// into a single ExecutionDetails per the specificity order
// Multisig+Proxy > Multisig > AccountAbstraction > Relayed(Proxy) > Direct.
// It never fails: unrecognized patterns degrade to Direct.
func Resolve(tx chaintypes.Transaction, receipt chaintypes.Receipt, cfg chaintypes.ChainConfig) chaintypes.ExecutionDetails {
	if tx.To == nil {
		var created common.Address
		if receipt.CreatedContract != nil {
			created = *receipt.CreatedContract
		}
		return chaintypes.ExecutionDetails{
			EffectiveTo:      created,
			Type:             chaintypes.ExecutionDirect,
			ResolutionMethod: "ContractCreation",
		}
	}

	target := *tx.To

	isProxy, implementation := detectProxy(target, receipt)
	isMultisig := detectMultisig(tx, target, receipt)
	isAA, innerSender := detectAccountAbstraction(tx, target, cfg, receipt)

	execType := chaintypes.ExecutionDirect
	method := "Direct"
	switch {
	case isMultisig:
		execType = chaintypes.ExecutionMultisig
		method = "Multisig"
		if isProxy {
			method = "Multisig+Proxy"
		}
	case isAA:
		execType = chaintypes.ExecutionAccountAbstraction
		method = "AccountAbstraction"
	case isProxy:
		execType = chaintypes.ExecutionRelayed
		method = "Relayed(Proxy)"
	}

	effectiveTo := target
	if implementation != nil {
		effectiveTo = *implementation
	}

	return chaintypes.ExecutionDetails{
		EffectiveTo:       effectiveTo,
		Type:              execType,
		IsProxy:           isProxy,
		IsMultisig:        isMultisig,
		IsAccountAbstract: isAA,
		Implementation:    implementation,
		InnerSender:       innerSender,
		ResolutionMethod:  method,
	}
}

// detectProxy scans logs emitted by target for EIP-1967 Upgraded /
// BeaconUpgraded events. Minimal-proxy (EIP-1167) patterns are not
// detected here, per contract.
func detectProxy(target common.Address, receipt chaintypes.Receipt) (bool, *common.Address) {
	for _, log := range receipt.Logs {
		if log.Address != target {
			continue
		}
		topic0 := log.Topic(0)
		if topic0 != events.UpgradedTopic && topic0 != events.BeaconUpgradedTopic {
			continue
		}
		if len(log.Topics) < 2 {
			continue
		}
		impl := common.BytesToAddress(log.Topics[1].Bytes())
		return true, &impl
	}
	return false, nil
}

// detectMultisig signals a Safe/Argent-style multisig invocation by
// selector or by the wallet's own execution-result events.
func detectMultisig(tx chaintypes.Transaction, target common.Address, receipt chaintypes.Receipt) bool {
	if matchesSelector(tx.Input, events.ExecTransactionSelector) || matchesSelector(tx.Input, events.ArgentExecuteSelector) {
		return true
	}
	for _, log := range receipt.Logs {
		if log.Address != target {
			continue
		}
		topic0 := log.Topic(0)
		if topic0 == events.ExecutionSuccessTopic || topic0 == events.ExecutionFailureTopic {
			return true
		}
	}
	return false
}

// detectAccountAbstraction signals an ERC-4337 bundled call: either the
// target is a known entry point invoked via handleOps/handleAggregatedOps,
// or a UserOperationEvent is emitted by an entry point.
func detectAccountAbstraction(tx chaintypes.Transaction, target common.Address, cfg chaintypes.ChainConfig, receipt chaintypes.Receipt) (bool, *common.Address) {
	isEntryPointCall := cfg.IsEntryPoint(target) &&
		(matchesSelector(tx.Input, events.HandleOpsSelector) || matchesSelector(tx.Input, events.HandleAggregatedOpsSelector))

	for _, log := range receipt.Logs {
		if log.Topic(0) != events.UserOperationEventTopic {
			continue
		}
		if !cfg.IsEntryPoint(log.Address) {
			continue
		}
		sender := extractUserOpSender(log)
		if isEntryPointCall || sender != nil {
			return true, sender
		}
	}
	return isEntryPointCall, nil
}

// extractUserOpSender reads the UserOp sender out of the appropriate topic
// index: when the log carries 4 topics, the sender sits at index 2;
// otherwise at index 1.
func extractUserOpSender(log chaintypes.Log) *common.Address {
	idx := 1
	if len(log.Topics) == 4 {
		idx = 2
	}
	if idx >= len(log.Topics) {
		return nil
	}
	sender := common.BytesToAddress(log.Topics[idx].Bytes())
	return &sender
}

func matchesSelector(input []byte, selector [4]byte) bool {
	if len(input) < 4 {
		return false
	}
	return input[0] == selector[0] && input[1] == selector[1] && input[2] == selector[2] && input[3] == selector[3]
}
