/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package formance

import (
	"context"
	"fmt"

	"cex-withdraw-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Funds leave the organization's exchange account and wait in the pending
// withdrawals account. Nothing settles them yet.
const numscriptWithdrawalRequested = `vars {
  asset $asset
  number $amount
  account $organization_id
  account $exchange
  string $withdrawal_id
  string $destination_address
  string $network
  string $amount_human
  string $initiated_by
}

send [$asset $amount] (
  source = @orgs:$organization_id:exchanges:$exchange allowing unbounded overdraft
  destination = @orgs:$organization_id:withdrawals:pending
)

set_tx_meta("event_type", "withdrawal_requested")
set_tx_meta("withdrawal_id", $withdrawal_id)
set_tx_meta("destination_address", $destination_address)
set_tx_meta("network", $network)
set_tx_meta("amount_human", $amount_human)
set_tx_meta("initiated_by", $initiated_by)
`

func pendingAccount(organizationId string) string {
	return "orgs:" + accountSegment(organizationId) + ":withdrawals:pending"
}

// withdrawalPosting builds the ledger transaction for one recorded intent.
// The withdrawal id is the reference, so replays are rejected as conflicts.
func withdrawalPosting(record models.WithdrawRecord) shared.V2PostTransaction {
	scaled := record.Amount.Shift(int32(precisionFor(record.Coin)))
	if !scaled.IsInteger() {
		// The ledger asset has fewer decimals than the submitted amount.
		zap.L().Warn("Withdrawal amount exceeds ledger precision, rounding down",
			zap.String("withdrawal_id", record.Id),
			zap.String("coin", record.Coin),
			zap.String("amount", record.Amount.String()))
		scaled = scaled.RoundDown(0)
	}
	smallAmt := scaled.BigInt().String()

	postTx := shared.V2PostTransaction{
		Reference: strPtr("withdrawal-" + record.Id),
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptWithdrawalRequested,
			Vars: map[string]string{
				"asset":               formanceAsset(record.Coin),
				"amount":              smallAmt,
				"organization_id":     accountSegment(record.OrganizationId),
				"exchange":            accountSegment(record.ExchangeName),
				"withdrawal_id":       record.Id,
				"destination_address": record.Address,
				"network":             record.Network,
				"amount_human":        record.Amount.String(),
				"initiated_by":        record.InitiatedBy,
			},
		},
	}
	if !record.CreatedAt.IsZero() {
		ts := record.CreatedAt
		postTx.Timestamp = &ts
	}
	return postTx
}

// RecordWithdrawalIntent posts the intent. Duplicate posts are ignored.
func (s *Service) RecordWithdrawalIntent(ctx context.Context, record models.WithdrawRecord) error {
	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: withdrawalPosting(record),
	})
	if err != nil {
		if isConflictError(err) {
			return nil
		}
		return fmt.Errorf("error recording withdrawal intent: %w", err)
	}

	zap.L().Info("Withdrawal intent recorded in Formance",
		zap.String("withdrawal_id", record.Id),
		zap.String("organization_id", record.OrganizationId),
		zap.String("asset", record.Coin),
		zap.String("amount", record.Amount.String()))
	return nil
}
