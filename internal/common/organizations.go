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

package common

import (
	"context"
	"fmt"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"go.uber.org/zap"
)

// ResolveOrganizations returns the organizations a command-line report
// covers. A slug selects a single organization; an empty slug selects all.
func ResolveOrganizations(ctx context.Context, orgs store.OrganizationStore, slug string) ([]models.Organization, error) {
	if slug != "" {
		zap.L().Info("Looking up organization by slug", zap.String("slug", slug))
		org, err := orgs.GetOrganizationBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("organization not found: %w", err)
		}
		return []models.Organization{*org}, nil
	}

	all, err := orgs.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizations: %w", err)
	}
	return all, nil
}
