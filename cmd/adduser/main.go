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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"cex-withdraw-go/internal/api"
	"cex-withdraw-go/internal/auth"
	"cex-withdraw-go/internal/common"
	"cex-withdraw-go/internal/config"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// personalSlug derives an organization slug from the username, with a
// short random suffix so repeated runs never collide.
func personalSlug(username string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(username) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String() + "-" + uuid.New().String()[:8]
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	usernameFlag := flag.String("username", "", "Login name (required)")
	emailFlag := flag.String("email", "", "Email address (required)")
	passwordFlag := flag.String("password", "", "Password, at least 6 characters (required)")
	firstFlag := flag.String("first", "", "First name")
	lastFlag := flag.String("last", "", "Last name")
	orgFlag := flag.String("org", "", "Create a personal organization with this name")
	flag.Parse()

	req := models.RegisterRequest{
		Username:  strings.TrimSpace(*usernameFlag),
		Email:     strings.TrimSpace(*emailFlag),
		Password:  *passwordFlag,
		FirstName: *firstFlag,
		LastName:  *lastFlag,
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := services.Dashboard.Validate(req); err != nil {
		var verr *api.ValidationError
		if errors.As(err, &verr) {
			zap.L().Fatal("Invalid user details", zap.String("reason", verr.Error()))
		}
		zap.L().Fatal("Invalid user details", zap.Error(err))
	}

	zap.L().Info("Creating user", zap.String("username", req.Username), zap.String("email", req.Email))
	user, err := services.Auth.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			zap.L().Fatal("User already exists with this username", zap.String("username", req.Username))
		case errors.Is(err, auth.ErrEmailTaken):
			zap.L().Fatal("User already exists with this email", zap.String("email", req.Email))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:       %s\n", user.Id)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Name:     %s\n", user.DisplayName())
	fmt.Printf("Email:    %s\n", user.Email)

	if *orgFlag != "" {
		org, err := services.DbService.CreateOrganization(ctx, store.CreateOrganizationParams{
			Name:        strings.TrimSpace(*orgFlag),
			Slug:        personalSlug(user.Username),
			OwnerId:     user.Id,
			IsPersonal:  true,
			MakeCurrent: true,
		})
		if err != nil {
			zap.L().Fatal("User created but organization creation failed", zap.String("user_id", user.Id), zap.Error(err))
		}
		fmt.Printf("Org:      %s (%s)\n", org.Name, org.Slug)
	} else {
		fmt.Println("Org:      none (join with an invitation code or create one in the UI)")
	}
	common.PrintSeparator("=", common.DefaultWidth)

	zap.L().Info("User created successfully", zap.String("id", user.Id))
}
