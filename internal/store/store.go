package store

import (
	"context"
	"errors"
	"time"

	"cex-withdraw-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrAlreadyMember     = errors.New("already a member of this organization")
	ErrInvalidInvitation = errors.New("invalid or expired invitation code")
	ErrInvitationExpired = errors.New("invitation has expired")
	ErrForbidden         = errors.New("forbidden")
	ErrOwnerRemoval      = errors.New("organization owners cannot be removed")
)

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
}

// CreateOrganizationParams creates an organization together with its owner
// membership. MakeCurrent also points the owner's current organization at it.
type CreateOrganizationParams struct {
	Name        string
	Slug        string
	Description string
	OwnerId     string
	IsPersonal  bool
	MakeCurrent bool
}

type CreateInvitationParams struct {
	OrganizationId string
	InvitedBy      string
	Email          string
	Role           string
	Token          string
	ExpiresAt      time.Time
}

// SaveExchangeConfigParams is the settings form after a connection test
type SaveExchangeConfigParams struct {
	OrganizationId  string
	ExchangeName    string
	ApiKey          string
	ApiSecret       string
	Passphrase      string
	Testnet         bool
	IsActive        bool
	IsValid         bool
	ValidationError string
	ValidatedAt     time.Time
	UserId          string
}

type CreateWalletParams struct {
	OrganizationId string
	CreatedBy      string
	Label          string
	Address        string
	Coin           string
	Network        string
	Exchange       string
	Description    string
}

// RecordWithdrawalParams is a validated withdrawal intent plus the audit
// details written alongside it. AmountText is the amount as submitted and
// is stored verbatim when set.
type RecordWithdrawalParams struct {
	OrganizationId string
	UserId         string
	ExchangeName   string
	Coin           string
	Network        string
	Amount         decimal.Decimal
	AmountText     string
	Address        string
	Tag            string
	IpAddress      string
	UserAgent      string
}

type ActivityParams struct {
	OrganizationId string
	UserId         string
	Action         string
	Entity         string
	EntityId       string
	Details        map[string]interface{}
	IpAddress      string
	UserAgent      string
}

type UserStore interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, userId string, at time.Time) error
	SetCurrentOrganization(ctx context.Context, userId, organizationId string) error
}

type OrganizationStore interface {
	CountOrganizations(ctx context.Context) (int, error)
	CreateOrganization(ctx context.Context, params CreateOrganizationParams) (*models.Organization, error)
	GetOrganizationById(ctx context.Context, organizationId string) (*models.Organization, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	ListUserOrganizations(ctx context.Context, userId string) ([]models.OrganizationMembership, error)
	GetMembership(ctx context.Context, userId, organizationId string) (*models.Membership, error)
	ListMembers(ctx context.Context, organizationId string) ([]models.MemberWithUser, error)
	RemoveMember(ctx context.Context, organizationId, membershipId string) (*models.Membership, error)
}

type InvitationStore interface {
	CreateInvitation(ctx context.Context, params CreateInvitationParams) (*models.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	ListPendingInvitations(ctx context.Context, organizationId string) ([]models.Invitation, error)
	CancelInvitation(ctx context.Context, organizationId, invitationId string) error
	AcceptInvitation(ctx context.Context, invitationId, userId string) (*models.Membership, error)
	ExpireInvitations(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredInvitations(ctx context.Context, before time.Time) (int64, error)
}

type ExchangeConfigStore interface {
	ListExchangeConfigs(ctx context.Context, organizationId string) ([]models.ExchangeConfig, error)
	ListActiveExchangeConfigs(ctx context.Context, organizationId string) ([]models.ExchangeConfig, error)
	GetExchangeConfig(ctx context.Context, organizationId, configId string) (*models.ExchangeConfig, error)
	GetActiveExchangeConfigByName(ctx context.Context, organizationId, exchangeName string) (*models.ExchangeConfig, error)
	CreateExchangeConfig(ctx context.Context, params SaveExchangeConfigParams) (*models.ExchangeConfig, error)
	UpdateExchangeConfig(ctx context.Context, configId string, params SaveExchangeConfigParams) (*models.ExchangeConfig, error)
	DeleteExchangeConfig(ctx context.Context, organizationId, configId string) error
	UpdateExchangeValidation(ctx context.Context, organizationId, configId string, valid bool, validationError string, at time.Time) error
}

type WalletStore interface {
	CreateWallet(ctx context.Context, params CreateWalletParams) (*models.SavedWallet, error)
	ListWallets(ctx context.Context, organizationId string) ([]models.SavedWallet, error)
	GetWallet(ctx context.Context, organizationId, walletId string) (*models.SavedWallet, error)
	DeleteWallet(ctx context.Context, organizationId, walletId, userId string) error
}

type WithdrawalStore interface {
	RecordWithdrawal(ctx context.Context, params RecordWithdrawalParams) (*models.WithdrawRecord, error)
	ListWithdrawals(ctx context.Context, organizationId string, limit int) ([]models.WithdrawRecord, error)
	GetWithdrawal(ctx context.Context, organizationId, withdrawalId string) (*models.WithdrawRecord, error)
}

type ActivityStore interface {
	LogActivity(ctx context.Context, params ActivityParams) error
	ListActivity(ctx context.Context, organizationId string, limit int) ([]models.ActivityEntry, error)
}

// Store defines the contract every persistence backend must satisfy.
type Store interface {
	UserStore
	OrganizationStore
	InvitationStore
	ExchangeConfigStore
	WalletStore
	WithdrawalStore
	ActivityStore

	Ping(ctx context.Context) error
	Close()
}

// WithdrawalJournal mirrors recorded withdrawal intents into an external
// ledger. Implementations must be safe for concurrent use.
type WithdrawalJournal interface {
	RecordWithdrawalIntent(ctx context.Context, record models.WithdrawRecord) error
}
