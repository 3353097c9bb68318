package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/internal/store"
	"github.com/memberhub/apiserver/types"
)

// ErrMissingFields is returned when a required registration or login field
// is absent.
var ErrMissingFields = errors.New("missing required fields")

// ErrAccountNotFound and ErrPasswordMismatch distinguish login failures
// internally. The transport layer must map both to the same external
// message so accounts cannot be enumerated.
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrPasswordMismatch = errors.New("password mismatch")
)

// MemberRepository defines persistence operations for members.
type MemberRepository interface {
	GetByID(ctx context.Context, id string) (types.Member, error)
	GetByAccount(ctx context.Context, account string) (types.Member, error)
	CountByAccount(ctx context.Context, account string) (int, error)
	Create(ctx context.Context, member types.Member) (types.Member, error)
}

// RegisterInput is the raw registration form. Account and Password are
// required; the rest is optional.
type RegisterInput struct {
	Account  string
	Password string
	Name     string
	Address  string
	Birthday string
}

// MemberService encapsulates member use-cases.
type MemberService struct {
	repo      MemberRepository
	hasher    auth.PasswordHasher
	publisher *events.Publisher
	logger    *slog.Logger
}

// NewMemberService constructs a MemberService. publisher may be nil, in
// which case registration events are not emitted.
func NewMemberService(repo MemberRepository, hasher auth.PasswordHasher, publisher *events.Publisher, logger *slog.Logger) *MemberService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberService{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
	}
}

// Register validates the input, builds a member record, and persists it.
// The member id is generated here, the birthday is normalized (or dropped),
// and the password is hashed before it reaches the repository. Exactly one
// insert happens on success and none on any validation failure.
func (s *MemberService) Register(ctx context.Context, input RegisterInput) (types.Member, error) {
	input.Account = strings.TrimSpace(input.Account)
	input.Name = strings.TrimSpace(input.Name)
	if input.Account == "" || input.Password == "" {
		return types.Member{}, ErrMissingFields
	}

	count, err := s.repo.CountByAccount(ctx, input.Account)
	if err != nil {
		return types.Member{}, fmt.Errorf("check account: %w", err)
	}
	if count > 0 {
		return types.Member{}, store.ErrDuplicateAccount
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return types.Member{}, fmt.Errorf("hash password: %w", err)
	}

	member := types.Member{
		ID:           uuid.NewString(),
		Account:      input.Account,
		PasswordHash: hashed,
		Name:         input.Name,
		Address:      optional(input.Address),
		Birthday:     NormalizeBirthday(input.Birthday),
	}

	created, err := s.repo.Create(ctx, member)
	if err != nil {
		// The unique constraint can still fire when two registrations
		// race past the pre-check; both outcomes read as a duplicate.
		return types.Member{}, err
	}

	s.publishRegistered(ctx, created)
	return created, nil
}

// Login fetches the member by account and verifies the password.
func (s *MemberService) Login(ctx context.Context, account, password string) (types.Member, error) {
	account = strings.TrimSpace(account)
	if account == "" || password == "" {
		return types.Member{}, ErrMissingFields
	}

	member, err := s.repo.GetByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Member{}, ErrAccountNotFound
		}
		return types.Member{}, fmt.Errorf("fetch account: %w", err)
	}

	if !s.hasher.Verify(password, member.PasswordHash) {
		return types.Member{}, ErrPasswordMismatch
	}
	return member, nil
}

// GetByID returns the member with the given id.
func (s *MemberService) GetByID(ctx context.Context, id string) (types.Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *MemberService) publishRegistered(ctx context.Context, member types.Member) {
	if s.publisher == nil {
		return
	}
	event := events.MemberRegistered{
		MemberID:      member.ID,
		MemberAccount: member.Account,
		RegisteredAt:  time.Now(),
	}
	if _, err := s.publisher.MemberRegistered(ctx, event); err != nil {
		// Best effort; registration already succeeded.
		s.logger.Error("failed to publish member registered event",
			slog.String("member_id", member.ID), slog.Any("error", err))
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
