package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/caldermtz/tidechest/internal/platform/errors"
	"github.com/caldermtz/tidechest/internal/treasure/domain"
	"github.com/caldermtz/tidechest/internal/treasure/grant"
	"github.com/caldermtz/tidechest/internal/treasure/storage"
)

// Seed writes the administrator identity and hub address when the config
// table has no value for them yet. Later boots never overwrite values set
// through SetAdmin/SetHub.
func (s *RoomService) Seed(ctx context.Context, admin domain.Identity, hubAddress string) error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	if admin != "" {
		if err := s.seedConfig(ctx, storage.ConfigKeyAdmin, string(admin)); err != nil {
			return err
		}
	}
	if hubAddress != "" {
		if err := s.seedConfig(ctx, storage.ConfigKeyHubAddress, hubAddress); err != nil {
			return err
		}
	}
	return nil
}

func (s *RoomService) seedConfig(ctx context.Context, key, value string) error {
	_, err := s.store.GetConfig(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := s.store.SetConfig(ctx, key, value); err != nil {
		return fmt.Errorf("seed %s: %w", key, err)
	}
	return nil
}

// GetAdmin returns the administrator identity.
func (s *RoomService) GetAdmin(ctx context.Context) (domain.Identity, error) {
	if s == nil || s.store == nil {
		return "", apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	admin, err := s.admin(ctx)
	if err != nil {
		return "", err
	}
	return admin, nil
}

// SetAdminInput carries the set_admin call and its authorization.
type SetAdminInput struct {
	NewAdmin domain.Identity
	Grant    string
}

// SetAdmin hands administration to a new identity. Only the current admin
// may authorize the change.
func (s *RoomService) SetAdmin(ctx context.Context, in SetAdminInput) error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	admin, err := s.admin(ctx)
	if err != nil {
		return err
	}
	if err := s.verifier.Verify(in.Grant, grant.Expectation{
		Action: grant.ActionSetAdmin,
		Player: admin,
		Params: map[string]string{grant.ParamAdmin: string(in.NewAdmin)},
	}); err != nil {
		return err
	}
	if _, err := domain.ParseIdentity(string(in.NewAdmin)); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid admin identity", err)
	}
	if err := s.store.SetConfig(ctx, storage.ConfigKeyAdmin, string(in.NewAdmin)); err != nil {
		return fmt.Errorf("persist admin: %w", err)
	}
	return nil
}

// GetHub returns the settlement hub's base address.
func (s *RoomService) GetHub(ctx context.Context) (string, error) {
	if s == nil || s.store == nil {
		return "", apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	address, err := s.store.GetConfig(ctx, storage.ConfigKeyHubAddress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", apperrors.New(apperrors.CodeHubUnavailable, "hub address is not configured")
		}
		return "", fmt.Errorf("load hub address: %w", err)
	}
	return address, nil
}

// SetHubInput carries the set_hub call and its authorization.
type SetHubInput struct {
	Address string
	Grant   string
}

// SetHub points the service at a new settlement authority. Gameplay
// operations never mutate this value.
func (s *RoomService) SetHub(ctx context.Context, in SetHubInput) error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeUnknown, "room store is not configured")
	}
	admin, err := s.admin(ctx)
	if err != nil {
		return err
	}
	if err := s.verifier.Verify(in.Grant, grant.Expectation{
		Action: grant.ActionSetHub,
		Player: admin,
		Params: map[string]string{grant.ParamHub: in.Address},
	}); err != nil {
		return err
	}
	if in.Address == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "hub address is required")
	}
	if err := s.store.SetConfig(ctx, storage.ConfigKeyHubAddress, in.Address); err != nil {
		return fmt.Errorf("persist hub address: %w", err)
	}
	return nil
}

func (s *RoomService) admin(ctx context.Context) (domain.Identity, error) {
	raw, err := s.store.GetConfig(ctx, storage.ConfigKeyAdmin)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", apperrors.New(apperrors.CodeUnauthorized, "no administrator is configured")
		}
		return "", fmt.Errorf("load admin: %w", err)
	}
	return domain.Identity(raw), nil
}
