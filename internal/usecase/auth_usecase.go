package usecase

import (
	"context"
	"strings"

	"dental-referral-tracker/internal/converter"
	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/domain/repository"
	"dental-referral-tracker/internal/service"
	"dental-referral-tracker/pkg/jwt"

	"github.com/sirupsen/logrus"
)

type AuthUsecase interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, staffID int64, accessTokenID, refreshTokenID string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentStaff(ctx context.Context, staffID int64) (*dto.StaffResponse, error)
}

type authUsecase struct {
	log        *logrus.Logger
	gateway    repository.Gateway
	referrals  ReferralUsecase
	jwtService *jwt.JWTService
	sessions   service.SessionStore
	audit      service.AuditService
}

func NewAuthUsecase(
	log *logrus.Logger,
	gateway repository.Gateway,
	referrals ReferralUsecase,
	jwtService *jwt.JWTService,
	sessions service.SessionStore,
	audit service.AuditService,
) AuthUsecase {
	return &authUsecase{
		log:        log,
		gateway:    gateway,
		referrals:  referrals,
		jwtService: jwtService,
		sessions:   sessions,
		audit:      audit,
	}
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	staff, err := u.gateway.Authenticate(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		u.log.Warnf("Failed to authenticate staff member: %+v", err)
		return nil, &StoreError{Op: "authenticate", Err: err}
	}
	if staff == nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := u.issueTokens(ctx, jwt.Subject{
		StaffID:  staff.ID,
		Username: staff.Username,
		Role:     string(staff.Role),
	})
	if err != nil {
		return nil, err
	}
	tokens.Staff = converter.StaffToResponse(staff)

	u.audit.LogCreate(ctx, &staff.ID, entity.AuditActionStaffLogin, "staff", staff.ID, nil)
	return tokens, nil
}

func (u *authUsecase) Logout(ctx context.Context, staffID int64, accessTokenID, refreshTokenID string) error {
	if err := u.sessions.Revoke(ctx, jwt.AccessToken, staffID, accessTokenID); err != nil {
		return err
	}
	if refreshTokenID != "" {
		if err := u.sessions.Revoke(ctx, jwt.RefreshToken, staffID, refreshTokenID); err != nil {
			return err
		}
	}

	u.audit.LogDelete(ctx, &staffID, entity.AuditActionStaffLogout, "staff", staffID, nil)
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	exists, err := u.sessions.Exists(ctx, jwt.RefreshToken, claims.StaffID, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	// refresh tokens are single use
	if err := u.sessions.Revoke(ctx, jwt.RefreshToken, claims.StaffID, claims.TokenID); err != nil {
		return nil, err
	}

	return u.issueTokens(ctx, jwt.Subject{
		StaffID:  claims.StaffID,
		Username: claims.Username,
		Role:     claims.Role,
	})
}

func (u *authUsecase) GetCurrentStaff(ctx context.Context, staffID int64) (*dto.StaffResponse, error) {
	snap, err := u.referrals.Refresh(ctx)
	if err != nil {
		u.log.Warnf("Serving current staff from retained snapshot: %+v", err)
	}

	for i := range snap.Staff {
		if snap.Staff[i].ID == staffID {
			return converter.StaffToResponse(&snap.Staff[i]), nil
		}
	}
	return nil, &NotFoundError{Entity: "staff", ID: staffID}
}

func (u *authUsecase) issueTokens(ctx context.Context, subject jwt.Subject) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(subject)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(subject)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.sessions.Save(ctx, jwt.AccessToken, subject.StaffID, accessTokenID, u.jwtService.GetAccessExpiry()); err != nil {
		return nil, err
	}
	if err := u.sessions.Save(ctx, jwt.RefreshToken, subject.StaffID, refreshTokenID, u.jwtService.GetRefreshExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}
