package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dental-referral-tracker/config"
	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// SupabaseError is returned when PostgREST answers with a non-2xx status
type SupabaseError struct {
	StatusCode int
	Body       string
}

func (e *SupabaseError) Error() string {
	return fmt.Sprintf("supabase error (status %d): %s", e.StatusCode, e.Body)
}

// SupabaseGateway is the hosted Data Store Gateway speaking PostgREST.
// It owns the translation to the legacy Portuguese column names.
type SupabaseGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logrus.Logger
}

var _ repository.Gateway = (*SupabaseGateway)(nil)

func NewSupabaseGateway(cfg config.SupabaseConfig, log *logrus.Logger) (*SupabaseGateway, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase URL and API key are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SupabaseGateway{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

func (g *SupabaseGateway) ListDentists(ctx context.Context) ([]entity.Dentist, error) {
	var rows []dentistRow
	query := url.Values{"select": {"*"}, "order": {"nome.asc"}}
	if err := g.do(ctx, http.MethodGet, tableDentists, query, nil, false, &rows); err != nil {
		return nil, err
	}
	dentists := make([]entity.Dentist, len(rows))
	for i, row := range rows {
		dentists[i] = row.toEntity()
	}
	return dentists, nil
}

func (g *SupabaseGateway) ListStaff(ctx context.Context) ([]entity.StaffMember, error) {
	var rows []staffRow
	query := url.Values{"select": {"*"}, "order": {"nome.asc"}}
	if err := g.do(ctx, http.MethodGet, tableStaff, query, nil, false, &rows); err != nil {
		return nil, err
	}
	staff := make([]entity.StaffMember, len(rows))
	for i, row := range rows {
		staff[i] = row.toEntity()
	}
	return staff, nil
}

func (g *SupabaseGateway) ListReferrals(ctx context.Context) ([]entity.Referral, error) {
	var rows []referralRow
	query := url.Values{"select": {"*"}, "order": {"data_registro.desc"}}
	if err := g.do(ctx, http.MethodGet, tableReferrals, query, nil, false, &rows); err != nil {
		return nil, err
	}
	referrals := make([]entity.Referral, len(rows))
	for i, row := range rows {
		referrals[i] = row.toEntity()
	}
	return referrals, nil
}

func (g *SupabaseGateway) CreateReferral(ctx context.Context, referral entity.Referral) (*entity.Referral, error) {
	var row referralRow
	if err := g.do(ctx, http.MethodPost, tableReferrals, nil, referralColumns(referral), true, &row); err != nil {
		return nil, err
	}
	created := row.toEntity()
	return &created, nil
}

func (g *SupabaseGateway) UpdateReferral(ctx context.Context, id int64, patch entity.ReferralPatch) (*entity.Referral, error) {
	var row referralRow
	if err := g.do(ctx, http.MethodPatch, tableReferrals, idFilter(id), patchColumns(patch), true, &row); err != nil {
		return nil, err
	}
	updated := row.toEntity()
	return &updated, nil
}

func (g *SupabaseGateway) DeleteReferral(ctx context.Context, id int64) error {
	return g.deleteByID(ctx, tableReferrals, id)
}

func (g *SupabaseGateway) CreateDentist(ctx context.Context, dentist entity.Dentist) (*entity.Dentist, error) {
	if dentist.Type == "" {
		dentist.Type = entity.DefaultDentistType
	}
	body := map[string]interface{}{"nome": dentist.Name, "tipo": dentist.Type}
	var row dentistRow
	if err := g.do(ctx, http.MethodPost, tableDentists, nil, body, true, &row); err != nil {
		return nil, err
	}
	created := row.toEntity()
	return &created, nil
}

func (g *SupabaseGateway) UpdateDentist(ctx context.Context, dentist entity.Dentist) (*entity.Dentist, error) {
	body := map[string]interface{}{"nome": dentist.Name, "tipo": dentist.Type}
	var row dentistRow
	if err := g.do(ctx, http.MethodPatch, tableDentists, idFilter(dentist.ID), body, true, &row); err != nil {
		return nil, err
	}
	updated := row.toEntity()
	return &updated, nil
}

func (g *SupabaseGateway) DeleteDentist(ctx context.Context, id int64) error {
	return g.deleteByID(ctx, tableDentists, id)
}

func (g *SupabaseGateway) CreateStaff(ctx context.Context, staff entity.StaffMember) (*entity.StaffMember, error) {
	body := map[string]interface{}{
		"nome":     staff.Name,
		"username": staff.Username,
		"password": staff.CredentialHash,
		"perfil":   legacyProfile(staff.Role),
	}
	var row staffRow
	if err := g.do(ctx, http.MethodPost, tableStaff, nil, body, true, &row); err != nil {
		var supaErr *SupabaseError
		// 409 = unique violation reported by PostgREST
		if errors.As(err, &supaErr) && supaErr.StatusCode == http.StatusConflict {
			return nil, repository.ErrDuplicateUsername
		}
		return nil, err
	}
	created := row.toEntity()
	return &created, nil
}

func (g *SupabaseGateway) DeleteStaff(ctx context.Context, id int64) error {
	return g.deleteByID(ctx, tableStaff, id)
}

func (g *SupabaseGateway) Authenticate(ctx context.Context, username, secret string) (*entity.StaffMember, error) {
	var rows []staffRow
	query := url.Values{
		"select":   {"*"},
		"username": {"eq." + username},
		"limit":    {"1"},
	}
	if err := g.do(ctx, http.MethodGet, tableStaff, query, nil, false, &rows); err != nil {
		g.log.Warnf("Failed to find staff by username: %+v", err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	staff := rows[0].toEntity()
	if err := bcrypt.CompareHashAndPassword([]byte(staff.CredentialHash), []byte(secret)); err != nil {
		return nil, nil
	}
	return &staff, nil
}

func (g *SupabaseGateway) deleteByID(ctx context.Context, table string, id int64) error {
	var rows []json.RawMessage
	if err := g.do(ctx, http.MethodDelete, table, idFilter(id), nil, false, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return repository.ErrRecordNotFound
	}
	return nil
}

// do performs one PostgREST call. When single is set the response must be exactly
// one row; PostgREST answers 406 otherwise, which maps to ErrRecordNotFound.
func (g *SupabaseGateway) do(ctx context.Context, method, table string, query url.Values, body interface{}, single bool, out interface{}) error {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", g.baseURL, table)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if single && resp.StatusCode == http.StatusNotAcceptable {
		return repository.ErrRecordNotFound
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return &SupabaseError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}

func idFilter(id int64) url.Values {
	return url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}}
}

func legacyProfile(role entity.StaffRole) string {
	if role == entity.StaffRoleManager {
		return "gestor"
	}
	return "recepcionista"
}
