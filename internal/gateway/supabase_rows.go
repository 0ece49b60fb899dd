package gateway

import (
	"encoding/json"
	"strings"
	"time"

	"dental-referral-tracker/internal/domain/entity"
)

// Legacy table and status vocabulary of the hosted schema.
const (
	tableDentists  = "dentistas"
	tableStaff     = "usuarios"
	tableReferrals = "encaminhamentos"

	legacyStatusScheduled   = "agendada"
	legacyStatusUnscheduled = "nao_agendada"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// timestamp decodes the several textual forms PostgREST emits for
// timestamp and timestamptz columns. Zone-less values are read as UTC.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, *raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

type dentistRow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nome"`
	Type      string    `json:"tipo"`
	CreatedAt timestamp `json:"created_at"`
}

func (row dentistRow) toEntity() entity.Dentist {
	return entity.Dentist{
		ID:        row.ID,
		Name:      row.Name,
		Type:      row.Type,
		CreatedAt: row.CreatedAt.Time,
	}
}

type staffRow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nome"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Profile   string    `json:"perfil"`
	CreatedAt timestamp `json:"created_at"`
}

func (row staffRow) toEntity() entity.StaffMember {
	return entity.StaffMember{
		ID:             row.ID,
		Name:           row.Name,
		Username:       row.Username,
		CredentialHash: row.Password,
		Role:           entity.ParseStaffRole(row.Profile),
		CreatedAt:      row.CreatedAt.Time,
	}
}

type referralRow struct {
	ID              int64     `json:"id"`
	PatientCode     string    `json:"codigo_paciente"`
	PatientName     string    `json:"nome_paciente"`
	DentistID       int64     `json:"dentista_id"`
	RegisteredByID  int64     `json:"recepcionista_id"`
	Status          string    `json:"status"`
	PaymentStatus   *string   `json:"status_pagamento"`
	ScheduledFlag   *bool     `json:"agendado"`
	Paid            *bool     `json:"pago"`
	PaidImmediately *bool     `json:"pago_imediatamente"`
	PaidOnTheSpot   *bool     `json:"pagou_na_hora"`
	Notes           *string   `json:"observacoes"`
	RegisteredAt    timestamp `json:"data_registro"`
	PaidAt          timestamp `json:"data_pagamento"`
	PaymentMonth    *string   `json:"mes_pagamento"`
	CreatedAt       timestamp `json:"created_at"`
}

// toEntity normalizes the tolerant legacy encodings once, on ingest.
func (row referralRow) toEntity() entity.Referral {
	paid := boolValue(row.Paid) || entity.IsPaidLabel(row.Status)
	if row.PaymentStatus != nil && entity.IsPaidLabel(*row.PaymentStatus) {
		paid = true
	}

	status := entity.ParseReferralStatus(row.Status)
	if row.ScheduledFlag != nil {
		status = entity.ReferralStatusUnscheduled
		if *row.ScheduledFlag {
			status = entity.ReferralStatusScheduled
		}
	}
	if paid {
		status = entity.ReferralStatusScheduled
	}

	referral := entity.Referral{
		ID:              row.ID,
		PatientCode:     row.PatientCode,
		PatientName:     row.PatientName,
		DentistID:       row.DentistID,
		RegisteredByID:  row.RegisteredByID,
		Status:          status,
		Paid:            paid,
		PaidImmediately: paid && (boolValue(row.PaidImmediately) || boolValue(row.PaidOnTheSpot)),
		RegisteredAt:    row.RegisteredAt.Time,
		CreatedAt:       row.CreatedAt.Time,
	}
	if row.Notes != nil {
		referral.Notes = *row.Notes
	}
	if !row.PaidAt.IsZero() {
		paidAt := row.PaidAt.Time
		referral.PaidAt = &paidAt
	}
	if row.PaymentMonth != nil && *row.PaymentMonth != "" {
		month := *row.PaymentMonth
		referral.PaymentMonth = &month
	}
	return referral
}

func legacyStatus(status entity.ReferralStatus) string {
	if status == entity.ReferralStatusScheduled {
		return legacyStatusScheduled
	}
	return legacyStatusUnscheduled
}

// referralColumns translates a new referral to the hosted column names.
func referralColumns(r entity.Referral) map[string]interface{} {
	cols := map[string]interface{}{
		"codigo_paciente":    r.PatientCode,
		"nome_paciente":      r.PatientName,
		"dentista_id":        r.DentistID,
		"recepcionista_id":   r.RegisteredByID,
		"status":             legacyStatus(r.Status),
		"pago":               r.Paid,
		"pago_imediatamente": r.PaidImmediately,
		"pagou_na_hora":      r.PaidImmediately,
		"observacoes":        r.Notes,
		"data_registro":      r.RegisteredAt.UTC().Format(time.RFC3339Nano),
		"data_pagamento":     nil,
		"mes_pagamento":      nil,
	}
	if r.PaidAt != nil {
		cols["data_pagamento"] = r.PaidAt.UTC().Format(time.RFC3339Nano)
	}
	if r.PaymentMonth != nil {
		cols["mes_pagamento"] = *r.PaymentMonth
	}
	return cols
}

// patchColumns translates a partial update to the hosted column names.
func patchColumns(p entity.ReferralPatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.PatientCode != nil {
		cols["codigo_paciente"] = *p.PatientCode
	}
	if p.PatientName != nil {
		cols["nome_paciente"] = *p.PatientName
	}
	if p.DentistID != nil {
		cols["dentista_id"] = *p.DentistID
	}
	if p.Notes != nil {
		cols["observacoes"] = *p.Notes
	}
	if p.Status != nil {
		cols["status"] = legacyStatus(*p.Status)
	}
	if p.Paid != nil {
		cols["pago"] = *p.Paid
	}
	if p.PaidAt != nil {
		cols["data_pagamento"] = p.PaidAt.UTC().Format(time.RFC3339Nano)
	}
	if p.PaymentMonth != nil {
		cols["mes_pagamento"] = *p.PaymentMonth
	}
	return cols
}

func boolValue(b *bool) bool {
	return b != nil && *b
}
