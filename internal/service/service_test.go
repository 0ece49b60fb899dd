package service

import (
	"context"
	"io"
	"testing"

	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/repository"
	"dental-referral-tracker/pkg/jwt"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "session:7:abc", SessionKey(jwt.AccessToken, 7, "abc"))
	assert.Equal(t, "refresh:7:abc", SessionKey(jwt.RefreshToken, 7, "abc"))
}

func TestAuditServicePersistsEntry(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	log := logrus.New()
	log.SetOutput(io.Discard)
	actor := int64(3)
	NewAuditService(db, log, repository.NewAuditLogRepository()).
		LogCreate(context.Background(), &actor, entity.AuditActionReferralCreate, "referral", 10, map[string]string{"patient_code": "P1"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditServiceSwallowsStoreFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO "audit_logs"`).WillReturnError(assert.AnError)

	log, hook := test.NewNullLogger()
	NewAuditService(db, log, repository.NewAuditLogRepository()).
		LogDelete(context.Background(), nil, entity.AuditActionReferralDelete, "referral", 10, nil)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestAuditServiceLogsWithoutDatabase(t *testing.T) {
	log, hook := test.NewNullLogger()
	actor := int64(1)
	NewAuditService(nil, log, nil).
		LogUpdate(context.Background(), &actor, entity.AuditActionReferralSchedule, "referral", 4, "unscheduled", "scheduled")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "audit", hook.LastEntry().Message)
	assert.Equal(t, entity.AuditActionReferralSchedule, hook.LastEntry().Data["action"])
	assert.Equal(t, int64(1), hook.LastEntry().Data["actor_id"])
}
